package model

import (
	"strconv"
	"strings"
)

// Member is a chat participant as seen by the bot at command time.
type Member struct {
	UserID      int64
	DisplayName string
	Username    string
	IsBot       bool
	IsAdmin     bool
}

// NewMember builds a member from the name parts Telegram reports, falling back
// to the username and then the numeric id when no name is available.
func NewMember(userID int64, firstName, lastName, username string, isBot bool) Member {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name == "" {
		name = strings.TrimSpace(username)
	}
	if name == "" {
		name = "user " + strconv.FormatInt(userID, 10)
	}
	return Member{
		UserID:      userID,
		DisplayName: name,
		Username:    strings.TrimSpace(username),
		IsBot:       isBot,
	}
}

// SortKey is the case-insensitive name used for alphabetical ordering.
func (m Member) SortKey() string {
	return strings.ToLower(m.DisplayName)
}

// ReplyChunk is one outbound message worth of rendered mentions.
type ReplyChunk struct {
	Mentions []string
}

// Len returns the number of mentions in the chunk.
func (c ReplyChunk) Len() int { return len(c.Mentions) }

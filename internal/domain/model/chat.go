package model

import "strings"

// ChatKind mirrors the chat "type" tag reported by Telegram.
type ChatKind string

const (
	ChatPrivate    ChatKind = "private"
	ChatGroup      ChatKind = "group"
	ChatSupergroup ChatKind = "supergroup"
	ChatChannel    ChatKind = "channel"
)

// ParseChatKind normalises a raw chat type. Unknown values are kept as-is so
// they fail IsGroup rather than being silently coerced.
func ParseChatKind(s string) ChatKind {
	return ChatKind(strings.ToLower(strings.TrimSpace(s)))
}

// IsGroup reports whether members can be enumerated for this kind of chat.
func (k ChatKind) IsGroup() bool {
	return k == ChatGroup || k == ChatSupergroup
}

// GroupContext identifies the chat a command was issued in. It is supplied
// per incoming command and never stored.
type GroupContext struct {
	ChatID    int64
	Kind      ChatKind
	Title     string
	MessageID int // message to reply to; 0 sends a standalone message
}

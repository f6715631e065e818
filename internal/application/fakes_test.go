package application_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"everyone-bot/internal/domain/model"
)

type sent struct {
	ChatID  int64
	ReplyTo int
	Text    string
	HTML    bool
}

// fakeMessenger records outbound messages. failHTMLAt makes the n-th HTML send
// (1-based) fail.
type fakeMessenger struct {
	mu         sync.Mutex
	out        []sent
	failHTMLAt int
	failText   error
	htmlCount  int
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, replyTo int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failText != nil {
		return f.failText
	}
	f.out = append(f.out, sent{ChatID: chatID, ReplyTo: replyTo, Text: text})
	return nil
}

func (f *fakeMessenger) SendHTML(ctx context.Context, chatID int64, replyTo int, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.htmlCount++
	if f.failHTMLAt > 0 && f.htmlCount == f.failHTMLAt {
		return fmt.Errorf("telegram: Bad Request: message is too long")
	}
	f.out = append(f.out, sent{ChatID: chatID, ReplyTo: replyTo, Text: html, HTML: true})
	return nil
}

func (f *fakeMessenger) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.out...)
}

// fakeDirectory serves a fixed member list.
type fakeDirectory struct {
	mu      sync.Mutex
	admins  []model.Member
	members []model.Member
	err     error
	calls   int
}

func (f *fakeDirectory) GetAdministrators(ctx context.Context, chatID int64) ([]model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.admins, f.err
}

func (f *fakeDirectory) GetMemberCount(ctx context.Context, chatID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return len(f.members), nil
}

func (f *fakeDirectory) GetMembers(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if offset >= len(f.members) {
		return nil, nil
	}
	return f.members[offset:min(offset+limit, len(f.members))], nil
}

type mapTranslator map[string]string

func (m mapTranslator) T(key string, args ...interface{}) string {
	v, ok := m[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(v, args...)
	}
	return v
}

var testTranslator = mapTranslator{
	"mention_header":      "Attention, everyone!",
	"error_group_only":    "This command can only be used in group chats.",
	"error_fetch_members": "An error occurred while fetching group members.",
	"error_rate_limited":  "slow down",
	"help":                "Send /%s in a group.",
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

func humans(n int) []model.Member {
	out := make([]model.Member, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.NewMember(int64(i+1), fmt.Sprintf("member %04d", i), "", "", false))
	}
	return out
}

func countMentions(html string) int {
	return strings.Count(html, `href="tg://user?id=`)
}

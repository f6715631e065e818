// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"everyone-bot/internal/domain/model"
)

// TelegramBotAdapter sends replies back to a chat. replyTo is the message id
// being answered; 0 sends a standalone message.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, replyTo int, text string) error
	SendHTML(ctx context.Context, chatID int64, replyTo int, html string) error
}

// ChatDirectory is the read side of the platform used to enumerate a group.
type ChatDirectory interface {
	GetAdministrators(ctx context.Context, chatID int64) ([]model.Member, error)
	GetMemberCount(ctx context.Context, chatID int64) (int, error)
	GetMembers(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error)
}

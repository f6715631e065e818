package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"everyone-bot/internal/domain/ports/adapter"
	"everyone-bot/internal/infra/logging"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for dry runs.
// It logs messages instead of sending them.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

// NewNoopBotAdapter constructs the noop adapter.
func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, replyTo int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Int("reply_to", replyTo).Str("text", text).Msg("[noop-telegram] message")
	return nil
}

func (b *NoopBotAdapter) SendHTML(ctx context.Context, chatID int64, replyTo int, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Int("reply_to", replyTo).Int("bytes", len(html)).Msg("[noop-telegram] html message")
	b.log.Debug().Int64("chat_id", chatID).Str("html", html).Msg("[noop-telegram] html body")
	return nil
}

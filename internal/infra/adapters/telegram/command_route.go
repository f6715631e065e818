package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/infra/logging"
	"everyone-bot/internal/infra/metrics"
)

// CommandFunc handles one bot command issued in a chat.
type CommandFunc func(ctx context.Context, gc model.GroupContext) error

// RegisterCommand binds name (with or without the leading slash, any case) to
// fn. Registering the same name again replaces the handler.
func (r *RealTelegramBotAdapter) RegisterCommand(name string, fn CommandFunc) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if key == "" || fn == nil {
		return
	}
	r.mu.Lock()
	r.commands[key] = fn
	r.mu.Unlock()
}

// route runs the handler for a command message. Commands addressed to another
// bot (/cmd@other_bot) and unknown commands are ignored.
func (r *RealTelegramBotAdapter) route(ctx context.Context, msg *tgbotapi.Message) error {
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}
	withAt := msg.CommandWithAt()
	if i := strings.Index(withAt, "@"); i >= 0 {
		if target := withAt[i+1:]; !strings.EqualFold(target, r.Username()) {
			return nil
		}
	}

	name := strings.ToLower(msg.Command())
	r.mu.RLock()
	fn, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	metrics.IncTelegramCommand("/" + name)

	ctx = logging.WithChatID(logging.NewTrace(ctx), msg.Chat.ID)
	if msg.From != nil {
		ctx = logging.WithUserID(ctx, msg.From.ID)
	}
	logging.With(ctx, r.log).Debug().Str("command", name).Str("chat_type", msg.Chat.Type).Msg("command received")

	return fn(ctx, model.GroupContext{
		ChatID:    msg.Chat.ID,
		Kind:      model.ParseChatKind(msg.Chat.Type),
		Title:     msg.Chat.Title,
		MessageID: msg.MessageID,
	})
}

package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/infra/metrics"
)

// observe records who is in a group from the traffic the bot sees: message
// senders, joins and leaves, and chat_member status changes. Failures are
// logged; they never block command handling.
func (r *RealTelegramBotAdapter) observe(ctx context.Context, up tgbotapi.Update) {
	if msg := up.Message; msg != nil && msg.Chat != nil && model.ParseChatKind(msg.Chat.Type).IsGroup() {
		seen := make([]model.Member, 0, 1+len(msg.NewChatMembers))
		if msg.From != nil {
			seen = append(seen, toMember(msg.From))
		}
		seen = append(seen, lo.Map(msg.NewChatMembers, func(u tgbotapi.User, _ int) model.Member {
			return toMember(&u)
		})...)
		r.remember(ctx, msg.Chat.ID, seen)
		if msg.LeftChatMember != nil {
			r.forget(ctx, msg.Chat.ID, msg.LeftChatMember.ID)
		}
	}

	if cm := up.ChatMember; cm != nil && cm.NewChatMember.User != nil {
		chatID := cm.Chat.ID
		switch cm.NewChatMember.Status {
		case "left", "kicked":
			r.forget(ctx, chatID, cm.NewChatMember.User.ID)
		default:
			r.remember(ctx, chatID, []model.Member{toMember(cm.NewChatMember.User)})
		}
	}
}

func (r *RealTelegramBotAdapter) remember(ctx context.Context, chatID int64, members []model.Member) {
	if len(members) == 0 {
		return
	}
	if err := r.roster.Remember(ctx, chatID, members...); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("roster remember failed")
		return
	}
	metrics.AddRosterObserved(len(members))
}

func (r *RealTelegramBotAdapter) forget(ctx context.Context, chatID, userID int64) {
	if err := r.roster.Forget(ctx, chatID, userID); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("roster forget failed")
	}
}

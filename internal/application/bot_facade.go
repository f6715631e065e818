package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/domain/ports/adapter"
	"everyone-bot/internal/infra/logging"
	"everyone-bot/internal/infra/metrics"
	"everyone-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// BotFacade maps use case results to chat replies. It is the only layer that
// decides what the user sees.
type BotFacade struct {
	MentionUC usecase.MentionUseCase

	bot     adapter.TelegramBotAdapter
	tr      Translator
	command string
	log     *zerolog.Logger

	limiter   RateLimiter
	rateLimit int
}

func NewBotFacade(mentionUC usecase.MentionUseCase, bot adapter.TelegramBotAdapter, tr Translator, command string, logger *zerolog.Logger) *BotFacade {
	if logger == nil {
		logger = logging.Nop()
	}
	return &BotFacade{
		MentionUC: mentionUC,
		bot:       bot,
		tr:        tr,
		command:   command,
		log:       logger,
	}
}

// WithRateLimiter caps mention commands per chat per minute.
func (b *BotFacade) WithRateLimiter(l RateLimiter, perMinute int) *BotFacade {
	b.limiter = l
	b.rateLimit = perMinute
	return b
}

// HandleEveryone answers the mention command. Usage and fetch problems become
// a single plain-text reply; only a failure to deliver that reply is returned.
func (b *BotFacade) HandleEveryone(ctx context.Context, gc model.GroupContext) error {
	logger := logging.With(logging.WithChatID(ctx, gc.ChatID), b.log)

	if gc.Kind.IsGroup() && !b.allow(ctx, gc.ChatID) {
		metrics.IncRateLimitTriggered()
		return b.bot.SendMessage(ctx, gc.ChatID, gc.MessageID, b.tr.T("error_rate_limited"))
	}

	res := b.MentionUC.Collect(ctx, gc)
	metrics.IncMentionOutcome(res.Outcome.String())

	switch res.Outcome {
	case model.MentionUsageError:
		return b.bot.SendMessage(ctx, gc.ChatID, gc.MessageID, b.tr.T("error_group_only"))
	case model.MentionFetchError:
		logger.Error().Err(res.Err).Msg("failed to collect members")
		return b.bot.SendMessage(ctx, gc.ChatID, gc.MessageID, b.tr.T("error_fetch_members"))
	}

	header := b.tr.T("mention_header")
	for i, chunk := range res.Chunks {
		if err := b.bot.SendHTML(ctx, gc.ChatID, gc.MessageID, usecase.RenderChunk(header, chunk)); err != nil {
			metrics.IncSendError()
			logger.Error().Err(err).Int("chunk", i).Int("chunks", len(res.Chunks)).Msg("failed to send mentions")
			if rerr := b.bot.SendMessage(ctx, gc.ChatID, gc.MessageID, b.tr.T("error_fetch_members")); rerr != nil {
				return errors.Join(err, rerr)
			}
			return nil
		}
		metrics.AddMentionsSent(chunk.Len())
	}
	logger.Info().Int("members", res.Members).Int("messages", len(res.Chunks)).Msg("mentioned everyone")
	return nil
}

// HandleHelp replies with a short usage line.
func (b *BotFacade) HandleHelp(ctx context.Context, gc model.GroupContext) error {
	return b.bot.SendMessage(ctx, gc.ChatID, gc.MessageID, b.tr.T("help", b.command))
}

// allow fails open: a broken limiter must not silence the command.
func (b *BotFacade) allow(ctx context.Context, chatID int64) bool {
	if b.limiter == nil || b.rateLimit <= 0 {
		return true
	}
	ok, err := b.limiter.Allow(ctx, rateKey(chatID, b.command), b.rateLimit, time.Minute)
	if err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("rate limit check failed")
		return true
	}
	return ok
}

func rateKey(chatID int64, command string) string {
	return fmt.Sprintf("rate_limit:chat:%d:%s", chatID, command)
}

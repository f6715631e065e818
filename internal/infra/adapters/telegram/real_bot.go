package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"everyone-bot/internal/config"
	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/domain/ports/adapter"
	"everyone-bot/internal/domain/ports/repository"
	"everyone-bot/internal/infra/logging"
	"everyone-bot/internal/infra/worker"
)

var (
	_ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)
	_ adapter.ChatDirectory      = (*RealTelegramBotAdapter)(nil)
)

// RealTelegramBotAdapter talks to the Bot API. It sends replies, answers
// directory queries from the observed roster, and owns the update transport.
type RealTelegramBotAdapter struct {
	bot    *tgbotapi.BotAPI
	cfg    *config.BotConfig
	roster repository.RosterRepository
	pool   *worker.Pool
	log    *zerolog.Logger

	mu            sync.RWMutex
	commands      map[string]CommandFunc
	cancelPolling context.CancelFunc

	// lifetime bounds every outgoing HTTP request; Stop cancels it.
	lifetime context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewRealTelegramBotAdapter builds the adapter without touching the network;
// Initialize validates the token.
func NewRealTelegramBotAdapter(cfg *config.BotConfig, roster repository.RosterRepository, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	return NewRealTelegramBotAdapterWithEndpoint(cfg, roster, logger, tgbotapi.APIEndpoint)
}

// NewRealTelegramBotAdapterWithEndpoint targets a custom Bot API server, in the
// "https://host/bot%s/%s" format.
func NewRealTelegramBotAdapterWithEndpoint(cfg *config.BotConfig, roster repository.RosterRepository, logger *zerolog.Logger, endpoint string) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	if roster == nil {
		return nil, errors.New("roster is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	lifetime, cancel := context.WithCancel(context.Background())
	client := &boundClient{
		inner: &http.Client{Timeout: time.Duration(cfg.PollTimeout+15) * time.Second},
		ctx:   lifetime,
	}
	bot := &tgbotapi.BotAPI{Token: cfg.Token, Client: client, Buffer: 100}
	bot.SetAPIEndpoint(endpoint)

	return &RealTelegramBotAdapter{
		bot:      bot,
		cfg:      cfg,
		roster:   roster,
		pool:     worker.NewPool(cfg.Workers, logger),
		log:      logger,
		commands: map[string]CommandFunc{},
		lifetime: lifetime,
		cancel:   cancel,
	}, nil
}

// boundClient ties tgbotapi requests to the adapter lifetime so Stop aborts a
// long poll in flight.
type boundClient struct {
	inner *http.Client
	ctx   context.Context
}

func (c *boundClient) Do(req *http.Request) (*http.Response, error) {
	return c.inner.Do(req.WithContext(c.ctx))
}

// Username returns the bot's @handle once Initialize has succeeded.
func (r *RealTelegramBotAdapter) Username() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bot.Self.UserName
}

// SendMessage sends plain text.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	return r.send(ctx, msg, replyTo)
}

// SendHTML sends text rendered with the HTML parse mode.
func (r *RealTelegramBotAdapter) SendHTML(ctx context.Context, chatID int64, replyTo int, html string) error {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return r.send(ctx, msg, replyTo)
}

func (r *RealTelegramBotAdapter) send(ctx context.Context, msg tgbotapi.MessageConfig, replyTo int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if replyTo > 0 {
		msg.ReplyToMessageID = replyTo
		msg.AllowSendingWithoutReply = true
	}
	if _, err := r.bot.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", msg.ChatID, err)
	}
	return nil
}

// GetAdministrators asks Telegram for the current admins and folds them into
// the roster so they are always part of the listing.
func (r *RealTelegramBotAdapter) GetAdministrators(ctx context.Context, chatID int64) ([]model.Member, error) {
	defer logging.TraceDuration(r.log, "TelegramAdapter.GetAdministrators")()

	admins, err := r.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, fmt.Errorf("get chat administrators: %w", err)
	}
	out := lo.FilterMap(admins, func(cm tgbotapi.ChatMember, _ int) (model.Member, bool) {
		if cm.User == nil {
			return model.Member{}, false
		}
		m := toMember(cm.User)
		m.IsAdmin = true
		return m, true
	})
	if err := r.roster.Remember(ctx, chatID, out...); err != nil {
		return nil, fmt.Errorf("remember administrators: %w", err)
	}
	return out, nil
}

// GetMemberCount reports the roster size, which is what GetMembers can page
// through. Telegram's own count is logged for comparison.
func (r *RealTelegramBotAdapter) GetMemberCount(ctx context.Context, chatID int64) (int, error) {
	n, err := r.roster.Count(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("roster count: %w", err)
	}
	if r.log.GetLevel() <= zerolog.DebugLevel {
		if reported, err := r.bot.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		}); err == nil {
			r.log.Debug().Int64("chat_id", chatID).Int("observed", n).Int("reported", reported).Msg("roster coverage")
		}
	}
	return n, nil
}

// GetMembers pages through the observed roster in first-seen order.
func (r *RealTelegramBotAdapter) GetMembers(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error) {
	members, err := r.roster.List(ctx, chatID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("roster list: %w", err)
	}
	return members, nil
}

func toMember(u *tgbotapi.User) model.Member {
	return model.NewMember(u.ID, u.FirstName, u.LastName, u.UserName, u.IsBot)
}

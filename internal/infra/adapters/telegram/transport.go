package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"everyone-bot/internal/domain"
	"everyone-bot/internal/infra/metrics"
	"everyone-bot/internal/infra/worker"
)

// allowedUpdates limits delivery to what the bot acts on. chat_member must be
// requested explicitly or Telegram withholds it.
var allowedUpdates = []string{"message", "chat_member"}

// DeleteWebhook removes any registered webhook. Telegram refuses getUpdates
// while one is set.
func (r *RealTelegramBotAdapter) DeleteWebhook(ctx context.Context, dropPending bool) error {
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// Initialize validates the token and starts the update workers. Safe to call
// again after a failed polling attempt.
func (r *RealTelegramBotAdapter) Initialize(ctx context.Context) error {
	me, err := r.bot.GetMe()
	if err != nil {
		return fmt.Errorf("get me: %w", classify(err))
	}
	r.mu.Lock()
	r.bot.Self = me
	r.mu.Unlock()
	r.pool.Start(r.lifetime)
	r.log.Info().Str("username", me.UserName).Int64("bot_id", me.ID).Msg("telegram bot authorized")
	return nil
}

// SetWebhook registers publicURL for update delivery.
func (r *RealTelegramBotAdapter) SetWebhook(ctx context.Context, publicURL string) error {
	wh, err := tgbotapi.NewWebhook(publicURL)
	if err != nil {
		return fmt.Errorf("parse webhook url: %w", err)
	}
	wh.AllowedUpdates = allowedUpdates
	if _, err := r.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// StartPolling long-polls getUpdates until ctx is done (returns nil) or
// Telegram fails a request. A 409 from Telegram is reported as
// domain.ErrPollConflict. A failure after at least one successful getUpdates
// is also wrapped in domain.ErrPollInterrupted.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, dropPending bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()

	offset := 0
	if dropPending {
		next, err := r.skipPending(ctx)
		if err != nil {
			if r.stopping(ctx) {
				return nil
			}
			return err
		}
		offset = next
	}

	healthy := false
	fail := func(err error) error {
		if r.stopping(ctx) {
			return nil
		}
		if healthy {
			return fmt.Errorf("%w: %w", domain.ErrPollInterrupted, err)
		}
		return err
	}
	for {
		if r.stopping(ctx) {
			return nil
		}
		updates, err := r.getUpdates(ctx, tgbotapi.UpdateConfig{
			Offset:         offset,
			Timeout:        r.cfg.PollTimeout,
			AllowedUpdates: allowedUpdates,
		})
		if err != nil {
			return fail(err)
		}
		healthy = true
		for _, up := range updates {
			if up.UpdateID >= offset {
				offset = up.UpdateID + 1
			}
			metrics.IncUpdate("polling")
			if err := r.dispatch(ctx, up); err != nil {
				return fail(err)
			}
		}
	}
}

func (r *RealTelegramBotAdapter) stopping(ctx context.Context) bool {
	return ctx.Err() != nil || r.lifetime.Err() != nil
}

// skipPending acknowledges everything queued before startup and returns the
// offset of the first fresh update.
func (r *RealTelegramBotAdapter) skipPending(ctx context.Context) (int, error) {
	updates, err := r.getUpdates(ctx, tgbotapi.UpdateConfig{Offset: -1, Limit: 1, AllowedUpdates: allowedUpdates})
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}
	last := updates[len(updates)-1].UpdateID
	r.log.Info().Int("skipped_up_to", last).Msg("dropped pending updates")
	return last + 1, nil
}

func (r *RealTelegramBotAdapter) getUpdates(ctx context.Context, cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	type result struct {
		updates []tgbotapi.Update
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		u, err := r.bot.GetUpdates(cfg)
		ch <- result{u, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("get updates: %w", classify(res.err))
		}
		return res.updates, nil
	}
}

// dispatch queues an update for the workers. Roster observation and command
// handling happen on the worker so a single worker preserves update order.
func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, up tgbotapi.Update) error {
	return r.pool.Submit(ctx, func(wctx context.Context) error {
		r.observe(wctx, up)
		if up.Message != nil {
			return r.route(wctx, up.Message)
		}
		return nil
	})
}

// WebhookHandler accepts updates pushed by Telegram.
func (r *RealTelegramBotAdapter) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		up, err := r.bot.HandleUpdate(req)
		if err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		metrics.IncUpdate("webhook")
		if err := r.dispatch(req.Context(), *up); err != nil {
			if errors.Is(err, worker.ErrPoolStopped) {
				http.Error(w, "shutting down", http.StatusServiceUnavailable)
				return
			}
			r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("webhook update not queued")
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Stop ends polling, aborts in-flight requests and waits for running handlers.
func (r *RealTelegramBotAdapter) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		if r.cancelPolling != nil {
			r.cancelPolling()
		}
		r.mu.Unlock()
		r.cancel()
		r.pool.Stop()
	})
}

// classify maps Telegram's 409 (another getUpdates consumer or an active
// webhook) to domain.ErrPollConflict.
func classify(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == http.StatusConflict {
		return fmt.Errorf("%w: %s", domain.ErrPollConflict, tgErr.Message)
	}
	return err
}

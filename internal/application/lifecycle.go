package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"everyone-bot/internal/config"
	"everyone-bot/internal/domain"
	"everyone-bot/internal/infra/logging"
	"everyone-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// State is a lifecycle controller state.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StatePolling      State = "polling"
	StateServing      State = "serving"
	StateConflict     State = "conflict"
	StateError        State = "error"
	StateBackoffWait  State = "backoff_wait"
	StateAbandoned    State = "abandoned"
	StateStopped      State = "stopped"
)

var allStates = []string{
	string(StateIdle), string(StateInitializing), string(StatePolling), string(StateServing),
	string(StateConflict), string(StateError), string(StateBackoffWait),
	string(StateAbandoned), string(StateStopped),
}

// LifecycleConfig is the subset of bot config the controller acts on.
type LifecycleConfig struct {
	Mode            string
	WebhookURL      string
	SettleDelay     time.Duration
	PollBackoff     time.Duration
	MaxPollAttempts int
}

// LifecycleFromConfig extracts the controller settings from bot config.
func LifecycleFromConfig(cfg config.BotConfig) LifecycleConfig {
	return LifecycleConfig{
		Mode:            cfg.Mode,
		WebhookURL:      cfg.WebhookURL,
		SettleDelay:     cfg.SettleDelay,
		PollBackoff:     cfg.PollBackoff,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}
}

// LifecycleController brings the bot online on the configured transport and
// keeps it there until ctx is cancelled.
type LifecycleController struct {
	transport BotTransport
	listener  Listener
	register  func()
	cfg       LifecycleConfig
	log       *zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	state State
}

// NewLifecycleController wires the controller. register is invoked once after
// the webhook teardown, before the transport starts; listener is only used in
// webhook mode.
func NewLifecycleController(transport BotTransport, listener Listener, cfg LifecycleConfig, register func(), logger *zerolog.Logger) *LifecycleController {
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 3
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &LifecycleController{
		transport: transport,
		listener:  listener,
		register:  register,
		cfg:       cfg,
		log:       logger,
		sleep:     sleepCtx,
		state:     StateIdle,
	}
}

// State returns the current state.
func (c *LifecycleController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *LifecycleController) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	metrics.SetLifecycleState(string(s), allStates)
	if prev != s {
		c.log.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("lifecycle transition")
	}
}

// Run blocks until ctx is cancelled or the transport gives up. Abandoning
// polling after the retry bound is not an error; check State for
// StateAbandoned. The transport is always stopped before Run returns.
func (c *LifecycleController) Run(ctx context.Context) error {
	defer c.transport.Stop()
	c.setState(StateIdle)

	if err := c.transport.DeleteWebhook(ctx, true); err != nil {
		c.setState(StateError)
		return fmt.Errorf("delete webhook: %w", err)
	}
	if err := c.sleep(ctx, c.cfg.SettleDelay); err != nil {
		c.setState(StateStopped)
		return nil
	}
	if c.register != nil {
		c.register()
	}

	switch c.cfg.Mode {
	case config.ModeWebhook:
		return c.runWebhook(ctx)
	case config.ModePolling:
		return c.runPolling(ctx)
	default:
		c.setState(StateError)
		return fmt.Errorf("%w: %q", domain.ErrUnknownMode, c.cfg.Mode)
	}
}

func (c *LifecycleController) runWebhook(ctx context.Context) error {
	if c.listener == nil {
		return errors.New("webhook mode requires a listener")
	}
	c.setState(StateInitializing)
	if err := c.transport.Initialize(ctx); err != nil {
		c.setState(StateError)
		return fmt.Errorf("initialize: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- c.listener.ListenAndServe(lctx) }()

	if err := c.transport.SetWebhook(ctx, c.cfg.WebhookURL); err != nil {
		cancel()
		<-errCh
		c.setState(StateError)
		return fmt.Errorf("set webhook: %w", err)
	}
	c.setState(StateServing)
	c.log.Info().Str("url", c.cfg.WebhookURL).Msg("webhook registered")

	select {
	case <-ctx.Done():
		<-errCh
		c.setState(StateStopped)
		return nil
	case err := <-errCh:
		if err != nil {
			c.setState(StateError)
			return fmt.Errorf("webhook listener: %w", err)
		}
		c.setState(StateStopped)
		return nil
	}
}

func (c *LifecycleController) runPolling(ctx context.Context) error {
	attempts := 0
	for {
		c.setState(StateInitializing)
		err := c.transport.Initialize(ctx)
		if err == nil {
			c.setState(StatePolling)
			metrics.IncPollAttempt("ok")
			c.log.Info().Int("attempt", attempts+1).Msg("polling started")
			err = c.transport.StartPolling(ctx, true)
		}
		if ctx.Err() != nil || err == nil {
			c.setState(StateStopped)
			return nil
		}

		if errors.Is(err, domain.ErrPollInterrupted) {
			// only consecutive failures count toward the bound
			attempts = 0
		}
		attempts++
		if errors.Is(err, domain.ErrPollConflict) {
			c.setState(StateConflict)
			metrics.IncPollAttempt("conflict")
			c.log.Warn().Err(err).Int("attempt", attempts).Msg("polling conflict")
		} else {
			c.setState(StateError)
			metrics.IncPollAttempt("error")
			c.log.Warn().Err(err).Int("attempt", attempts).Msg("polling failed")
		}

		if attempts >= c.cfg.MaxPollAttempts {
			c.setState(StateAbandoned)
			c.log.Error().
				Err(fmt.Errorf("%w: %w", domain.ErrRetriesExhausted, err)).
				Int("attempts", attempts).
				Msg("giving up on polling")
			return nil
		}

		c.setState(StateBackoffWait)
		if err := c.sleep(ctx, c.cfg.PollBackoff); err != nil {
			c.setState(StateStopped)
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

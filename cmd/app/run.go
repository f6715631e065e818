package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"everyone-bot/internal/application"
	"everyone-bot/internal/config"
	"everyone-bot/internal/domain"
	"everyone-bot/internal/domain/ports/adapter"
	"everyone-bot/internal/domain/ports/repository"
	tele "everyone-bot/internal/infra/adapters/telegram"
	httpapi "everyone-bot/internal/infra/http"
	"everyone-bot/internal/infra/i18n"
	"everyone-bot/internal/infra/logging"
	"everyone-bot/internal/infra/memory"
	"everyone-bot/internal/infra/metrics"
	red "everyone-bot/internal/infra/redis"
	"everyone-bot/internal/usecase"
)

func run(parent context.Context, opts *options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Config ----
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadConfig(opts.configPath, opts.dev)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().
		Str("version", version).
		Str("mode", cfg.Bot.Mode).
		Str("token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Bool("dry_run", opts.dryRun).
		Msg("starting")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.Bot.Mode)

	// ---- Storage ----
	roster, limiter, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ---- i18n ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Mention.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Telegram ----
	bot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, roster, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	var messenger adapter.TelegramBotAdapter = bot
	if opts.dryRun {
		messenger = tele.NewNoopBotAdapter(logger)
	}

	// ---- Use cases & facade ----
	mentionUC := usecase.NewMentionUseCase(bot, cfg.Mention.PageSize, cfg.Mention.ChunkSize, logger)
	facade := application.NewBotFacade(mentionUC, messenger, tr, cfg.Bot.Command, logger)
	if limiter != nil {
		facade.WithRateLimiter(limiter, cfg.Bot.RateLimitPerMinute)
	}

	register := func() {
		bot.RegisterCommand(cfg.Bot.Command, facade.HandleEveryone)
		bot.RegisterCommand("help", facade.HandleHelp)
		bot.RegisterCommand("start", facade.HandleHelp)
	}

	// ---- HTTP ----
	lc := application.LifecycleFromConfig(cfg.Bot)
	var listener application.Listener
	switch {
	case cfg.Bot.Mode == config.ModeWebhook:
		hookURL, route, err := httpapi.WebhookEndpoint(cfg.Bot.WebhookURL)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		lc.WebhookURL = hookURL
		srv := httpapi.NewServer(cfg.Bot.Addr(), logger)
		srv.MountWebhook(route, bot.WebhookHandler())
		listener = srv
	case cfg.Admin.Port > 0:
		admin := httpapi.NewServer(fmt.Sprintf(":%d", cfg.Admin.Port), logger)
		go func() {
			if err := admin.ListenAndServe(ctx); err != nil {
				logger.Error().Err(err).Msg("admin http server stopped")
			}
		}()
	}

	// ---- Lifecycle ----
	ctrl := application.NewLifecycleController(bot, listener, lc, register, logger)
	if err := ctrl.Run(ctx); err != nil {
		return err
	}
	if ctrl.State() == application.StateAbandoned {
		return domain.ErrRetriesExhausted
	}
	logger.Info().Msg("shutdown complete")
	return nil
}

// openStore picks Redis when configured, otherwise an in-memory roster with no
// rate limiting.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.RosterRepository, application.RateLimiter, func(), error) {
	if cfg.Redis.URL == "" {
		logger.Warn().Msg("redis.url not set; roster is kept in memory and rate limiting is off")
		return memory.NewRosterRepo(), nil, func() {}, nil
	}
	client, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("redis close")
		}
	}
	return red.NewRosterRepo(client, cfg.Redis.TTL), red.NewRateLimiter(client), closeFn, nil
}

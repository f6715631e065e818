// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

var validate = validator.New()

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string `yaml:"token" env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"` // production => webhook when mode is unset
	Mode        string `yaml:"mode" env:"BOT_MODE" validate:"oneof=polling webhook"`
	Port        int    `yaml:"port" env:"PORT" validate:"required_if=Mode webhook,omitempty,min=1,max=65535"`
	WebhookURL  string `yaml:"webhook_url" env:"WEBHOOK_URL" validate:"required_if=Mode webhook,omitempty,url"`
	Command     string `yaml:"command" env:"BOT_COMMAND" validate:"required,alphanum"`

	SettleDelay     time.Duration `yaml:"settle_delay" env:"BOT_SETTLE_DELAY"`
	PollTimeout     int           `yaml:"poll_timeout" env:"BOT_POLL_TIMEOUT"` // seconds, long-poll window
	PollBackoff     time.Duration `yaml:"poll_backoff" env:"BOT_POLL_BACKOFF"`
	MaxPollAttempts int           `yaml:"max_poll_attempts" env:"BOT_MAX_POLL_ATTEMPTS" validate:"min=1"`

	Workers            int `yaml:"workers" env:"BOT_WORKERS" validate:"min=1"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"BOT_RATE_LIMIT_PER_MINUTE"`
}

type MentionConfig struct {
	PageSize  int    `yaml:"page_size" env:"MENTION_PAGE_SIZE" validate:"min=1,max=200"`
	ChunkSize int    `yaml:"chunk_size" env:"MENTION_CHUNK_SIZE" validate:"min=1,max=100"`
	Language  string `yaml:"language" env:"BOT_LANGUAGE"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling" env:"LOG_SAMPLING"`
}

type AdminConfig struct {
	Port int `yaml:"port" env:"ADMIN_PORT" validate:"omitempty,min=1,max=65535"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_ROSTER_TTL"` // roster expiry after last activity
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Mention MentionConfig `yaml:"mention"`
	Log     LogConfig     `yaml:"log"`
	Admin   AdminConfig   `yaml:"admin"`
	Redis   RedisConfig   `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file at path, applies environment
// overrides, fills defaults and validates the result. A missing file is not
// an error so the bot can run from the environment alone.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Bot.Mode = strings.ToLower(strings.TrimSpace(cfg.Bot.Mode))
	if cfg.Bot.Mode == "" {
		if strings.EqualFold(strings.TrimSpace(cfg.Bot.Environment), "production") {
			cfg.Bot.Mode = ModeWebhook
		} else {
			cfg.Bot.Mode = ModePolling
		}
	}
	cfg.Bot.Command = strings.TrimPrefix(strings.TrimSpace(cfg.Bot.Command), "/")
	if cfg.Bot.Command == "" {
		cfg.Bot.Command = "everyone"
	}
	if cfg.Bot.Mode == ModeWebhook && cfg.Bot.Port == 0 {
		cfg.Bot.Port = 8443
	}
	if cfg.Bot.SettleDelay < 0 {
		cfg.Bot.SettleDelay = 0
	} else if cfg.Bot.SettleDelay == 0 {
		cfg.Bot.SettleDelay = time.Second
	}
	if cfg.Bot.PollTimeout <= 0 {
		cfg.Bot.PollTimeout = 60
	}
	if cfg.Bot.PollBackoff <= 0 {
		cfg.Bot.PollBackoff = 5 * time.Second
	}
	if cfg.Bot.MaxPollAttempts <= 0 {
		cfg.Bot.MaxPollAttempts = 3
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 1
	}
	if cfg.Bot.RateLimitPerMinute <= 0 {
		cfg.Bot.RateLimitPerMinute = 5
	}

	if cfg.Mention.PageSize <= 0 {
		cfg.Mention.PageSize = 200
	}
	if cfg.Mention.ChunkSize <= 0 {
		cfg.Mention.ChunkSize = 100
	}
	if cfg.Mention.Language == "" {
		cfg.Mention.Language = "en"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
}

// Addr returns the listen address for the webhook listener.
func (b BotConfig) Addr() string {
	return fmt.Sprintf(":%d", b.Port)
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

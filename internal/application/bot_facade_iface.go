package application

import (
	"context"
	"time"
)

// ---- small interfaces to decouple the application layer from infra ----

// Translator resolves user-facing strings.
type Translator interface {
	T(key string, args ...interface{}) string
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BotTransport is the platform client as seen by the lifecycle controller.
type BotTransport interface {
	DeleteWebhook(ctx context.Context, dropPending bool) error
	Initialize(ctx context.Context) error
	// StartPolling blocks until ctx is done (nil) or polling fails.
	StartPolling(ctx context.Context, dropPending bool) error
	SetWebhook(ctx context.Context, publicURL string) error
	Stop()
}

// Listener serves inbound HTTP until ctx is done.
type Listener interface {
	ListenAndServe(ctx context.Context) error
}

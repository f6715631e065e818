package repository

import (
	"context"

	"everyone-bot/internal/domain/model"
)

// -----------------------------
// Member roster
// -----------------------------

// RosterRepository keeps the members a bot has observed per chat, in first-seen
// order. It backs member listing since the Bot API cannot enumerate a group.
type RosterRepository interface {
	Remember(ctx context.Context, chatID int64, members ...model.Member) error
	Forget(ctx context.Context, chatID int64, userIDs ...int64) error
	List(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error)
	Count(ctx context.Context, chatID int64) (int, error)
}

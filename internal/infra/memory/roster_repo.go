// Package memory holds process-local repositories used when no Redis is
// configured.
package memory

import (
	"context"
	"sync"

	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/domain/ports/repository"
)

var _ repository.RosterRepository = (*RosterRepo)(nil)

type chatRoster struct {
	order   []int64
	members map[int64]model.Member
}

// RosterRepo keeps rosters in memory. Contents are lost on restart.
type RosterRepo struct {
	mu    sync.RWMutex
	chats map[int64]*chatRoster
}

func NewRosterRepo() *RosterRepo {
	return &RosterRepo{chats: make(map[int64]*chatRoster)}
}

func (r *RosterRepo) Remember(ctx context.Context, chatID int64, members ...model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		c = &chatRoster{members: make(map[int64]model.Member)}
		r.chats[chatID] = c
	}
	for _, m := range members {
		m.IsAdmin = false
		if _, seen := c.members[m.UserID]; !seen {
			c.order = append(c.order, m.UserID)
		}
		c.members[m.UserID] = m
	}
	return nil
}

func (r *RosterRepo) Forget(ctx context.Context, chatID int64, userIDs ...int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return nil
	}
	for _, id := range userIDs {
		delete(c.members, id)
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := c.members[id]; ok {
			kept = append(kept, id)
		}
	}
	c.order = kept
	return nil
}

func (r *RosterRepo) List(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[chatID]
	if !ok || offset < 0 || limit <= 0 || offset >= len(c.order) {
		return nil, nil
	}
	ids := c.order[offset:min(offset+limit, len(c.order))]
	out := make([]model.Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.members[id])
	}
	return out, nil
}

func (r *RosterRepo) Count(ctx context.Context, chatID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.chats[chatID]; ok {
		return len(c.order), nil
	}
	return 0, nil
}

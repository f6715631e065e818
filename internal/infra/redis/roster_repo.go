package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/samber/lo"
)

var _ repository.RosterRepository = (*RosterRepo)(nil)

// RosterRepo stores each chat's roster in two keys: a sorted set ordering
// user ids by first sighting, and a hash with the member records. Both keys
// expire ttl after the last write.
type RosterRepo struct {
	client *Client
	ttl    time.Duration
}

func NewRosterRepo(client *Client, ttl time.Duration) *RosterRepo {
	return &RosterRepo{client: client, ttl: ttl}
}

type rosterEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

func orderKey(chatID int64) string   { return fmt.Sprintf("roster:%d:order", chatID) }
func membersKey(chatID int64) string { return fmt.Sprintf("roster:%d:members", chatID) }

// Remember adds unseen members at the end and refreshes the stored names of
// known ones without moving them.
func (r *RosterRepo) Remember(ctx context.Context, chatID int64, members ...model.Member) error {
	if len(members) == 0 {
		return nil
	}
	base := float64(time.Now().UnixMicro())
	zs := make([]*redis.Z, 0, len(members))
	fields := make([]interface{}, 0, 2*len(members))
	for i, m := range members {
		b, err := json.Marshal(rosterEntry{ID: m.UserID, Name: m.DisplayName, Username: m.Username, Bot: m.IsBot})
		if err != nil {
			return err
		}
		id := strconv.FormatInt(m.UserID, 10)
		zs = append(zs, &redis.Z{Score: base + float64(i), Member: id})
		fields = append(fields, id, b)
	}

	pipe := r.client.cli.TxPipeline()
	pipe.ZAddNX(ctx, orderKey(chatID), zs...)
	pipe.HSet(ctx, membersKey(chatID), fields...)
	if r.ttl > 0 {
		pipe.Expire(ctx, orderKey(chatID), r.ttl)
		pipe.Expire(ctx, membersKey(chatID), r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RosterRepo) Forget(ctx context.Context, chatID int64, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	ids := lo.Map(userIDs, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })

	pipe := r.client.cli.TxPipeline()
	pipe.ZRem(ctx, orderKey(chatID), lo.ToAnySlice(ids)...)
	pipe.HDel(ctx, membersKey(chatID), ids...)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns a full page whenever the roster holds enough members. Order
// entries whose record is missing are removed and the page is read again.
func (r *RosterRepo) List(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error) {
	if offset < 0 || limit <= 0 {
		return nil, nil
	}
	for attempt := 0; attempt < 3; attempt++ {
		page, orphans, err := r.page(ctx, chatID, offset, limit)
		if err != nil {
			return nil, err
		}
		if len(orphans) == 0 {
			return page, nil
		}
		if err := r.client.cli.ZRem(ctx, orderKey(chatID), orphans...).Err(); err != nil {
			return nil, fmt.Errorf("drop orphaned roster entries: %w", err)
		}
	}
	return nil, fmt.Errorf("roster %d: order and member records keep diverging", chatID)
}

func (r *RosterRepo) page(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, []interface{}, error) {
	ids, err := r.client.cli.ZRange(ctx, orderKey(chatID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}
	vals, err := r.client.cli.HMGet(ctx, membersKey(chatID), ids...).Result()
	if err != nil {
		return nil, nil, err
	}

	out := make([]model.Member, 0, len(vals))
	var orphans []interface{}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			orphans = append(orphans, ids[i])
			continue
		}
		var e rosterEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, nil, fmt.Errorf("decode roster entry %s: %w", ids[i], err)
		}
		out = append(out, model.Member{UserID: e.ID, DisplayName: e.Name, Username: e.Username, IsBot: e.Bot})
	}
	return out, orphans, nil
}

func (r *RosterRepo) Count(ctx context.Context, chatID int64) (int, error) {
	n, err := r.client.cli.ZCard(ctx, orderKey(chatID)).Result()
	return int(n), err
}

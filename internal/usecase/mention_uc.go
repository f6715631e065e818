package usecase

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"everyone-bot/internal/domain"
	"everyone-bot/internal/domain/model"
	"everyone-bot/internal/domain/ports/adapter"
	"everyone-bot/internal/infra/logging"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	// MaxPageSize is the largest member page Telegram-style directories serve.
	MaxPageSize = 200
	// MaxChunkSize bounds mentions per outbound message.
	MaxChunkSize = 100
)

// Compile-time check
var _ MentionUseCase = (*mentionUC)(nil)

// MentionUseCase collects the ordered, chunked mention list for a chat.
type MentionUseCase interface {
	Collect(ctx context.Context, gc model.GroupContext) model.MentionResult
}

type mentionUC struct {
	dir       adapter.ChatDirectory
	pageSize  int
	chunkSize int
	log       *zerolog.Logger
}

func NewMentionUseCase(dir adapter.ChatDirectory, pageSize, chunkSize int, logger *zerolog.Logger) *mentionUC {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &mentionUC{dir: dir, pageSize: pageSize, chunkSize: chunkSize, log: logger}
}

// Collect never touches the directory for non-group chats. Any directory
// failure discards everything fetched so far and yields MentionFetchError.
func (u *mentionUC) Collect(ctx context.Context, gc model.GroupContext) model.MentionResult {
	defer logging.TraceDuration(u.log, "MentionUC.Collect")()

	if !gc.Kind.IsGroup() {
		return model.MentionResult{Outcome: model.MentionUsageError, Err: domain.ErrNotGroupChat}
	}

	members, err := u.fetchMembers(ctx, gc.ChatID)
	if err != nil {
		return model.MentionResult{
			Outcome: model.MentionFetchError,
			Err:     fmt.Errorf("%w: %w", domain.ErrFetchMembers, err),
		}
	}

	orderMembers(members)
	mentions := lo.Map(members, func(m model.Member, _ int) string { return RenderMention(m) })
	chunks := lo.Map(lo.Chunk(mentions, u.chunkSize), func(c []string, _ int) model.ReplyChunk {
		return model.ReplyChunk{Mentions: c}
	})

	u.log.Debug().
		Int64("chat_id", gc.ChatID).
		Int("members", len(members)).
		Int("chunks", len(chunks)).
		Msg("mentions collected")

	return model.MentionResult{Outcome: model.MentionSuccess, Chunks: chunks, Members: len(members)}
}

func (u *mentionUC) fetchMembers(ctx context.Context, chatID int64) ([]model.Member, error) {
	admins, err := u.dir.GetAdministrators(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list administrators: %w", err)
	}
	adminIDs := lo.SliceToMap(admins, func(m model.Member) (int64, struct{}) {
		return m.UserID, struct{}{}
	})

	total, err := u.dir.GetMemberCount(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("member count: %w", err)
	}

	members := make([]model.Member, 0, min(total, 4*u.pageSize))
	for offset := 0; len(members) < total; offset += u.pageSize {
		page, err := u.dir.GetMembers(ctx, chatID, offset, u.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list members at offset %d: %w", offset, err)
		}
		members = append(members, page...)
		// a short page means the directory is exhausted
		if len(page) < u.pageSize {
			break
		}
	}

	members = lo.UniqBy(members, func(m model.Member) int64 { return m.UserID })
	members = lo.Filter(members, func(m model.Member, _ int) bool { return !m.IsBot })
	for i := range members {
		_, members[i].IsAdmin = adminIDs[members[i].UserID]
	}
	return members, nil
}

// orderMembers sorts admins first, then by display name ignoring case.
// Equal keys keep their fetch order.
func orderMembers(members []model.Member) {
	slices.SortStableFunc(members, func(a, b model.Member) int {
		if a.IsAdmin != b.IsAdmin {
			if a.IsAdmin {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.SortKey(), b.SortKey())
	})
}

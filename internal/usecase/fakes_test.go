package usecase

import (
	"context"
	"fmt"
	"sync"

	"everyone-bot/internal/domain/model"
)

// fakeDirectory is an in-memory ChatDirectory that records every call.
type fakeDirectory struct {
	mu sync.Mutex

	admins  []model.Member
	members []model.Member
	count   int // reported member count; defaults to len(members) when negative

	adminErr  error
	countErr  error
	pageErr   error
	failAtOff int // offset at which GetMembers fails when pageErr is set

	calls   []string
	offsets []int
}

func newFakeDirectory(admins, members []model.Member) *fakeDirectory {
	return &fakeDirectory{admins: admins, members: members, count: -1, failAtOff: -1}
}

func (f *fakeDirectory) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDirectory) GetAdministrators(ctx context.Context, chatID int64) ([]model.Member, error) {
	f.record("admins")
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return append([]model.Member(nil), f.admins...), nil
}

func (f *fakeDirectory) GetMemberCount(ctx context.Context, chatID int64) (int, error) {
	f.record("count")
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.count < 0 {
		return len(f.members), nil
	}
	return f.count, nil
}

func (f *fakeDirectory) GetMembers(ctx context.Context, chatID int64, offset, limit int) ([]model.Member, error) {
	f.record(fmt.Sprintf("members:%d:%d", offset, limit))
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()
	if f.pageErr != nil && (f.failAtOff < 0 || f.failAtOff == offset) {
		return nil, f.pageErr
	}
	if offset >= len(f.members) {
		return nil, nil
	}
	end := min(offset+limit, len(f.members))
	return append([]model.Member(nil), f.members[offset:end]...), nil
}

// makeMembers builds n human members named "user-000".."user-<n-1>" with ids from base.
func makeMembers(base int64, n int) []model.Member {
	out := make([]model.Member, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.NewMember(base+int64(i), fmt.Sprintf("user-%03d", i), "", "", false))
	}
	return out
}

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewPool(1, nil)
	p.Start(context.Background())

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		i := i
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	wg.Wait()
	p.Stop()

	for i := range got {
		assert.Equal(t, i, got[i])
	}
	assert.Len(t, got, 20)
}

func TestPool_TaskErrorsDoNotStopWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewPool(2, nil)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error { return errors.New("boom") }))
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error { close(done); return nil }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second task never ran")
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, nil)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_SubmitBlocksUntilContextDone(t *testing.T) {
	p := NewPool(1, nil) // not started: queue of 4 fills up
	for i := 0; i < 4; i++ {
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error { return nil }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Error(t, p.Submit(context.Background(), nil))
}

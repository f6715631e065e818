// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"

	"everyone-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// A small worker pool for inbound updates. With one worker tasks run strictly
// in submission order.

type Task func(ctx context.Context) error

var ErrPoolStopped = errors.New("worker pool stopped")

type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
	log  *zerolog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pool{jobs: make(chan Task, workers*4), quit: make(chan struct{}), n: workers, log: logger}
}

// Start launches the workers once; later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.n; i++ {
			p.wg.Add(1)
			go func(id int) {
				defer p.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case <-p.quit:
						return
					case task := <-p.jobs:
						if task == nil {
							continue
						}
						if err := task(ctx); err != nil {
							p.log.Error().Err(err).Int("worker", id).Msg("task error")
						}
					}
				}
			}(i)
		}
	})
}

// Stop signals workers and waits for the running tasks. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit blocks while the queue is full. Updates are never dropped silently.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}
	select {
	case p.jobs <- task:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

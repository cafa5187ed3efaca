package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware unit of work.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission and panic logging.
type Pool struct {
	pool   *ants.Pool
	name   string
	logger *zap.Logger
}

// NewPool creates a bounded pool. Submit blocks while all workers are busy.
func NewPool(name string, size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		size = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{name: name, logger: logger}
	antsPool, err := ants.NewPool(size,
		ants.WithPanicHandler(func(r interface{}) {
			logger.Error("worker panic recovered", zap.String("pool", name), zap.Any("panic", r), zap.Stack("stack"))
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	p.pool = antsPool
	return p, nil
}

// Submit queues task. A context cancelled before the task starts skips it.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		select {
		case <-ctx.Done():
			p.logger.Debug("task skipped: context cancelled", zap.String("pool", p.name), zap.Error(ctx.Err()))
			return
		default:
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Shutdown waits up to timeout for running tasks, then releases the workers.
func (p *Pool) Shutdown(timeout time.Duration) {
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("worker pool shutdown timeout", zap.String("pool", p.name), zap.Error(err))
	}
}

// Running reports the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

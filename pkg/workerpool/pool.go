package workerpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

const (
	defaultSize    = 16
	defaultTimeout = 5 * time.Second
)

// ErrTimeout is the cause attached to operations abandoned after the pool timeout.
var ErrTimeout = errors.New("storage operation timed out")

// Pool bounds how many blocking storage calls run at once and how long a
// caller waits for one.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	metrics *metrics.StorageMetrics
}

// New builds a pool. Non-positive values fall back to 16 slots and a 5s timeout.
func New(size int, timeout time.Duration, m *metrics.StorageMetrics) *Pool {
	if size <= 0 {
		size = defaultSize
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(size)),
		timeout: timeout,
		metrics: m,
	}
}

// WithTimeout returns a view of the pool that shares its slots and metrics
// but waits up to timeout per operation. Bulk writes use it.
func (p *Pool) WithTimeout(timeout time.Duration) *Pool {
	if p == nil || timeout <= 0 {
		return p
	}
	return &Pool{sem: p.sem, timeout: timeout, metrics: p.metrics}
}

type result[T any] struct {
	value T
	err   error
}

// Do runs fn on the pool and waits for its result. The slot stays occupied
// until fn returns, even when the caller has already given up on it.
// A nil pool runs fn inline.
func Do[T any](ctx context.Context, p *Pool, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p == nil {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	waitStart := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		cancel()
		return zero, p.abandoned(ctx, op, err)
	}
	p.metrics.ObserveWait(time.Since(waitStart))
	p.metrics.Acquired()

	done := make(chan result[T], 1)
	go func() {
		defer cancel()
		defer p.sem.Release(1)
		defer p.metrics.Released()

		start := time.Now()
		value, err := fn(ctx)
		p.metrics.ObserveOperation(op, err, time.Since(start))
		done <- result[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		return zero, p.abandoned(ctx, op, ctx.Err())
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p *Pool, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (p *Pool) abandoned(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.metrics.IncTimeout(op)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%s: %w", op, ErrTimeout), ErrTimeout.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storage operation canceled")
}

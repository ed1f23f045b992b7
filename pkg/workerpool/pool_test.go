package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsResult(t *testing.T) {
	pool := New(2, time.Second, nil)
	got, err := Do(context.Background(), pool, "test", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestDoPropagatesError(t *testing.T) {
	pool := New(2, time.Second, nil)
	boom := errors.New("boom")
	_, err := Do(context.Background(), pool, "test", func(ctx context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
}

func TestDoTimesOutStuckOperation(t *testing.T) {
	pool := New(1, 20*time.Millisecond, nil)
	release := make(chan struct{})
	defer close(release)

	_, err := Do(context.Background(), pool, "stuck", func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.ErrorIs(t, err, ErrTimeout)
}

func TestWithTimeoutOutlastsBaseDeadline(t *testing.T) {
	pool := New(1, 10*time.Millisecond, nil)
	slow := func(ctx context.Context) (int, error) {
		select {
		case <-time.After(40 * time.Millisecond):
			return 7, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	_, err := Do(context.Background(), pool, "short", slow)
	require.ErrorIs(t, err, ErrTimeout)

	got, err := Do(context.Background(), pool.WithTimeout(time.Second), "long", slow)
	require.NoError(t, err)
	require.Equal(t, 7, got)

	require.Same(t, pool, pool.WithTimeout(0))
	require.Nil(t, (*Pool)(nil).WithTimeout(time.Second))
}

func TestDoBoundsConcurrency(t *testing.T) {
	pool := New(2, time.Second, nil)
	var current, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = Run(context.Background(), pool, "bounded", func(ctx context.Context) error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDoCanceledParent(t *testing.T) {
	pool := New(1, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, pool, "canceled", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	require.False(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNilPoolRunsInline(t *testing.T) {
	got, err := Do(context.Background(), nil, "inline", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, got)
}

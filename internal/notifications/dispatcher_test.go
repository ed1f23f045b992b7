package notifications

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	name  string
	err   error
	panic bool
	delay time.Duration

	mu     sync.Mutex
	events []Event
	ctxErr error
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) Handle(ctx context.Context, ev Event) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.ctxErr = ctx.Err()
	h.mu.Unlock()
	if h.panic {
		panic("hook exploded")
	}
	return h.err
}

func (h *recordingHook) received() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestDispatchIsolatesHookFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	failing := &recordingHook{name: "failing", err: errors.New("webhook down")}
	panicking := &recordingHook{name: "panicking", panic: true}
	healthy := &recordingHook{name: "healthy"}

	d := NewDispatcher(testLogger(), metrics.NewNotificationMetrics(reg), time.Second, failing, nil, panicking, healthy)
	ev := Event{Kind: KindDataCreated, Entity: "作物", Subject: "トマト", Actor: Actor{ID: 1, Username: "taro"}}
	d.Dispatch(context.Background(), ev)
	d.Wait()

	for _, hook := range []*recordingHook{failing, panicking, healthy} {
		got := hook.received()
		require.Len(t, got, 1, hook.name)
		require.Equal(t, ev, got[0])
	}

	require.Equal(t, 1.0, deliveries(t, reg, "healthy", "ok"))
	require.Equal(t, 1.0, deliveries(t, reg, "failing", "error"))
	require.Equal(t, 1.0, deliveries(t, reg, "panicking", "error"))
}

func TestDispatchDoesNotBlockOrInheritCancellation(t *testing.T) {
	slow := &recordingHook{name: "slow", delay: 50 * time.Millisecond}
	d := NewDispatcher(testLogger(), nil, time.Second, slow)

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	d.Dispatch(ctx, Event{Kind: KindUserLoggedIn})
	require.Less(t, time.Since(start), 40*time.Millisecond)
	cancel()

	d.Wait()
	require.Len(t, slow.received(), 1)
	require.NoError(t, slow.ctxErr)
}

func TestDispatchWithoutHooksIsNoop(t *testing.T) {
	var nilDispatcher *Dispatcher
	nilDispatcher.Dispatch(context.Background(), Event{Kind: KindDataDeleted})
	nilDispatcher.Wait()

	d := NewDispatcher(nil, nil, 0)
	d.Dispatch(context.Background(), Event{Kind: KindDataDeleted})
	d.Wait()
}

func deliveries(t *testing.T, reg *prometheus.Registry, hook, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "agridiary_notification_deliveries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["hook"] == hook && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"go.uber.org/multierr"
)

const defaultHookTimeout = 10 * time.Second

// Hook performs one best-effort side effect for an event.
type Hook interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

// Publisher is what services depend on to announce committed changes.
type Publisher interface {
	Dispatch(ctx context.Context, ev Event)
}

// Dispatcher fans events out to its hooks in the background. A failing or
// panicking hook is logged and counted; it never affects other hooks or the caller.
type Dispatcher struct {
	hooks   []Hook
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher. Nil hooks are skipped.
func NewDispatcher(logg *logger.Logger, m *metrics.NotificationMetrics, timeout time.Duration, hooks ...Hook) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}
	d := &Dispatcher{logg: logg, metrics: m, timeout: timeout}
	for _, hook := range hooks {
		if hook != nil {
			d.hooks = append(d.hooks, hook)
		}
	}
	return d
}

// Dispatch starts every hook for ev and returns immediately. Hooks outlive the
// request that triggered them.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	if d == nil || len(d.hooks) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)

	errs := make([]error, len(d.hooks))
	var group sync.WaitGroup
	for i, hook := range d.hooks {
		group.Add(1)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer group.Done()
			errs[i] = d.run(detached, hook, ev)
		}()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		group.Wait()
		if err := multierr.Combine(errs...); err != nil && d.logg != nil {
			logCtx := d.logg.WithFields(detached, map[string]any{
				"event":    string(ev.Kind),
				"failures": len(multierr.Errors(err)),
				"hooks":    len(d.hooks),
			})
			d.logg.Warn(logCtx, "notifications.dispatch.incomplete: "+err.Error())
		}
	}()
}

// Wait blocks until every hook started so far has returned.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, hook Hook, ev Event) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook %s panicked: %v", hook.Name(), rec)
		}
		d.metrics.Delivered(hook.Name(), string(ev.Kind), err)
		if err != nil && d.logg != nil {
			logCtx := d.logg.WithFields(ctx, map[string]any{
				"hook":  hook.Name(),
				"event": string(ev.Kind),
			})
			d.logg.Error(logCtx, "notifications.hook.failed", err)
		}
	}()
	return hook.Handle(ctx, ev)
}

package flow

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"identhub/internal/platform/clock"
	"identhub/internal/platform/mainloop"
	"identhub/internal/platform/scheduler"
)

// Runtime is the execution environment shared by every handler of a session.
type Runtime struct {
	Exec   mainloop.Executor
	Sched  *scheduler.Scheduler
	Clock  clock.Clock
	Logger *slog.Logger
}

func NewRuntime(exec mainloop.Executor, c clock.Clock, logger *slog.Logger) Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return Runtime{
		Exec:   exec,
		Sched:  scheduler.New(c, exec),
		Clock:  c,
		Logger: logger,
	}
}

// Lifetime scopes the timers and in-flight requests of one handler. Ending it
// cancels both; completions arriving afterwards are dropped. A lifetime also
// ends when its parent context is done.
type Lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
	timers scheduler.Group
	ended  atomic.Bool
}

func NewLifetime(parent context.Context) *Lifetime {
	ctx, cancel := context.WithCancel(parent)
	l := &Lifetime{ctx: ctx, cancel: cancel}
	context.AfterFunc(ctx, l.End)
	return l
}

func (l *Lifetime) Context() context.Context { return l.ctx }

// Alive is false once End ran or the parent context is done, even before the
// teardown triggered by the parent has cancelled the timers.
func (l *Lifetime) Alive() bool { return !l.ended.Load() && l.ctx.Err() == nil }

// Track ties h to this lifetime.
func (l *Lifetime) Track(h *scheduler.Handle) *scheduler.Handle {
	return l.timers.Track(h)
}

// After schedules fn on the main context, cancelled when the lifetime ends.
func (l *Lifetime) After(rt Runtime, d time.Duration, fn func()) *scheduler.Handle {
	return l.Track(rt.Sched.After(d, fn))
}

// End tears the lifetime down. It is safe to call more than once.
func (l *Lifetime) End() {
	if !l.ended.CompareAndSwap(false, true) {
		return
	}
	l.timers.Close()
	l.cancel()
}

// Async runs work off the main context and delivers its result back on it,
// unless the lifetime ended in between.
func Async[T any](rt Runtime, lt *Lifetime, work func(ctx context.Context) (T, error), deliver func(T, error)) {
	ctx := lt.Context()
	rt.Exec.Go(func() {
		v, err := work(ctx)
		rt.Exec.Post(func() {
			if !lt.Alive() {
				rt.Logger.Debug("dropping completion for ended handler")
				return
			}
			deliver(v, err)
		})
	})
}

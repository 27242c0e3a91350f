// Package mainloop provides the single logical thread all flow state lives on.
//
// State machines never mutate state from a background goroutine: I/O runs via
// Go and its completion is marshalled back with Post.
package mainloop

import (
	"context"
	"log/slog"
	"sync"
)

// Executor runs work on the main context (Post) or in the background (Go).
type Executor interface {
	Post(fn func())
	Go(fn func())
}

// Loop is a queue drained by exactly one goroutine, the one calling Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	logger  *slog.Logger
}

// New creates a Loop. It does nothing until Run is called.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{wake: make(chan struct{}, 1), logger: logger}
}

// Post enqueues fn for the loop goroutine. Posting after Run returned is a no-op.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.logger.Warn("mainloop: dropping work posted after shutdown")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs fn on a new goroutine.
func (l *Loop) Go(fn func()) {
	go fn()
}

// Run drains the queue until ctx is done. Panics in posted work are logged and
// do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for _, fn := range l.drain() {
			l.invoke(fn)
		}
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.queue = nil
			l.mu.Unlock()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("mainloop: recovered panic", "panic", r)
		}
	}()
	fn()
}

// Inline runs everything immediately on the caller's goroutine. Tests use it
// together with clock.Fake to make flows deterministic.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

func (Inline) Go(fn func()) { fn() }

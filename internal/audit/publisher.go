package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher queues audit events for a Worker. Emit never blocks the flow: when
// the queue is full the event is logged and dropped.
type Publisher struct {
	mu     sync.RWMutex
	inbox  chan Event
	closed bool
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(buffer int, opts ...Option) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		inbox:  make(chan Event, buffer),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, ev Event) {
	if p == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = p.now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.inbox <- ev:
	default:
		p.logger.WarnContext(ctx, "audit queue full; dropping event",
			"action", ev.Action,
			"session_id", ev.SessionID,
		)
	}
}

// Inbox is the channel a Worker drains.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Close stops accepting events and closes the inbox so the worker can drain it.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

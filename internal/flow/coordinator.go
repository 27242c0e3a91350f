package flow

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Result is a coordinator outcome: a Value or an Err, never both.
type Result[T any] struct {
	Value T
	Err   error
}

func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Coordinator composes actions and sub-coordinators into a flow that
// concludes exactly once.
type Coordinator[In any, Out any] interface {
	Start(in In, done func(Result[Out]))
}

// CoordinatorPerformer retains coordinators until they deliver a result.
type CoordinatorPerformer struct {
	mu       sync.Mutex
	inFlight map[any]struct{}
	logger   *slog.Logger
}

func NewCoordinatorPerformer(logger *slog.Logger) *CoordinatorPerformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoordinatorPerformer{inFlight: make(map[any]struct{}), logger: logger}
}

// StartCoordinator starts c and guarantees done runs at most once, even if c
// misbehaves and reports twice.
func StartCoordinator[In any, Out any](p *CoordinatorPerformer, c Coordinator[In, Out], in In, done func(Result[Out])) {
	p.retain(c)
	var delivered atomic.Bool
	c.Start(in, func(r Result[Out]) {
		if !delivered.CompareAndSwap(false, true) {
			p.logger.Warn("coordinator delivered a second result; ignoring", "coordinator", fmt.Sprintf("%T", c))
			return
		}
		p.release(c)
		done(r)
	})
}

func (p *CoordinatorPerformer) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

func (p *CoordinatorPerformer) retain(c any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inFlight[c]; ok {
		p.logger.Warn("coordinator started again while still in flight", "coordinator", fmt.Sprintf("%T", c))
		return
	}
	p.inFlight[c] = struct{}{}
}

func (p *CoordinatorPerformer) release(c any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, c)
}

// Package scheduler provides delay, repeating and countdown timers whose
// callbacks always run on the main execution context.
package scheduler

import (
	"sync"
	"time"

	"identhub/internal/platform/clock"
	"identhub/internal/platform/mainloop"
)

// Scheduler creates timers against a clock and re-enters through an executor.
type Scheduler struct {
	clock clock.Clock
	exec  mainloop.Executor
}

func New(c clock.Clock, exec mainloop.Executor) *Scheduler {
	return &Scheduler{clock: c, exec: exec}
}

func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Handle owns one timer. Cancel is idempotent.
type Handle struct {
	mu        sync.Mutex
	timer     clock.Timer
	cancelled bool
	fired     bool
}

// Cancel stops the timer and reports whether this call did it.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || h.fired {
		return false
	}
	h.cancelled = true
	if h.timer != nil {
		h.timer.Stop()
	}
	return true
}

// Active reports whether the timer can still fire.
func (h *Handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.cancelled && !h.fired
}

func (h *Handle) arm(t clock.Timer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		t.Stop()
		return
	}
	h.timer = t
}

func (h *Handle) live() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.cancelled && !h.fired
}

// After runs fn once after d.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	h.arm(s.clock.AfterFunc(d, func() {
		s.exec.Post(func() {
			h.mu.Lock()
			if h.cancelled || h.fired {
				h.mu.Unlock()
				return
			}
			h.fired = true
			h.mu.Unlock()
			fn()
		})
	}))
	return h
}

// Repeat runs fn every interval until the handle is cancelled. The next tick
// is armed after fn returns, so a slow tick never overlaps the next one.
func (s *Scheduler) Repeat(interval time.Duration, fn func()) *Handle {
	h := &Handle{}
	var schedule func()
	schedule = func() {
		h.arm(s.clock.AfterFunc(interval, func() {
			s.exec.Post(func() {
				if !h.live() {
					return
				}
				fn()
				if h.live() {
					schedule()
				}
			})
		}))
	}
	schedule()
	return h
}

// Countdown ticks every step with the remaining time, then calls onDone once
// remaining reaches zero.
func (s *Scheduler) Countdown(total, step time.Duration, onTick func(remaining time.Duration), onDone func()) *Handle {
	remaining := total
	var h *Handle
	h = s.Repeat(step, func() {
		remaining -= step
		if remaining > 0 {
			onTick(remaining)
			return
		}
		h.Cancel()
		onTick(0)
		if onDone != nil {
			onDone()
		}
	})
	return h
}

// Group owns a set of handles cancelled together when its owner is torn down.
type Group struct {
	mu      sync.Mutex
	handles []*Handle
	closed  bool
}

// Track adds h to the group. Tracking into a closed group cancels h at once.
func (g *Group) Track(h *Handle) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		h.Cancel()
		return h
	}
	live := g.handles[:0]
	for _, existing := range g.handles {
		if existing.Active() {
			live = append(live, existing)
		}
	}
	g.handles = append(live, h)
	return h
}

// Close cancels every tracked handle and returns how many were still active.
func (g *Group) Close() int {
	g.mu.Lock()
	handles := g.handles
	g.handles = nil
	g.closed = true
	g.mu.Unlock()

	cancelled := 0
	for _, h := range handles {
		if h.Cancel() {
			cancelled++
		}
	}
	return cancelled
}

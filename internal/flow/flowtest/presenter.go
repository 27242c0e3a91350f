// Package flowtest provides test doubles for flow hosts.
package flowtest

import (
	"sync"

	"identhub/internal/flow"
)

// Presenter records every presentation call.
type Presenter struct {
	mu         sync.Mutex
	stack      []flow.Showable
	Pushed     []string
	Presented  []string
	Pops       int
	Dismissals int
	// OnShow runs after every push or present, with the showable now on top.
	OnShow func(flow.Showable)
}

func (p *Presenter) Push(s flow.Showable) {
	p.mu.Lock()
	p.stack = append(p.stack, s)
	p.Pushed = append(p.Pushed, s.Name())
	hook := p.OnShow
	p.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

func (p *Presenter) Present(s flow.Showable) {
	p.mu.Lock()
	p.stack = append(p.stack, s)
	p.Presented = append(p.Presented, s.Name())
	hook := p.OnShow
	p.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

func (p *Presenter) Pop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pops++
	if n := len(p.stack); n > 0 {
		p.stack = p.stack[:n-1]
	}
}

func (p *Presenter) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Dismissals++
	p.stack = nil
}

func (p *Presenter) TopShowable() flow.Showable {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.stack); n > 0 {
		return p.stack[n-1]
	}
	return nil
}

func (p *Presenter) DismissCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Dismissals
}

// Top returns the top showable as T.
func Top[T flow.Showable](p *Presenter) (T, bool) {
	t, ok := p.TopShowable().(T)
	return t, ok
}

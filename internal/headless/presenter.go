// Package headless hosts flows without a native UI. The screen stack is kept
// in memory and the top screen is exposed as a flow.View that remote renderers
// read, watch and drive with events.
package headless

import (
	"encoding/json"
	"log/slog"
	"sync"

	"identhub/internal/flow"
	dErrors "identhub/pkg/domain-errors"
)

// Presenter implements flow.Presenter over an in-memory stack.
type Presenter struct {
	mu        sync.Mutex
	stack     []flow.Showable
	dismissed bool
	unwatch   func()
	watchers  map[int]func(flow.View)
	nextID    int
	logger    *slog.Logger
}

// New creates an empty Presenter.
func New(logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{watchers: make(map[int]func(flow.View)), logger: logger}
}

func (p *Presenter) Push(s flow.Showable) {
	p.mu.Lock()
	p.stack = append(p.stack, s)
	p.mu.Unlock()
	p.topChanged()
}

// Present shows s modally. Dismiss removes the whole stack.
func (p *Presenter) Present(s flow.Showable) {
	p.mu.Lock()
	p.stack = append(p.stack, s)
	p.mu.Unlock()
	p.topChanged()
}

func (p *Presenter) Pop() {
	p.mu.Lock()
	if n := len(p.stack); n > 0 {
		p.stack = p.stack[:n-1]
	}
	p.mu.Unlock()
	p.topChanged()
}

func (p *Presenter) Dismiss() {
	p.mu.Lock()
	p.stack = p.stack[:0]
	p.dismissed = true
	p.mu.Unlock()
	p.topChanged()
}

func (p *Presenter) TopShowable() flow.Showable {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.topLocked()
}

func (p *Presenter) topLocked() flow.Showable {
	if n := len(p.stack); n > 0 {
		return p.stack[n-1]
	}
	return nil
}

// Depth is the number of showables on the stack.
func (p *Presenter) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stack)
}

// Dismissed reports whether the flow UI was torn down.
func (p *Presenter) Dismissed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dismissed
}

// Current returns the top screen's view. ok is false when nothing
// interactive is on top.
func (p *Presenter) Current() (flow.View, bool) {
	top, ok := p.TopShowable().(flow.Interactive)
	if !ok {
		return flow.View{}, false
	}
	return top.Snapshot(), true
}

// Dispatch sends a wire event to the top screen. Callers must be on the
// flow's main context.
func (p *Presenter) Dispatch(event string, payload json.RawMessage) error {
	top := p.TopShowable()
	if top == nil {
		return dErrors.New(dErrors.CodeInvalidState, "no screen is shown")
	}
	screen, ok := top.(flow.Interactive)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidState, "screen "+top.Name()+" does not accept events")
	}
	if err := screen.Dispatch(event, payload); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, err.Error())
	}
	return nil
}

// Watch calls fn with every view the top screen renders, including a new
// screen becoming the top. An empty View means the stack is empty.
func (p *Presenter) Watch(fn func(flow.View)) (stop func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}

func (p *Presenter) topChanged() {
	p.mu.Lock()
	if p.unwatch != nil {
		p.unwatch()
		p.unwatch = nil
	}
	top := p.topLocked()
	p.mu.Unlock()

	view := flow.View{}
	if screen, ok := top.(flow.Interactive); ok {
		stop := screen.Watch(p.broadcast)
		p.mu.Lock()
		p.unwatch = stop
		p.mu.Unlock()
		view = screen.Snapshot()
	} else if top != nil {
		view.Screen = top.Name()
	}
	p.logger.Debug("top screen changed", "screen", view.Screen)
	p.broadcast(view)
}

func (p *Presenter) broadcast(v flow.View) {
	p.mu.Lock()
	fns := make([]func(flow.View), 0, len(p.watchers))
	for _, fn := range p.watchers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

var _ flow.Presenter = (*Presenter)(nil)

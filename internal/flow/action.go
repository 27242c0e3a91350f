package flow

import (
	"log/slog"
	"sync"
)

// Action is a one-shot unit of flow bound to one screen. Perform returns the
// screen to present; done is called with every output, and returns true once
// the output was terminal for the caller.
type Action[In any, Out any] interface {
	Perform(in In, done func(Out) bool) Showable
}

// ActionPerformer retains actions while they are in flight. Actions are
// keyed by identity, so they must be pointers.
type ActionPerformer struct {
	mu       sync.Mutex
	inFlight map[any]string
	logger   *slog.Logger
}

func NewActionPerformer(logger *slog.Logger) *ActionPerformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionPerformer{inFlight: make(map[any]string), logger: logger}
}

// Perform retains action, runs it, and evicts it when done reports terminal.
func Perform[In any, Out any](p *ActionPerformer, action Action[In, Out], in In, done func(Out) bool) Showable {
	p.retain(action)
	showable := action.Perform(in, func(out Out) bool {
		terminal := done(out)
		if terminal {
			p.release(action)
		}
		return terminal
	})
	if showable != nil {
		p.label(action, showable.Name())
	}
	return showable
}

// InFlight reports how many actions are retained.
func (p *ActionPerformer) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

func (p *ActionPerformer) retain(action any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.inFlight[action]; ok {
		p.logger.Warn("action performed again while still in flight", "action", name)
		return
	}
	p.inFlight[action] = ""
}

func (p *ActionPerformer) label(action any, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inFlight[action]; ok {
		p.inFlight[action] = name
	}
}

func (p *ActionPerformer) release(action any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, action)
}

// PerformAndShow performs action and shows its screen on presenter.
func PerformAndShow[In any, Out any](p *ActionPerformer, presenter Presenter, action Action[In, Out], in In, done func(Out) bool) Showable {
	showable := Perform(p, action, in, done)
	Show(presenter, showable)
	return showable
}

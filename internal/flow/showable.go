// Package flow holds the building blocks every identification screen and
// sub-flow is made of: event-driven screens, one-shot actions, composing
// coordinators, and the performers that keep them alive while in flight.
package flow

import "encoding/json"

// Showable is anything a Presenter can put on screen.
type Showable interface {
	Name() string
}

// Presenter abstracts the host UI stack.
type Presenter interface {
	Push(s Showable)
	Present(s Showable)
	Pop()
	Dismiss()
	TopShowable() Showable
}

// View is the complete render state of one screen at one point in time.
type View struct {
	Screen string          `json:"screen"`
	State  json.RawMessage `json:"state"`
	Events []string        `json:"events"`
}

// Interactive is a Showable a remote renderer can read and drive.
type Interactive interface {
	Showable
	Snapshot() View
	Dispatch(event string, payload json.RawMessage) error
	Watch(fn func(View)) (stop func())
}

// Appearer is implemented by showables that start work once presented.
type Appearer interface {
	Appear()
}

// Show pushes s and then lets it start. Work therefore never completes
// before its screen is on the stack.
func Show(presenter Presenter, s Showable) {
	if s == nil {
		return
	}
	presenter.Push(s)
	if a, ok := s.(Appearer); ok {
		a.Appear()
	}
}

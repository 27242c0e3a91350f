package flow

import (
	"encoding/json"
	"fmt"
	"sync"
)

// EventHandler is one screen's business logic. HandleEvent must not block:
// I/O is started through Async and re-enters via UpdateView.
type EventHandler[E any] interface {
	HandleEvent(E)
}

// ViewUpdater receives every new ViewState, whole.
type ViewUpdater[S any] interface {
	UpdateView(S)
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc[E any] func(E)

func (f HandlerFunc[E]) HandleEvent(e E) { f(e) }

// Screen binds a handler to the latest ViewState it produced. It is the
// Showable an Action hands to the presenter.
type Screen[S any, E any] struct {
	name   string
	events EventDecoder[E]

	mu       sync.Mutex
	state    S
	handler  EventHandler[E]
	watchers map[int]func(View)
	nextID   int
	onAppear func()
	appeared bool
}

func NewScreen[S any, E any](name string, initial S, events EventDecoder[E]) *Screen[S, E] {
	return &Screen[S, E]{
		name:     name,
		events:   events,
		state:    initial,
		watchers: make(map[int]func(View)),
	}
}

func (s *Screen[S, E]) Name() string { return s.name }

// Bind attaches the handler that receives this screen's events.
func (s *Screen[S, E]) Bind(h EventHandler[E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// OnAppear registers work to start once the screen is shown.
func (s *Screen[S, E]) OnAppear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAppear = fn
}

// Appear runs the OnAppear hook, once.
func (s *Screen[S, E]) Appear() {
	s.mu.Lock()
	if s.appeared {
		s.mu.Unlock()
		return
	}
	s.appeared = true
	fn := s.onAppear
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// UpdateView replaces the state and notifies watchers.
func (s *Screen[S, E]) UpdateView(state S) {
	s.mu.Lock()
	s.state = state
	watchers := make([]func(View), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	if len(watchers) == 0 {
		return
	}
	view := s.Snapshot()
	for _, w := range watchers {
		w(view)
	}
}

// State returns the latest ViewState.
func (s *Screen[S, E]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send delivers a typed event to the bound handler.
func (s *Screen[S, E]) Send(e E) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h.HandleEvent(e)
	}
}

// Dispatch decodes a named wire event and sends it.
func (s *Screen[S, E]) Dispatch(event string, payload json.RawMessage) error {
	decode, ok := s.events[event]
	if !ok {
		return ErrUnknownEvent{Screen: s.name, Event: event}
	}
	e, err := decode(payload)
	if err != nil {
		return fmt.Errorf("decode %s.%s: %w", s.name, event, err)
	}
	s.Send(e)
	return nil
}

func (s *Screen[S, E]) Snapshot() View {
	state := s.State()
	raw, err := json.Marshal(state)
	if err != nil {
		raw = json.RawMessage(`null`)
	}
	return View{Screen: s.name, State: raw, Events: s.events.Names()}
}

// Watch registers fn for every future state. The returned func unregisters it.
func (s *Screen[S, E]) Watch(fn func(View)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

var _ Interactive = (*Screen[struct{}, struct{}])(nil)

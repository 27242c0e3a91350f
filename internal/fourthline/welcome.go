package fourthline

import (
	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

type WelcomeState struct {
	Provider string `json:"provider,omitempty"`
}

type WelcomeEvent interface{ isWelcomeEvent() }

func (Proceed) isWelcomeEvent() {}
func (Quit) isWelcomeEvent()    {}

var welcomeEvents = flow.EventDecoder[WelcomeEvent]{
	"start": flow.As[Proceed, WelcomeEvent](),
	"quit":  flow.As[Quit, WelcomeEvent](),
}

// Welcome explains the steps ahead.
type Welcome struct {
	deps *app.Dependencies
	done func(stepResult) bool
	over bool
}

func NewWelcome(deps *app.Dependencies) *Welcome {
	return &Welcome{deps: deps}
}

func (w *Welcome) Perform(_ struct{}, done func(stepResult) bool) flow.Showable {
	w.done = done
	screen := flow.NewScreen("fourthline_welcome", WelcomeState{Provider: w.deps.Session.Provider()}, welcomeEvents)
	screen.Bind(flow.HandlerFunc[WelcomeEvent](func(e WelcomeEvent) {
		if w.over {
			return
		}
		w.over = true
		if _, quit := e.(Quit); quit {
			w.done(stepResult{Err: domain.UserCanceled()})
			return
		}
		w.done(stepResult{})
	}))
	return screen
}

package ident

import (
	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

type TermsState struct {
	TermsURL   string `json:"terms_url,omitempty"`
	PrivacyURL string `json:"privacy_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

type TermsEvent interface{ isTermsEvent() }

// Accept records the user's consent.
type Accept struct{}

func (Accept) isTermsEvent() {}
func (Quit) isTermsEvent()   {}

var termsEvents = flow.EventDecoder[TermsEvent]{
	"accept": flow.As[Accept, TermsEvent](),
	"quit":   flow.As[Quit, TermsEvent](),
}

// TermsResult is nil on acceptance.
type TermsResult struct {
	Err error
}

// Terms asks the user to accept the terms and privacy statement.
type Terms struct {
	deps     *app.Dependencies
	screen   *flow.Screen[TermsState, TermsEvent]
	done     func(TermsResult) bool
	finished bool
}

func NewTerms(deps *app.Dependencies) *Terms {
	return &Terms{deps: deps}
}

func (t *Terms) Perform(_ struct{}, done func(TermsResult) bool) flow.Showable {
	t.done = done
	t.screen = flow.NewScreen("terms_and_conditions", TermsState{
		TermsURL:   t.deps.Settings.TermsURL,
		PrivacyURL: t.deps.Settings.PrivacyURL,
	}, termsEvents)
	t.screen.Bind(flow.HandlerFunc[TermsEvent](t.handle))
	return t.screen
}

func (t *Terms) handle(e TermsEvent) {
	if t.finished {
		return
	}
	switch e.(type) {
	case Accept:
		if err := t.deps.Session.SetAcceptedTC(t.deps.Context, true); err != nil {
			state := t.screen.State()
			state.Error = err.Error()
			t.screen.UpdateView(state)
			return
		}
		t.finished = true
		t.done(TermsResult{})
	case Quit:
		t.finished = true
		t.done(TermsResult{Err: domain.UserCanceled()})
	}
}

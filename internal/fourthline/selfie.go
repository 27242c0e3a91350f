package fourthline

import (
	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

type SelfiePhase string

const (
	SelfieScanning SelfiePhase = "scanning"
	SelfieCaptured SelfiePhase = "captured"
)

type SelfieState struct {
	Phase   SelfiePhase `json:"phase"`
	Warning string      `json:"warning,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type SelfieEvent interface{ isSelfieEvent() }

func (Captured) isSelfieEvent()    {}
func (StepWarning) isSelfieEvent() {}
func (StepFailure) isSelfieEvent() {}
func (Completed) isSelfieEvent()   {}
func (Retake) isSelfieEvent()      {}
func (Quit) isSelfieEvent()        {}

var selfieEvents = flow.EventDecoder[SelfieEvent]{
	"captured":    flow.As[Captured, SelfieEvent](),
	"stepWarning": flow.As[StepWarning, SelfieEvent](),
	"stepFailure": flow.As[StepFailure, SelfieEvent](),
	"completed":   flow.As[Completed, SelfieEvent](),
	"retake":      flow.As[Retake, SelfieEvent](),
	"quit":        flow.As[Quit, SelfieEvent](),
}

// Selfie captures the user's face and, when granted, their location.
type Selfie struct {
	deps   *app.Dependencies
	kyc    *KYCContainer
	screen *flow.Screen[SelfieState, SelfieEvent]
	done   func(stepResult) bool
	over   bool
}

func NewSelfie(deps *app.Dependencies, kyc *KYCContainer) *Selfie {
	return &Selfie{deps: deps, kyc: kyc}
}

func (a *Selfie) Perform(_ struct{}, done func(stepResult) bool) flow.Showable {
	a.done = done
	a.screen = flow.NewScreen("selfie", SelfieState{Phase: SelfieScanning}, selfieEvents)
	a.screen.Bind(flow.HandlerFunc[SelfieEvent](a.handle))
	return a.screen
}

func (a *Selfie) handle(e SelfieEvent) {
	if a.over {
		return
	}
	switch e := e.(type) {
	case Captured:
		if len(e.Image) == 0 {
			a.screen.UpdateView(SelfieState{Phase: SelfieScanning, Error: "empty capture"})
			return
		}
		a.kyc.Selfie = e.Image
		if e.Location != nil {
			a.kyc.Location = &domain.Location{
				Latitude:  e.Location.Latitude,
				Longitude: e.Location.Longitude,
				Timestamp: a.deps.Runtime.Clock.Now().UTC(),
			}
		}
		a.screen.UpdateView(SelfieState{Phase: SelfieCaptured})
	case StepWarning:
		state := a.screen.State()
		state.Warning = e.Message
		a.screen.UpdateView(state)
	case StepFailure:
		a.kyc.Selfie = nil
		a.screen.UpdateView(SelfieState{Phase: SelfieScanning, Error: e.Message})
	case Retake:
		a.kyc.Selfie = nil
		a.screen.UpdateView(SelfieState{Phase: SelfieScanning})
	case Completed:
		if a.screen.State().Phase != SelfieCaptured {
			return
		}
		a.over = true
		a.done(stepResult{})
	case Quit:
		a.over = true
		a.done(stepResult{Err: domain.UserCanceled()})
	}
}

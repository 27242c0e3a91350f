package ident

import (
	"context"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/modules"
	"identhub/internal/routing"
	"identhub/internal/session"
)

// RequestsMode selects which bootstrap requests a Requests action runs.
type RequestsMode string

const (
	// ModeInitialization defines the method, validates linked modules and
	// loads the identification info.
	ModeInitialization RequestsMode = "initialization"
	// ModeIdentification reloads the info to learn the current step.
	ModeIdentification RequestsMode = "identification"
)

type RequestsPhase string

const (
	PhaseLoading RequestsPhase = "loading"
	PhaseFailed  RequestsPhase = "failed"
)

type RequestsState struct {
	Mode         RequestsMode              `json:"mode"`
	Phase        RequestsPhase             `json:"phase"`
	ErrorKind    domain.ErrorKind          `json:"error_kind,omitempty"`
	Error        string                    `json:"error,omitempty"`
	FallbackStep domain.IdentificationStep `json:"fallback_step,omitempty"`
}

type RequestsEvent interface{ isRequestsEvent() }

// Retry reruns the requests after a failure.
type Retry struct{}

// UseFallback switches to the fallback step the server offered.
type UseFallback struct{}

// Quit ends the session.
type Quit struct{}

func (Retry) isRequestsEvent()       {}
func (UseFallback) isRequestsEvent() {}
func (Quit) isRequestsEvent()        {}

var requestsEvents = flow.EventDecoder[RequestsEvent]{
	"retry":       flow.As[Retry, RequestsEvent](),
	"useFallback": flow.As[UseFallback, RequestsEvent](),
	"quit":        flow.As[Quit, RequestsEvent](),
}

type RequestsOutcome int

const (
	RequestsReady RequestsOutcome = iota
	RequestsReroute
	RequestsFailed
)

// RequestsResult is the terminal output of a Requests action.
type RequestsResult struct {
	Outcome RequestsOutcome
	Info    domain.IdentificationInfo
	Step    domain.IdentificationStep
	Err     error
}

// Requests runs the bootstrap calls behind a loading screen.
type Requests struct {
	deps     *app.Dependencies
	mode     RequestsMode
	screen   *flow.Screen[RequestsState, RequestsEvent]
	lt       *flow.Lifetime
	done     func(RequestsResult) bool
	lastErr  error
	finished bool
}

func NewRequests(deps *app.Dependencies) *Requests {
	return &Requests{deps: deps}
}

func (r *Requests) Perform(mode RequestsMode, done func(RequestsResult) bool) flow.Showable {
	r.mode = mode
	r.done = done
	r.screen = flow.NewScreen("requests", RequestsState{Mode: mode, Phase: PhaseLoading}, requestsEvents)
	r.screen.Bind(flow.HandlerFunc[RequestsEvent](r.handle))
	r.screen.OnAppear(r.run)
	return r.screen
}

func (r *Requests) handle(e RequestsEvent) {
	state := r.screen.State()
	switch e.(type) {
	case Retry:
		if state.Phase == PhaseFailed {
			r.run()
		}
	case UseFallback:
		if state.Phase == PhaseFailed && state.FallbackStep.IsSpecified() {
			r.finish(RequestsResult{Outcome: RequestsReroute, Step: state.FallbackStep})
		}
	case Quit:
		err := r.lastErr
		if err == nil {
			err = domain.UserCanceled()
		}
		r.finish(RequestsResult{Outcome: RequestsFailed, Err: err})
	}
}

func (r *Requests) run() {
	if r.lt != nil {
		r.lt.End()
	}
	r.lt = flow.NewLifetime(r.deps.Context)
	r.screen.UpdateView(RequestsState{Mode: r.mode, Phase: PhaseLoading})

	if r.mode == ModeInitialization {
		r.defineMethod()
		return
	}
	r.obtainInfo()
}

func (r *Requests) defineMethod() {
	flow.Async(r.deps.Runtime, r.lt, func(ctx context.Context) (domain.IdentificationMethod, error) {
		return r.deps.Service.DefineIdentificationMethod(ctx)
	}, func(method domain.IdentificationMethod, err error) {
		if err != nil {
			r.fail(err)
			return
		}
		if err := modules.Validate(method, r.deps.Modules.Linked()); err != nil {
			r.deps.Logger.Error("identification method needs modules that are not linked",
				"required", modules.Required(method),
				"error", err,
			)
			r.finish(RequestsResult{Outcome: RequestsFailed, Err: err})
			return
		}
		if err := r.storeMethod(method); err != nil {
			r.finish(RequestsResult{Outcome: RequestsFailed, Err: err})
			return
		}
		r.obtainInfo()
	})
}

func (r *Requests) storeMethod(method domain.IdentificationMethod) error {
	return r.deps.Session.Update(r.deps.Context, func(s *session.State) {
		s.Retries = method.RetriesOrDefault()
		s.IdentificationStep = method.FirstStep.Step
		if method.FallbackStep != nil {
			s.FallbackStep = method.FallbackStep.Step
		}
		if method.FourthlineProvider != "" {
			s.Provider = method.FourthlineProvider
		}
	})
}

func (r *Requests) obtainInfo() {
	flow.Async(r.deps.Runtime, r.lt, func(ctx context.Context) (domain.IdentificationInfo, error) {
		return r.deps.Service.ObtainIdentificationInfo(ctx)
	}, func(info domain.IdentificationInfo, err error) {
		if err != nil {
			r.fail(err)
			return
		}
		if err := r.deps.Session.ApplyInfo(r.deps.Context, info); err != nil {
			r.finish(RequestsResult{Outcome: RequestsFailed, Err: err})
			return
		}
		r.finish(RequestsResult{Outcome: RequestsReady, Info: info})
	})
}

func (r *Requests) fail(err error) {
	r.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
	route := routing.Classify(err, routing.Context{})
	switch route.Decision {
	case routing.Reroute:
		r.finish(RequestsResult{Outcome: RequestsReroute, Step: route.Step})
		return
	case routing.OfferFallback:
		r.lastErr = err
		r.screen.UpdateView(RequestsState{
			Mode:         r.mode,
			Phase:        PhaseFailed,
			ErrorKind:    domain.KindOf(err),
			Error:        err.Error(),
			FallbackStep: route.Step,
		})
		return
	}
	r.lastErr = err
	r.screen.UpdateView(RequestsState{
		Mode:      r.mode,
		Phase:     PhaseFailed,
		ErrorKind: domain.KindOf(err),
		Error:     err.Error(),
	})
}

func (r *Requests) finish(res RequestsResult) {
	if r.finished {
		return
	}
	r.finished = true
	if r.lt != nil {
		r.lt.End()
	}
	r.done(res)
}

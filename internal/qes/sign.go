package qes

import (
	"context"
	"time"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/poll"
	"identhub/internal/routing"
)

type SignPhase string

const (
	SignAuthorizing SignPhase = "authorizing"
	SignCodeSent    SignPhase = "code_sent"
	SignVerifying   SignPhase = "verifying"
	SignProcessing  SignPhase = "processing"
	SignFailed      SignPhase = "failed"
)

// SignDocumentsState is what the signing screen renders.
type SignDocumentsState struct {
	MobileNumber         string           `json:"mobile_number,omitempty"`
	Phase                SignPhase        `json:"state"`
	NewCodeRemainingTime int              `json:"new_code_remaining_time"`
	CanRequestNewCode    bool             `json:"can_request_new_code"`
	TransactionID        string           `json:"transaction_id,omitempty"`
	ErrorKind            domain.ErrorKind `json:"error_kind,omitempty"`
	Error                string           `json:"error,omitempty"`
}

type SignEvent interface{ isSignEvent() }

type SubmitCode struct {
	Code string `json:"code"`
}

type RequestNewCode struct{}

func (SubmitCode) isSignEvent()     {}
func (RequestNewCode) isSignEvent() {}
func (Quit) isSignEvent()           {}

var signEvents = flow.EventDecoder[SignEvent]{
	"submitCode":     flow.As[SubmitCode, SignEvent](),
	"requestNewCode": flow.As[RequestNewCode, SignEvent](),
	"quit":           flow.As[Quit, SignEvent](),
}

// SignResult is the terminal poll outcome, or Err for a quit.
type SignResult struct {
	Outcome poll.Outcome
	Err     error
}

// SignDocuments authorizes a signing TAN, verifies it and waits for the
// signature to be applied.
type SignDocuments struct {
	deps     *app.Dependencies
	uid      string
	screen   *flow.Screen[SignDocumentsState, SignEvent]
	lt       *flow.Lifetime
	cooldown *flow.Lifetime
	done     func(SignResult) bool
	finished bool
}

var signSuccess = []domain.Status{domain.StatusSuccessful, domain.StatusConfirmed}

func NewSignDocuments(deps *app.Dependencies) *SignDocuments {
	return &SignDocuments{deps: deps}
}

func (a *SignDocuments) Perform(uid string, done func(SignResult) bool) flow.Showable {
	a.uid = uid
	a.done = done
	a.lt = flow.NewLifetime(a.deps.Context)
	a.screen = flow.NewScreen("sign_documents", SignDocumentsState{
		MobileNumber: a.deps.Session.MobileNumber(),
		Phase:        SignAuthorizing,
	}, signEvents)
	a.screen.Bind(flow.HandlerFunc[SignEvent](a.handle))
	a.screen.OnAppear(func() {
		if a.screen.State().MobileNumber == "" {
			a.loadNumber()
		}
		a.authorize()
	})
	return a.screen
}

func (a *SignDocuments) loadNumber() {
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (domain.MobileNumber, error) {
		return a.deps.Service.GetMobileNumber(ctx)
	}, func(number domain.MobileNumber, err error) {
		if err != nil {
			a.deps.Logger.Warn("could not load mobile number for signing", "error", err)
			return
		}
		a.update(func(s *SignDocumentsState) { s.MobileNumber = number.Number })
	})
}

func (a *SignDocuments) handle(e SignEvent) {
	if a.finished {
		return
	}
	state := a.screen.State()
	switch e := e.(type) {
	case SubmitCode:
		if state.Phase == SignCodeSent || state.Phase == SignFailed {
			a.verify(e.Code)
		}
	case RequestNewCode:
		if state.CanRequestNewCode {
			a.authorize()
		}
	case Quit:
		a.finish(SignResult{Err: domain.UserCanceled()})
	}
}

func (a *SignDocuments) authorize() {
	a.update(func(s *SignDocumentsState) {
		s.Phase = SignAuthorizing
		s.CanRequestNewCode = false
	})
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (domain.Identification, error) {
		return a.deps.Service.AuthorizeDocuments(ctx, a.uid)
	}, func(ident domain.Identification, err error) {
		if err != nil {
			a.showError(err)
			a.update(func(s *SignDocumentsState) { s.CanRequestNewCode = true })
			return
		}
		a.update(func(s *SignDocumentsState) {
			s.Phase = SignCodeSent
			s.TransactionID = ident.ReferenceID
			s.ErrorKind = ""
			s.Error = ""
		})
		a.startCooldown()
	})
}

func (a *SignDocuments) startCooldown() {
	if a.cooldown != nil {
		a.cooldown.End()
	}
	a.cooldown = flow.NewLifetime(a.lt.Context())
	total := a.deps.Settings.ResendCooldown
	a.update(func(s *SignDocumentsState) { s.NewCodeRemainingTime = int(total / time.Second) })
	a.cooldown.Track(a.deps.Runtime.Sched.Countdown(total, time.Second, func(remaining time.Duration) {
		a.update(func(s *SignDocumentsState) { s.NewCodeRemainingTime = int(remaining / time.Second) })
	}, func() {
		a.update(func(s *SignDocumentsState) { s.CanRequestNewCode = true })
	}))
}

func (a *SignDocuments) verify(code string) {
	a.update(func(s *SignDocumentsState) { s.Phase = SignVerifying })
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (domain.Identification, error) {
		return a.deps.Service.VerifyDocumentsTAN(ctx, a.uid, code)
	}, func(_ domain.Identification, err error) {
		if err != nil {
			route := routing.Classify(err, routing.Context{})
			if route.Decision == routing.Reroute {
				a.finish(SignResult{Outcome: poll.Outcome{Kind: poll.Rerouted, Step: route.Step}})
				return
			}
			a.showError(err)
			return
		}
		if a.cooldown != nil {
			a.cooldown.End()
		}
		a.update(func(s *SignDocumentsState) {
			s.Phase = SignProcessing
			s.NewCodeRemainingTime = 0
			s.CanRequestNewCode = false
		})
		a.waitForSignature()
	})
}

func (a *SignDocuments) waitForSignature() {
	poll.Start(a.deps.Runtime, a.lt, poll.Options{
		Interval: a.deps.Settings.PollInterval,
		Name:     "signing",
		Observe:  func(k poll.Kind) { a.deps.Metrics.ObserveStatusPoll(k.String()) },
	}, func(ctx context.Context) (domain.Identification, error) {
		return a.deps.Service.GetIdentification(ctx, a.uid)
	}, poll.StatusClassifier(signSuccess...), func(out poll.Outcome) {
		a.finish(SignResult{Outcome: out})
	})
}

func (a *SignDocuments) showError(err error) {
	a.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
	a.update(func(s *SignDocumentsState) {
		s.Phase = SignFailed
		s.ErrorKind = domain.KindOf(err)
		s.Error = err.Error()
	})
}

func (a *SignDocuments) update(fn func(*SignDocumentsState)) {
	state := a.screen.State()
	fn(&state)
	a.screen.UpdateView(state)
}

func (a *SignDocuments) finish(res SignResult) {
	if a.finished {
		return
	}
	a.finished = true
	if a.cooldown != nil {
		a.cooldown.End()
	}
	a.lt.End()
	a.done(res)
}

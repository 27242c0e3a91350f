package bankid

import (
	"context"
	"strings"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/routing"
	"identhub/internal/session"
)

type IBANPhase string

const (
	IBANInput           IBANPhase = "input"
	IBANVerifying       IBANPhase = "verifying"
	IBANFailed          IBANPhase = "failed"
	IBANFallbackOffered IBANPhase = "fallback_offered"
)

type IBANState struct {
	Phase        IBANPhase                 `json:"phase"`
	IBAN         string                    `json:"iban,omitempty"`
	AttemptsLeft int                       `json:"attempts_left"`
	ErrorKind    domain.ErrorKind          `json:"error_kind,omitempty"`
	Error        string                    `json:"error,omitempty"`
	FallbackStep domain.IdentificationStep `json:"fallback_step,omitempty"`
}

type IBANEvent interface{ isIBANEvent() }

type SubmitIBAN struct {
	IBAN string `json:"iban"`
}

func (SubmitIBAN) isIBANEvent()  {}
func (Retry) isIBANEvent()       {}
func (UseFallback) isIBANEvent() {}
func (Quit) isIBANEvent()        {}

var ibanEvents = flow.EventDecoder[IBANEvent]{
	"submitIBAN":  flow.As[SubmitIBAN, IBANEvent](),
	"retry":       flow.As[Retry, IBANEvent](),
	"useFallback": flow.As[UseFallback, IBANEvent](),
	"quit":        flow.As[Quit, IBANEvent](),
}

type IBANOutcome int

const (
	IBANVerified IBANOutcome = iota
	IBANReroute
	IBANAborted
)

type IBANResult struct {
	Outcome        IBANOutcome
	Identification domain.Identification
	Step           domain.IdentificationStep
	Err            error
}

// IBANVerification checks the user's account number against the backend,
// within the attempt budget stored for the session.
type IBANVerification struct {
	deps     *app.Dependencies
	step     domain.IdentificationStep
	screen   *flow.Screen[IBANState, IBANEvent]
	lt       *flow.Lifetime
	done     func(IBANResult) bool
	finished bool
}

func NewIBANVerification(deps *app.Dependencies) *IBANVerification {
	return &IBANVerification{deps: deps}
}

func (v *IBANVerification) Perform(step domain.IdentificationStep, done func(IBANResult) bool) flow.Showable {
	v.step = step
	v.done = done
	v.lt = flow.NewLifetime(v.deps.Context)
	v.screen = flow.NewScreen("iban_verification", IBANState{
		Phase:        IBANInput,
		AttemptsLeft: v.attemptsLeft(),
	}, ibanEvents)
	v.screen.Bind(flow.HandlerFunc[IBANEvent](v.handle))
	return v.screen
}

func (v *IBANVerification) attemptsLeft() int {
	left := v.deps.Session.Retries() - v.deps.Session.IBANAttempts()
	if left < 0 {
		return 0
	}
	return left
}

func (v *IBANVerification) handle(e IBANEvent) {
	state := v.screen.State()
	switch e := e.(type) {
	case SubmitIBAN:
		if state.Phase == IBANVerifying || state.Phase == IBANFallbackOffered {
			return
		}
		v.submit(e.IBAN)
	case Retry:
		if state.Phase == IBANFallbackOffered || state.Phase == IBANFailed {
			v.update(func(s *IBANState) {
				s.Phase = IBANInput
				s.FallbackStep = domain.StepUnspecified
			})
		}
	case UseFallback:
		if state.Phase == IBANFallbackOffered {
			v.finish(IBANResult{Outcome: IBANReroute, Step: state.FallbackStep})
		}
	case Quit:
		v.finish(IBANResult{Outcome: IBANAborted, Err: domain.UserCanceled()})
	}
}

func (v *IBANVerification) submit(raw string) {
	iban := NormalizeIBAN(raw)
	if !ValidIBAN(iban) {
		v.update(func(s *IBANState) {
			s.Phase = IBANFailed
			s.IBAN = iban
			s.ErrorKind = domain.KindBadRequest
			s.Error = "invalid iban"
		})
		return
	}
	v.update(func(s *IBANState) {
		s.Phase = IBANVerifying
		s.IBAN = iban
		s.ErrorKind = ""
		s.Error = ""
	})
	flow.Async(v.deps.Runtime, v.lt, func(ctx context.Context) (domain.Identification, error) {
		return v.deps.Service.VerifyIBAN(ctx, iban, v.step)
	}, v.verified)
}

func (v *IBANVerification) verified(ident domain.Identification, err error) {
	if err == nil {
		if err := v.deps.Session.Update(v.deps.Context, func(s *session.State) {
			s.IBANAttempts = 0
			if ident.ID != "" {
				s.IdentificationUID = ident.ID
			}
		}); err != nil {
			v.finish(IBANResult{Outcome: IBANAborted, Err: err})
			return
		}
		v.finish(IBANResult{Outcome: IBANVerified, Identification: ident})
		return
	}

	v.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
	attempts := v.deps.Session.IBANAttempts()
	if routing.IsRetryable(err) {
		attempts++
		if serr := v.deps.Session.SetIBANAttempts(v.deps.Context, attempts); serr != nil {
			v.finish(IBANResult{Outcome: IBANAborted, Err: serr})
			return
		}
	}

	route := routing.Classify(err, routing.Context{Attempts: attempts, MaxAttempts: v.deps.Session.Retries()})
	v.deps.Logger.Info("iban verification failed",
		"decision", route.Decision.String(),
		"attempts", attempts,
		"error", err,
	)
	switch route.Decision {
	case routing.Reroute:
		v.finish(IBANResult{Outcome: IBANReroute, Step: route.Step})
	case routing.OfferFallback:
		v.update(func(s *IBANState) {
			s.Phase = IBANFallbackOffered
			s.AttemptsLeft = v.attemptsLeft()
			s.ErrorKind = domain.KindOf(err)
			s.Error = err.Error()
			s.FallbackStep = route.Step
		})
	case routing.Retry:
		v.update(func(s *IBANState) {
			s.Phase = IBANFailed
			s.AttemptsLeft = v.attemptsLeft()
			s.ErrorKind = domain.KindOf(err)
			s.Error = err.Error()
		})
	case routing.Abort:
		v.finish(IBANResult{
			Outcome: IBANAborted,
			Err:     &domain.APIError{Kind: domain.KindIBANVerificationFailed, Err: err},
		})
	default:
		v.finish(IBANResult{Outcome: IBANAborted, Err: err})
	}
}

func (v *IBANVerification) update(fn func(*IBANState)) {
	state := v.screen.State()
	fn(&state)
	v.screen.UpdateView(state)
}

func (v *IBANVerification) finish(res IBANResult) {
	if v.finished {
		return
	}
	v.finished = true
	v.lt.End()
	v.done(res)
}

// NormalizeIBAN strips spaces and upper-cases.
func NormalizeIBAN(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// ValidIBAN runs the ISO 13616 mod-97 check on a normalized IBAN.
func ValidIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	for i := 0; i < 2; i++ {
		if iban[i] < 'A' || iban[i] > 'Z' {
			return false
		}
	}
	for i := 2; i < 4; i++ {
		if iban[i] < '0' || iban[i] > '9' {
			return false
		}
	}
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			remainder = (remainder*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			remainder = (remainder*100 + int(c-'A') + 10) % 97
		default:
			return false
		}
	}
	return remainder == 1
}

package bankid

import (
	"context"
	"time"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/routing"
)

type PhonePhase string

const (
	PhoneLoading   PhonePhase = "loading"
	PhoneReady     PhonePhase = "ready"
	PhoneCodeSent  PhonePhase = "code_sent"
	PhoneVerifying PhonePhase = "verifying"
	PhoneFailed    PhonePhase = "failed"
)

type PhoneState struct {
	MobileNumber         string           `json:"mobile_number,omitempty"`
	Phase                PhonePhase       `json:"phase"`
	NewCodeRemainingTime int              `json:"new_code_remaining_time"`
	CanRequestNewCode    bool             `json:"can_request_new_code"`
	ErrorKind            domain.ErrorKind `json:"error_kind,omitempty"`
	Error                string           `json:"error,omitempty"`
}

type PhoneEvent interface{ isPhoneEvent() }

type RequestCode struct{}

type SubmitCode struct {
	Code string `json:"code"`
}

type RequestNewCode struct{}

func (RequestCode) isPhoneEvent()    {}
func (SubmitCode) isPhoneEvent()     {}
func (RequestNewCode) isPhoneEvent() {}
func (Quit) isPhoneEvent()           {}

var phoneEvents = flow.EventDecoder[PhoneEvent]{
	"requestCode":    flow.As[RequestCode, PhoneEvent](),
	"submitCode":     flow.As[SubmitCode, PhoneEvent](),
	"requestNewCode": flow.As[RequestNewCode, PhoneEvent](),
	"quit":           flow.As[Quit, PhoneEvent](),
}

// PhoneResult is terminal; a nil Err means the number is verified.
type PhoneResult struct {
	Step domain.IdentificationStep
	Err  error
}

// PhoneVerification confirms the user's mobile number with a TAN.
type PhoneVerification struct {
	deps     *app.Dependencies
	screen   *flow.Screen[PhoneState, PhoneEvent]
	lt       *flow.Lifetime
	cooldown *flow.Lifetime
	done     func(PhoneResult) bool
	finished bool
}

func NewPhoneVerification(deps *app.Dependencies) *PhoneVerification {
	return &PhoneVerification{deps: deps}
}

func (p *PhoneVerification) Perform(_ struct{}, done func(PhoneResult) bool) flow.Showable {
	p.done = done
	p.lt = flow.NewLifetime(p.deps.Context)
	p.screen = flow.NewScreen("phone_verification", PhoneState{Phase: PhoneLoading}, phoneEvents)
	p.screen.Bind(flow.HandlerFunc[PhoneEvent](p.handle))
	p.screen.OnAppear(p.loadNumber)
	return p.screen
}

func (p *PhoneVerification) loadNumber() {
	if number := p.deps.Session.MobileNumber(); number != "" {
		p.update(func(s *PhoneState) {
			s.MobileNumber = number
			s.Phase = PhoneReady
		})
		return
	}
	flow.Async(p.deps.Runtime, p.lt, func(ctx context.Context) (domain.MobileNumber, error) {
		return p.deps.Service.GetMobileNumber(ctx)
	}, func(number domain.MobileNumber, err error) {
		if err != nil {
			p.showError(err)
			return
		}
		if err := p.deps.Session.SetMobileNumber(p.deps.Context, number.Number); err != nil {
			p.showError(err)
			return
		}
		p.update(func(s *PhoneState) {
			s.MobileNumber = number.Number
			s.Phase = PhoneReady
		})
	})
}

func (p *PhoneVerification) handle(e PhoneEvent) {
	state := p.screen.State()
	switch e := e.(type) {
	case RequestCode:
		if state.MobileNumber == "" {
			p.loadNumber()
			return
		}
		// Once a code is out, only RequestNewCode may send another.
		if state.Phase == PhoneReady || (state.Phase == PhoneFailed && state.CanRequestNewCode) {
			p.requestCode()
		}
	case RequestNewCode:
		if state.CanRequestNewCode {
			p.requestCode()
		}
	case SubmitCode:
		if state.Phase != PhoneCodeSent && state.Phase != PhoneFailed {
			return
		}
		p.submit(e.Code)
	case Quit:
		p.finish(PhoneResult{Err: domain.UserCanceled()})
	}
}

func (p *PhoneVerification) requestCode() {
	number := p.screen.State().MobileNumber
	p.update(func(s *PhoneState) {
		s.Phase = PhoneLoading
		s.CanRequestNewCode = false
	})
	flow.Async(p.deps.Runtime, p.lt, func(ctx context.Context) (domain.MobileNumber, error) {
		return p.deps.Service.AuthorizeMobileNumber(ctx, number)
	}, func(_ domain.MobileNumber, err error) {
		if err != nil {
			p.showError(err)
			p.update(func(s *PhoneState) { s.CanRequestNewCode = true })
			return
		}
		p.update(func(s *PhoneState) {
			s.Phase = PhoneCodeSent
			s.ErrorKind = ""
			s.Error = ""
		})
		p.startCooldown()
	})
}

func (p *PhoneVerification) startCooldown() {
	if p.cooldown != nil {
		p.cooldown.End()
	}
	p.cooldown = flow.NewLifetime(p.lt.Context())
	cooldown := p.deps.Settings.ResendCooldown
	p.update(func(s *PhoneState) { s.NewCodeRemainingTime = int(cooldown / time.Second) })
	p.cooldown.Track(p.deps.Runtime.Sched.Countdown(cooldown, time.Second, func(remaining time.Duration) {
		p.update(func(s *PhoneState) { s.NewCodeRemainingTime = int(remaining / time.Second) })
	}, func() {
		p.update(func(s *PhoneState) { s.CanRequestNewCode = true })
	}))
}

func (p *PhoneVerification) submit(code string) {
	p.update(func(s *PhoneState) { s.Phase = PhoneVerifying })
	flow.Async(p.deps.Runtime, p.lt, func(ctx context.Context) (domain.MobileNumber, error) {
		return p.deps.Service.VerifyMobileNumberTAN(ctx, code)
	}, func(_ domain.MobileNumber, err error) {
		if err != nil {
			route := routing.Classify(err, routing.Context{})
			if route.Decision == routing.Reroute {
				p.finish(PhoneResult{Step: route.Step})
				return
			}
			p.showError(err)
			return
		}
		if err := p.deps.Session.SetPhoneVerified(p.deps.Context, true); err != nil {
			p.showError(err)
			return
		}
		p.finish(PhoneResult{})
	})
}

func (p *PhoneVerification) showError(err error) {
	p.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
	p.update(func(s *PhoneState) {
		s.Phase = PhoneFailed
		s.ErrorKind = domain.KindOf(err)
		s.Error = err.Error()
	})
}

func (p *PhoneVerification) update(fn func(*PhoneState)) {
	state := p.screen.State()
	fn(&state)
	p.screen.UpdateView(state)
}

func (p *PhoneVerification) finish(res PhoneResult) {
	if p.finished {
		return
	}
	p.finished = true
	if p.cooldown != nil {
		p.cooldown.End()
	}
	p.lt.End()
	p.done(res)
}

package bankid

import (
	"context"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/poll"
)

type PaymentState struct {
	Phase  string        `json:"phase"`
	Status domain.Status `json:"status,omitempty"`
}

type PaymentEvent interface{ isPaymentEvent() }

func (Quit) isPaymentEvent() {}

var paymentEvents = flow.EventDecoder[PaymentEvent]{
	"quit": flow.As[Quit, PaymentEvent](),
}

// PaymentResult carries the terminal poll outcome, or a user quit as Err.
type PaymentResult struct {
	Outcome poll.Outcome
	Err     error
}

// PaymentVerification waits for the backend to see the verification transfer.
type PaymentVerification struct {
	deps     *app.Dependencies
	screen   *flow.Screen[PaymentState, PaymentEvent]
	lt       *flow.Lifetime
	poller   *poll.Poller
	done     func(PaymentResult) bool
	finished bool
}

var paymentSuccess = []domain.Status{
	domain.StatusAuthorizationRequired,
	domain.StatusConfirmationRequired,
	domain.StatusSuccessful,
	domain.StatusConfirmed,
}

func NewPaymentVerification(deps *app.Dependencies) *PaymentVerification {
	return &PaymentVerification{deps: deps}
}

func (p *PaymentVerification) Perform(uid string, done func(PaymentResult) bool) flow.Showable {
	p.done = done
	p.lt = flow.NewLifetime(p.deps.Context)
	p.screen = flow.NewScreen("payment_verification", PaymentState{Phase: "waiting"}, paymentEvents)
	p.screen.Bind(flow.HandlerFunc[PaymentEvent](func(PaymentEvent) {
		p.finish(PaymentResult{Err: domain.UserCanceled()})
	}))
	p.screen.OnAppear(func() {
		p.poller = poll.Start(p.deps.Runtime, p.lt, poll.Options{
			Interval: p.deps.Settings.PollInterval,
			Name:     "payment",
			Observe:  func(k poll.Kind) { p.deps.Metrics.ObserveStatusPoll(k.String()) },
		}, func(ctx context.Context) (domain.Identification, error) {
			return p.deps.Service.GetIdentification(ctx, uid)
		}, poll.StatusClassifier(paymentSuccess...), func(out poll.Outcome) {
			p.screen.UpdateView(PaymentState{Phase: out.Kind.String(), Status: out.Identification.Status})
			p.finish(PaymentResult{Outcome: out})
		})
	})
	return p.screen
}

func (p *PaymentVerification) finish(res PaymentResult) {
	if p.finished {
		return
	}
	p.finished = true
	p.lt.End()
	p.done(res)
}

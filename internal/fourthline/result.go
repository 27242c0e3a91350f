package fourthline

import (
	"context"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/poll"
)

type ResultState struct {
	Phase  string        `json:"phase"`
	Status domain.Status `json:"status,omitempty"`
}

type ResultEvent interface{ isResultEvent() }

func (Quit) isResultEvent() {}

var resultEvents = flow.EventDecoder[ResultEvent]{
	"quit": flow.As[Quit, ResultEvent](),
}

type resultOutput struct {
	Outcome poll.Outcome
	Err     error
}

var resultSuccess = poll.StatusClassifier(domain.StatusSuccessful, domain.StatusConfirmed)

// ClassifyResult routes a Fourthline status. A signing step continues in
// the bank flow's signing step.
func ClassifyResult(ident domain.Identification) poll.Outcome {
	if ident.NextStep != nil && ident.NextStep.IsSpecified() && !ident.Status.IsFailure() {
		return poll.Outcome{Kind: poll.Rerouted, Identification: ident, Step: signingStep(*ident.NextStep)}
	}
	out := resultSuccess(ident)
	if out.Kind == poll.Rerouted {
		out.Step = signingStep(out.Step)
	}
	return out
}

func signingStep(step domain.IdentificationStep) domain.IdentificationStep {
	if step == domain.StepFourthlineSigning {
		return domain.StepBankIDQES
	}
	return step
}

// Result waits for Fourthline to process the upload.
type Result struct {
	deps   *app.Dependencies
	screen *flow.Screen[ResultState, ResultEvent]
	lt     *flow.Lifetime
	done   func(resultOutput) bool
	over   bool
}

func NewResult(deps *app.Dependencies) *Result {
	return &Result{deps: deps}
}

func (a *Result) Perform(uid string, done func(resultOutput) bool) flow.Showable {
	a.done = done
	a.lt = flow.NewLifetime(a.deps.Context)
	a.screen = flow.NewScreen("fourthline_result", ResultState{Phase: "processing"}, resultEvents)
	a.screen.Bind(flow.HandlerFunc[ResultEvent](func(ResultEvent) {
		a.finish(resultOutput{Err: domain.UserCanceled()})
	}))
	a.screen.OnAppear(func() {
		poll.Start(a.deps.Runtime, a.lt, poll.Options{
			Interval: a.deps.Settings.PollInterval,
			Name:     "fourthline_result",
			Observe:  func(k poll.Kind) { a.deps.Metrics.ObserveStatusPoll(k.String()) },
		}, func(ctx context.Context) (domain.Identification, error) {
			return a.deps.Service.ObtainFourthlineIdentificationStatus(ctx, uid)
		}, ClassifyResult, func(out poll.Outcome) {
			a.screen.UpdateView(ResultState{Phase: out.Kind.String(), Status: out.Identification.Status})
			a.finish(resultOutput{Outcome: out})
		})
	})
	return a.screen
}

func (a *Result) finish(out resultOutput) {
	if a.over {
		return
	}
	a.over = true
	a.lt.End()
	a.done(out)
}

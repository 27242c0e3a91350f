// Package poll implements the status-polling loop shared by payment
// verification, document signing and the Fourthline result screen.
package poll

import (
	"context"
	"time"

	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/platform/scheduler"
)

// DefaultInterval between two status checks.
const DefaultInterval = 3 * time.Second

// Kind is the disposition of one status check.
type Kind int

const (
	Continue Kind = iota
	Succeeded
	Rerouted
	Failed
)

func (k Kind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Succeeded:
		return "succeeded"
	case Rerouted:
		return "rerouted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is a classified status check.
type Outcome struct {
	Kind           Kind
	Identification domain.Identification
	Step           domain.IdentificationStep
	Err            error
}

// Fetch loads the current identification state.
type Fetch func(ctx context.Context) (domain.Identification, error)

// Classifier turns a fetched identification into an Outcome.
type Classifier func(domain.Identification) Outcome

// Options tune a Poller. Zero values use the defaults.
type Options struct {
	Interval time.Duration
	Name     string
	// Observe is told the disposition of every completed check.
	Observe func(Kind)
}

// Poller owns one repeating handle. The handle is cancelled exactly once,
// before the terminal outcome is delivered.
type Poller struct {
	rt       flow.Runtime
	lt       *flow.Lifetime
	fetch    Fetch
	classify Classifier
	deliver  func(Outcome)
	opts     Options

	handle   *scheduler.Handle
	inFlight bool
	finished bool
	checks   int
}

// Start begins polling on the main context. The first check runs one
// interval from now.
func Start(rt flow.Runtime, lt *flow.Lifetime, opts Options, fetch Fetch, classify Classifier, onOutcome func(Outcome)) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	p := &Poller{
		rt:       rt,
		lt:       lt,
		fetch:    fetch,
		classify: classify,
		deliver:  onOutcome,
		opts:     opts,
	}
	p.handle = lt.Track(rt.Sched.Repeat(opts.Interval, p.tick))
	return p
}

// Stop cancels polling without delivering an outcome.
func (p *Poller) Stop() {
	p.finished = true
	p.handle.Cancel()
}

// Active reports whether another check may still run.
func (p *Poller) Active() bool {
	return p.handle.Active()
}

// Checks returns how many fetches were issued.
func (p *Poller) Checks() int {
	return p.checks
}

func (p *Poller) tick() {
	if p.finished || p.inFlight {
		return
	}
	if !p.lt.Alive() {
		p.finished = true
		p.handle.Cancel()
		return
	}
	p.inFlight = true
	p.checks++
	flow.Async(p.rt, p.lt, func(ctx context.Context) (domain.Identification, error) {
		return p.fetch(ctx)
	}, p.complete)
}

func (p *Poller) complete(ident domain.Identification, err error) {
	p.inFlight = false
	if p.finished {
		return
	}
	if err != nil {
		p.rt.Logger.Warn("status check failed; polling continues", "poll", p.opts.Name, "error", err)
		p.observe(Continue)
		return
	}

	out := p.classify(ident)
	p.observe(out.Kind)
	if out.Kind == Continue {
		return
	}
	p.finished = true
	p.handle.Cancel()
	p.rt.Logger.Debug("status poll finished", "poll", p.opts.Name, "outcome", out.Kind.String(), "status", ident.Status)
	p.deliver(out)
}

func (p *Poller) observe(k Kind) {
	if p.opts.Observe != nil {
		p.opts.Observe(k)
	}
}

// StatusClassifier treats the given statuses as success and failure statuses
// as terminal, routed by the server hints. Anything else keeps polling.
func StatusClassifier(success ...domain.Status) Classifier {
	ok := make(map[domain.Status]struct{}, len(success))
	for _, s := range success {
		ok[s] = struct{}{}
	}
	return func(ident domain.Identification) Outcome {
		if _, done := ok[ident.Status]; done {
			return Outcome{Kind: Succeeded, Identification: ident}
		}
		if !ident.Status.IsFailure() {
			return Outcome{Kind: Continue, Identification: ident}
		}
		if ident.NextStep != nil && ident.NextStep.IsSpecified() {
			return Outcome{Kind: Rerouted, Identification: ident, Step: *ident.NextStep}
		}
		if ident.FallbackStep != nil && ident.FallbackStep.IsSpecified() {
			return Outcome{Kind: Rerouted, Identification: ident, Step: *ident.FallbackStep}
		}
		return Outcome{
			Kind:           Failed,
			Identification: ident,
			Err: domain.IdentificationFailed(&domain.ErrorDetail{
				ID:     ident.ID,
				Code:   string(ident.Status),
				Detail: "identification ended with status " + string(ident.Status),
			}),
		}
	}
}

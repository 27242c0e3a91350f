package fourthline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/session"
)

type FetchPhase string

const (
	FetchLoading FetchPhase = "loading"
	FetchFailed  FetchPhase = "failed"
)

type FetchState struct {
	Phase     FetchPhase       `json:"phase"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type FetchEvent interface{ isFetchEvent() }

func (Retry) isFetchEvent() {}
func (Quit) isFetchEvent()  {}

var fetchEvents = flow.EventDecoder[FetchEvent]{
	"retry": flow.As[Retry, FetchEvent](),
	"quit":  flow.As[Quit, FetchEvent](),
}

type fetched struct {
	person domain.PersonData
	ip     domain.IPAddress
}

// FetchData registers the Fourthline identification if needed, then loads
// person data and the public IP in parallel.
type FetchData struct {
	deps   *app.Dependencies
	kyc    *KYCContainer
	screen *flow.Screen[FetchState, FetchEvent]
	lt     *flow.Lifetime
	done   func(stepResult) bool
	over   bool
}

func NewFetchData(deps *app.Dependencies, kyc *KYCContainer) *FetchData {
	return &FetchData{deps: deps, kyc: kyc}
}

func (a *FetchData) Perform(_ struct{}, done func(stepResult) bool) flow.Showable {
	a.done = done
	a.screen = flow.NewScreen("fetch_data", FetchState{Phase: FetchLoading}, fetchEvents)
	a.screen.Bind(flow.HandlerFunc[FetchEvent](a.handle))
	a.screen.OnAppear(a.run)
	return a.screen
}

func (a *FetchData) handle(e FetchEvent) {
	if a.over {
		return
	}
	switch e.(type) {
	case Retry:
		if a.screen.State().Phase == FetchFailed {
			a.run()
		}
	case Quit:
		a.finish(stepResult{Err: domain.UserCanceled()})
	}
}

func (a *FetchData) run() {
	if a.lt != nil {
		a.lt.End()
	}
	a.lt = flow.NewLifetime(a.deps.Context)
	a.screen.UpdateView(FetchState{Phase: FetchLoading})

	if a.deps.Session.IdentificationUID() != "" {
		a.load(a.deps.Session.IdentificationUID())
		return
	}
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (domain.FourthlineIdentification, error) {
		return a.deps.Service.GetFourthlineIdentification(ctx)
	}, func(ident domain.FourthlineIdentification, err error) {
		if err != nil {
			a.fail(err)
			return
		}
		if err := a.deps.Session.Update(a.deps.Context, func(s *session.State) {
			s.IdentificationUID = ident.ID
			if ident.Provider != "" {
				s.Provider = ident.Provider
			}
		}); err != nil {
			a.finish(stepResult{Err: err})
			return
		}
		a.load(ident.ID)
	})
}

func (a *FetchData) load(uid string) {
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (fetched, error) {
		var out fetched
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			person, err := a.deps.Service.FetchPersonData(ctx, uid)
			out.person = person
			return err
		})
		g.Go(func() error {
			ip, err := a.deps.Service.FetchIPAddress(ctx)
			out.ip = ip
			return err
		})
		err := g.Wait()
		return out, err
	}, func(out fetched, err error) {
		if err != nil {
			a.fail(err)
			return
		}
		person := out.person
		a.kyc.Person = &person
		a.kyc.IPAddress = out.ip.IP
		a.kyc.Provider = a.deps.Session.Provider()
		a.finish(stepResult{})
	})
}

func (a *FetchData) fail(err error) {
	a.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
	a.screen.UpdateView(FetchState{Phase: FetchFailed, ErrorKind: domain.KindOf(err), Error: err.Error()})
}

func (a *FetchData) finish(res stepResult) {
	a.over = true
	if a.lt != nil {
		a.lt.End()
	}
	a.done(res)
}

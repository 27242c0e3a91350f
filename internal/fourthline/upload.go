package fourthline

import (
	"context"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

type UploadPhase string

const (
	UploadRunning UploadPhase = "uploading"
	UploadFailed  UploadPhase = "failed"
)

type UploadState struct {
	Phase     UploadPhase      `json:"phase"`
	Size      int              `json:"size,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type UploadEvent interface{ isUploadEvent() }

func (Retry) isUploadEvent() {}
func (Quit) isUploadEvent()  {}

var uploadEvents = flow.EventDecoder[UploadEvent]{
	"retry": flow.As[Retry, UploadEvent](),
	"quit":  flow.As[Quit, UploadEvent](),
}

// Upload archives the KYC container and sends it to the backend.
type Upload struct {
	deps   *app.Dependencies
	kyc    *KYCContainer
	screen *flow.Screen[UploadState, UploadEvent]
	lt     *flow.Lifetime
	done   func(stepResult) bool
	over   bool
}

func NewUpload(deps *app.Dependencies, kyc *KYCContainer) *Upload {
	return &Upload{deps: deps, kyc: kyc}
}

func (a *Upload) Perform(_ struct{}, done func(stepResult) bool) flow.Showable {
	a.done = done
	a.screen = flow.NewScreen("upload", UploadState{Phase: UploadRunning}, uploadEvents)
	a.screen.Bind(flow.HandlerFunc[UploadEvent](a.handle))
	a.screen.OnAppear(a.run)
	return a.screen
}

func (a *Upload) handle(e UploadEvent) {
	if a.over {
		return
	}
	switch e.(type) {
	case Retry:
		if a.screen.State().Phase == UploadFailed {
			a.run()
		}
	case Quit:
		a.finish(stepResult{Err: domain.UserCanceled()})
	}
}

func (a *Upload) run() {
	archive, err := a.kyc.Archive(a.deps.Runtime.Clock.Now())
	if err != nil {
		a.deps.Logger.Error("kyc archive incomplete", "error", err)
		a.finish(stepResult{Err: domain.IdentificationFailed(&domain.ErrorDetail{Detail: err.Error()})})
		return
	}
	if a.lt != nil {
		a.lt.End()
	}
	a.lt = flow.NewLifetime(a.deps.Context)
	a.screen.UpdateView(UploadState{Phase: UploadRunning, Size: len(archive)})

	uid := a.deps.Session.IdentificationUID()
	end := a.deps.Tasks.Begin("kyc_upload")
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (domain.Identification, error) {
		defer end()
		return a.deps.Service.UploadKYCZip(ctx, uid, archive)
	}, func(_ domain.Identification, err error) {
		if err != nil {
			a.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
			a.screen.UpdateView(UploadState{Phase: UploadFailed, ErrorKind: domain.KindOf(err), Error: err.Error()})
			return
		}
		a.finish(stepResult{})
	})
}

func (a *Upload) finish(res stepResult) {
	a.over = true
	if a.lt != nil {
		a.lt.End()
	}
	a.done(res)
}

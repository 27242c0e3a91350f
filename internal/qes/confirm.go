package qes

import (
	"context"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

type ConfirmPhase string

const (
	ConfirmLoading ConfirmPhase = "loading"
	ConfirmReady   ConfirmPhase = "ready"
	ConfirmFailed  ConfirmPhase = "failed"
)

type ConfirmState struct {
	Phase      ConfirmPhase              `json:"phase"`
	Documents  []domain.ContractDocument `json:"documents"`
	Downloaded map[string]string         `json:"downloaded,omitempty"`
	ErrorKind  domain.ErrorKind          `json:"error_kind,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

type ConfirmEvent interface{ isConfirmEvent() }

// Download saves one contract document for preview.
type Download struct {
	DocumentID string `json:"document_id"`
}

// ConfirmDocuments accepts the documents and moves on to signing.
type ConfirmDocuments struct{}

func (Download) isConfirmEvent()         {}
func (ConfirmDocuments) isConfirmEvent() {}
func (Retry) isConfirmEvent()            {}
func (Quit) isConfirmEvent()             {}

var confirmEvents = flow.EventDecoder[ConfirmEvent]{
	"download": flow.As[Download, ConfirmEvent](),
	"confirm":  flow.As[ConfirmDocuments, ConfirmEvent](),
	"retry":    flow.As[Retry, ConfirmEvent](),
	"quit":     flow.As[Quit, ConfirmEvent](),
}

type ConfirmOutputKind int

const (
	// ConfirmPreview is not terminal: a document was saved at Path.
	ConfirmPreview ConfirmOutputKind = iota
	ConfirmAccepted
	ConfirmQuit
)

type ConfirmOutput struct {
	Kind ConfirmOutputKind
	Path string
}

// ConfirmApplication lists the contract documents and lets the user preview
// them before signing.
type ConfirmApplication struct {
	deps   *app.Dependencies
	uid    string
	screen *flow.Screen[ConfirmState, ConfirmEvent]
	lt     *flow.Lifetime
	done   func(ConfirmOutput) bool
	ended  bool
}

func NewConfirmApplication(deps *app.Dependencies) *ConfirmApplication {
	return &ConfirmApplication{deps: deps}
}

func (a *ConfirmApplication) Perform(uid string, done func(ConfirmOutput) bool) flow.Showable {
	a.uid = uid
	a.done = done
	a.lt = flow.NewLifetime(a.deps.Context)
	a.screen = flow.NewScreen("confirm_application", ConfirmState{Phase: ConfirmLoading}, confirmEvents)
	a.screen.Bind(flow.HandlerFunc[ConfirmEvent](a.handle))
	a.screen.OnAppear(a.load)
	return a.screen
}

func (a *ConfirmApplication) load() {
	a.update(func(s *ConfirmState) { s.Phase = ConfirmLoading })
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (domain.Identification, error) {
		return a.deps.Service.GetIdentification(ctx, a.uid)
	}, func(ident domain.Identification, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		a.update(func(s *ConfirmState) {
			s.Phase = ConfirmReady
			s.Documents = ident.Documents
			s.ErrorKind = ""
			s.Error = ""
		})
	})
}

func (a *ConfirmApplication) handle(e ConfirmEvent) {
	if a.ended {
		return
	}
	state := a.screen.State()
	switch e := e.(type) {
	case Download:
		if state.Phase == ConfirmReady {
			a.download(e.DocumentID)
		}
	case ConfirmDocuments:
		if state.Phase == ConfirmReady {
			a.finish(ConfirmOutput{Kind: ConfirmAccepted})
		}
	case Retry:
		if state.Phase == ConfirmFailed {
			a.load()
		}
	case Quit:
		a.finish(ConfirmOutput{Kind: ConfirmQuit})
	}
}

func (a *ConfirmApplication) download(documentID string) {
	flow.Async(a.deps.Runtime, a.lt, func(ctx context.Context) (string, error) {
		return a.deps.Service.DownloadAndSaveDocument(ctx, a.uid, documentID)
	}, func(path string, err error) {
		if err != nil {
			a.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
			a.update(func(s *ConfirmState) {
				s.ErrorKind = domain.KindOf(err)
				s.Error = err.Error()
			})
			return
		}
		a.update(func(s *ConfirmState) {
			downloaded := make(map[string]string, len(s.Downloaded)+1)
			for id, p := range s.Downloaded {
				downloaded[id] = p
			}
			downloaded[documentID] = path
			s.Downloaded = downloaded
		})
		a.done(ConfirmOutput{Kind: ConfirmPreview, Path: path})
	})
}

func (a *ConfirmApplication) showError(err error) {
	a.deps.Metrics.ObserveAPIError(string(domain.KindOf(err)))
	a.update(func(s *ConfirmState) {
		s.Phase = ConfirmFailed
		s.ErrorKind = domain.KindOf(err)
		s.Error = err.Error()
	})
}

func (a *ConfirmApplication) update(fn func(*ConfirmState)) {
	state := a.screen.State()
	fn(&state)
	a.screen.UpdateView(state)
}

func (a *ConfirmApplication) finish(out ConfirmOutput) {
	a.ended = true
	a.lt.End()
	a.done(out)
}

// Package apptest wires a session graph against a mocked backend, a manual
// clock and a recording presenter, with everything running inline.
package apptest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"identhub/internal/app"
	"identhub/internal/audit"
	"identhub/internal/flow"
	"identhub/internal/flow/flowtest"
	"identhub/internal/platform/clock"
	"identhub/internal/platform/mainloop"
	"identhub/internal/platform/metrics"
	"identhub/internal/session"
	"identhub/internal/storage"
	"identhub/internal/verification/mocks"
)

const Token = "session-token"

var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type Harness struct {
	Ctrl      *gomock.Controller
	Service   *mocks.MockService
	Presenter *flowtest.Presenter
	Clock     *clock.Fake
	Store     *storage.Memory
	Session   *session.Provider
	Audit     *audit.Publisher
	Factory   *app.Factory
	Registry  *prometheus.Registry
	Deps      *app.Dependencies
}

func New(t *testing.T) *Harness {
	t.Helper()
	return NewWithStore(t, storage.NewMemory())
}

// NewWithStore opens the session against an existing store, for resume tests.
func NewWithStore(t *testing.T, store *storage.Memory) *Harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := clock.NewFake(Epoch)
	ctrl := gomock.NewController(t)

	sess, err := session.Open(ctx, store, Token, session.WithClock(fake), session.WithLogger(logger))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	publisher := audit.NewPublisher(256, audit.WithLogger(logger), audit.WithClock(fake.Now))
	t.Cleanup(publisher.Close)

	h := &Harness{
		Ctrl:      ctrl,
		Service:   mocks.NewMockService(ctrl),
		Presenter: &flowtest.Presenter{},
		Clock:     fake,
		Store:     store,
		Session:   sess,
		Audit:     publisher,
		Factory:   app.NewFactory(),
		Registry:  reg,
	}
	h.Deps = &app.Dependencies{
		Context:      ctx,
		Runtime:      flow.NewRuntime(mainloop.Inline{}, fake, logger),
		Service:      h.Service,
		Session:      sess,
		Presenter:    h.Presenter,
		Actions:      flow.NewActionPerformer(logger),
		Coordinators: flow.NewCoordinatorPerformer(logger),
		Modules:      h.Factory,
		Settings:     app.DefaultSettings(),
		Metrics:      metrics.New(reg),
		Audit:        publisher,
		Tasks:        app.NoBackgroundTasks{},
		Logger:       logger,
	}
	return h
}

// Events drains the audit events emitted so far.
func (h *Harness) Events() []audit.Event {
	var out []audit.Event
	for {
		select {
		case ev, ok := <-h.Audit.Inbox():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Dispatch sends a wire event to the screen on top of the presenter.
func (h *Harness) Dispatch(t *testing.T, event string, payload string) {
	t.Helper()
	top, ok := h.Presenter.TopShowable().(flow.Interactive)
	require.True(t, ok, "top showable is not interactive")
	var raw []byte
	if payload != "" {
		raw = []byte(payload)
	}
	require.NoError(t, top.Dispatch(event, raw))
}

// TopName returns the name of the showable on top, or "".
func (h *Harness) TopName() string {
	if top := h.Presenter.TopShowable(); top != nil {
		return top.Name()
	}
	return ""
}

// Result captures the single result of a coordinator.
type Result[T any] struct {
	Calls int
	Last  flow.Result[T]
}

func (r *Result[T]) Done(res flow.Result[T]) {
	r.Calls++
	r.Last = res
}

// Package hub is the host-facing entry point: one Session per
// identification, started at most once at a time per process.
package hub

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"identhub/internal/app"
	"identhub/internal/audit"
	"identhub/internal/bankid"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/fourthline"
	"identhub/internal/ident"
	"identhub/internal/modules"
	"identhub/internal/platform/clock"
	"identhub/internal/platform/mainloop"
	"identhub/internal/platform/metrics"
	"identhub/internal/qes"
	"identhub/internal/session"
	"identhub/internal/storage"
	"identhub/internal/verification"
)

// Delegate receives the terminal result through callbacks.
type Delegate interface {
	DidFinishWithSuccess(identification domain.Identification)
	DidFinishOnConfirm(identification domain.Identification)
	DidFinishWithFailure(err *domain.APIError)
}

type Option func(*Session)

func WithRegistry(r *Registry) Option { return func(s *Session) { s.registry = r } }

func WithService(svc verification.Service) Option { return func(s *Session) { s.service = svc } }

func WithBackend(b session.Backend) Option { return func(s *Session) { s.backend = b } }

func WithExecutor(e mainloop.Executor) Option { return func(s *Session) { s.exec = e } }

func WithClock(c clock.Clock) Option { return func(s *Session) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Session) { s.metrics = m } }

func WithAudit(p *audit.Publisher) Option { return func(s *Session) { s.audit = p } }

func WithSettings(st app.Settings) Option { return func(s *Session) { s.settings = st } }

func WithTasks(t app.BackgroundTasks) Option { return func(s *Session) { s.tasks = t } }

// WithModules links only the named optional modules. All are linked by default.
func WithModules(set modules.Set) Option { return func(s *Session) { s.modules = set } }

// WithBaseURL overrides the backend URL derived from the session URL.
func WithBaseURL(u string) Option { return func(s *Session) { s.baseURL = u } }

// WithClientOptions passes options to the default HTTP verification client.
func WithClientOptions(opts ...verification.ClientOption) Option {
	return func(s *Session) { s.clientOpts = append(s.clientOpts, opts...) }
}

// Session is one identification run for the host application.
type Session struct {
	id         string
	token      string
	baseURL    string
	presenter  flow.Presenter
	registry   *Registry
	service    verification.Service
	backend    session.Backend
	exec       mainloop.Executor
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      *audit.Publisher
	settings   app.Settings
	tasks      app.BackgroundTasks
	modules    modules.Set
	clientOpts []verification.ClientOption

	deps     *app.Dependencies
	cancel   context.CancelFunc
	done     func(domain.SessionResult)
	started  atomic.Bool
	finished atomic.Bool
	result   atomic.Pointer[domain.SessionResult]
}

// New parses the session token out of sessionURL, either from a `token` query
// parameter or from the last path segment.
func New(sessionURL string, presenter flow.Presenter, opts ...Option) (*Session, error) {
	u, err := url.Parse(strings.TrimSpace(sessionURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.RequestError(errInvalidSessionURL)
	}
	token := u.Query().Get("token")
	if token == "" {
		token = path.Base(strings.TrimSuffix(u.Path, "/"))
	}
	if token == "" || token == "." || token == "/" {
		return nil, domain.RequestError(errInvalidSessionURL)
	}

	s := &Session{
		id:        uuid.NewString(),
		token:     token,
		baseURL:   u.Scheme + "://" + u.Host,
		presenter: presenter,
		registry:  DefaultRegistry,
		exec:      mainloop.Inline{},
		clock:     clock.Real{},
		logger:    slog.Default(),
		settings:  app.DefaultSettings(),
		tasks:     app.NoBackgroundTasks{},
		modules:   modules.NewSet(modules.Core, modules.Bank, modules.Fourthline, modules.QES),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = storage.NewMemory()
	}
	if s.service == nil {
		clientOpts := append([]verification.ClientOption{
			verification.WithLogger(s.logger),
			verification.WithMetrics(s.metrics),
			verification.WithDownloadDir(s.settings.DownloadDir),
		}, s.clientOpts...)
		s.service = verification.NewClient(s.baseURL, token, clientOpts...)
	}
	return s, nil
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Token() string { return s.token }

// Result returns the terminal result once the session has finished.
func (s *Session) Result() (domain.SessionResult, bool) {
	r := s.result.Load()
	if r == nil {
		return domain.SessionResult{}, false
	}
	return *r, true
}

// Start runs the identification. done is called exactly once. While another
// session is active it fails at once with identification_not_possible and
// presents nothing.
func (s *Session) Start(ctx context.Context, done func(domain.SessionResult)) {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Warn("session started twice", "session_id", s.id)
		return
	}
	s.done = done

	if !s.registry.TryAcquire(s.id) {
		active, _ := s.registry.Active()
		s.logger.Warn("rejecting session while another is active", "session_id", s.id, "active", active)
		s.metrics.IncrementSessionsRejected()
		s.audit.Emit(ctx, audit.Event{SessionID: s.token, Coordinator: "hub", Action: audit.ActionSessionRejected})
		s.deliver(domain.FailureResult(domain.IdentificationNotPossible()), false)
		return
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	provider, err := session.Open(sessionCtx, s.backend, s.token, session.WithClock(s.clock), session.WithLogger(s.logger))
	if err != nil {
		s.deliver(domain.FailureResult(domain.RequestError(err)), true)
		return
	}

	logger := s.logger.With("session_id", s.id)
	s.deps = &app.Dependencies{
		Context:      sessionCtx,
		Runtime:      flow.NewRuntime(s.exec, s.clock, logger),
		Service:      s.service,
		Session:      provider,
		Presenter:    s.presenter,
		Actions:      flow.NewActionPerformer(logger),
		Coordinators: flow.NewCoordinatorPerformer(logger),
		Modules:      s.factory(),
		Settings:     s.settings,
		Metrics:      s.metrics,
		Audit:        s.audit,
		Tasks:        s.tasks,
		Logger:       logger,
	}
	s.metrics.IncrementSessionsStarted()
	s.deps.Emit("hub", audit.ActionSessionStarted, "", s.id)
	logger.Info("identification session started")

	s.exec.Post(func() {
		flow.StartCoordinator(s.deps.Coordinators, ident.New(s.deps), struct{}{}, s.onFinished)
	})
}

// StartWithDelegate is Start with callbacks per result kind.
func (s *Session) StartWithDelegate(ctx context.Context, d Delegate) {
	s.Start(ctx, func(r domain.SessionResult) {
		switch r.Kind {
		case domain.ResultSuccess:
			d.DidFinishWithSuccess(*r.Identification)
		case domain.ResultConfirm:
			d.DidFinishOnConfirm(*r.Identification)
		default:
			d.DidFinishWithFailure(r.Err)
		}
	})
}

// Cancel ends a running session as cancelled by the user.
func (s *Session) Cancel() {
	if s.deps == nil {
		return
	}
	s.exec.Post(func() {
		if s.finished.Load() {
			return
		}
		s.presenter.Dismiss()
		if err := s.deps.Session.Clear(s.deps.Context); err != nil {
			s.logger.Warn("failed to clear session storage", "error", err)
		}
		s.deliver(domain.FailureResult(domain.UserCanceled()), true)
	})
}

func (s *Session) factory() *app.Factory {
	f := app.NewFactory()
	if s.modules.Has(modules.Bank) {
		f.LinkBankID(bankid.Constructor)
	}
	if s.modules.Has(modules.Fourthline) {
		f.LinkFourthline(fourthline.Constructor)
	}
	if s.modules.Has(modules.QES) {
		f.LinkQES(qes.Constructor)
	}
	return f
}

func (s *Session) onFinished(res flow.Result[domain.FlowOutput]) {
	s.deliver(toSessionResult(res), true)
}

func toSessionResult(res flow.Result[domain.FlowOutput]) domain.SessionResult {
	if res.Err != nil {
		return domain.FailureResult(res.Err)
	}
	out := res.Value
	if out.Identification == nil {
		return domain.FailureResult(domain.UnsupportedResponse())
	}
	switch out.Kind {
	case domain.OutputComplete:
		return domain.SuccessResult(*out.Identification)
	case domain.OutputConfirm:
		return domain.ConfirmResult(*out.Identification)
	}
	return domain.FailureResult(domain.UnsupportedResponse())
}

func (s *Session) deliver(r domain.SessionResult, owned bool) {
	if !s.finished.CompareAndSwap(false, true) {
		return
	}
	s.result.Store(&r)
	if owned {
		s.registry.Release(s.id)
		s.metrics.ObserveSessionResult(r.Kind.String())
		if s.cancel != nil {
			s.cancel()
		}
	}
	if r.Err != nil {
		s.logger.Info("identification session failed", "session_id", s.id, "error_kind", r.Err.Kind)
	} else {
		s.logger.Info("identification session finished", "session_id", s.id, "result", r.Kind.String())
	}
	if s.done != nil {
		s.done(r)
	}
}

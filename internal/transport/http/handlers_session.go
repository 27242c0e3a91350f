package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"identhub/internal/domain"
	"identhub/internal/headless"
	"identhub/internal/hub"
	"identhub/internal/platform/clock"
	"identhub/internal/platform/mainloop"
	dErrors "identhub/pkg/domain-errors"
	"identhub/pkg/platform/httputil"
	"identhub/pkg/requestcontext"
)

const (
	dispatchTimeout = 10 * time.Second
	// finishedRetention is how long a finished session's result stays readable.
	finishedRetention = 5 * time.Minute
)

// hosted is one session driven through the API.
type hosted struct {
	session   *hub.Session
	presenter *headless.Presenter
	finished  chan struct{}
}

func (e *hosted) done() bool {
	select {
	case <-e.finished:
		return true
	default:
		return false
	}
}

// SessionHandler hosts identification sessions for remote renderers. Flow
// state is only touched on the executor; handlers read snapshots.
type SessionHandler struct {
	ctx      context.Context
	exec     mainloop.Executor
	registry *hub.Registry
	logger   *slog.Logger
	options  []hub.Option

	clock     clock.Clock
	retention time.Duration

	mu       sync.Mutex
	sessions map[string]*hosted
}

// NewSessionHandler creates a handler. Sessions live until ctx is done, not
// until the request that started them ends. A finished session's result stays
// readable for finishedRetention.
func NewSessionHandler(ctx context.Context, exec mainloop.Executor, registry *hub.Registry, logger *slog.Logger, opts ...hub.Option) *SessionHandler {
	if registry == nil {
		registry = hub.DefaultRegistry
	}
	return &SessionHandler{
		ctx:       ctx,
		exec:      exec,
		registry:  registry,
		logger:    logger,
		options:   opts,
		clock:     clock.Real{},
		retention: finishedRetention,
		sessions:  make(map[string]*hosted),
	}
}

// Register mounts the session routes on r.
func (h *SessionHandler) Register(r chi.Router) {
	r.Route("/v1/session", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Delete("/", h.handleCancel)
		r.Get("/screen", h.handleScreen)
		r.Post("/events", h.handleEvent)
		r.Get("/result", h.handleResult)
		r.Get("/stream", h.handleStream)
	})
}

func (h *SessionHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.SessionURL) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "session_url is required"))
		return
	}
	if active, ok := h.registry.Active(); ok {
		h.logger.InfoContext(r.Context(), "start rejected, session active", "active", active)
		httputil.WriteError(w, dErrors.New(dErrors.CodeSessionActive, "another identification session is running"))
		return
	}

	presenter := headless.New(h.logger)
	opts := append([]hub.Option{
		hub.WithRegistry(h.registry),
		hub.WithExecutor(h.exec),
		hub.WithLogger(h.logger),
	}, h.options...)
	sess, err := hub.New(req.SessionURL, presenter, opts...)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid session_url"))
		return
	}

	token := sess.Token()
	entry := &hosted{session: sess, presenter: presenter, finished: make(chan struct{})}
	h.mu.Lock()
	if prev, ok := h.sessions[token]; ok && !prev.done() {
		h.mu.Unlock()
		httputil.WriteError(w, dErrors.New(dErrors.CodeSessionActive, "session is already running"))
		return
	}
	h.sessions[token] = entry
	h.mu.Unlock()

	sess.Start(h.ctx, func(domain.SessionResult) {
		close(entry.finished)
		h.expire(token, entry)
	})

	resp := startResponse{SessionID: sess.ID(), Token: sess.Token()}
	if view, ok := presenter.Current(); ok {
		resp.Screen = &view
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *SessionHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry.session.Cancel()
	w.WriteHeader(http.StatusAccepted)
}

func (h *SessionHandler) handleScreen(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, ok := entry.presenter.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *SessionHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.Event == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "event is required"))
		return
	}
	if err := h.dispatch(r.Context(), entry, req.Event, req.Payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, ok := entry.presenter.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *SessionHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, ok := entry.session.Result()
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, resultResponse{Result: resultPending})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

// dispatch hands the event to the flow's main context and waits for the
// screen to accept or reject it.
func (h *SessionHandler) dispatch(ctx context.Context, entry *hosted, event string, payload json.RawMessage) error {
	if entry.done() {
		return dErrors.New(dErrors.CodeInvalidState, "session already finished")
	}

	errCh := make(chan error, 1)
	h.exec.Post(func() {
		errCh <- entry.presenter.Dispatch(event, payload)
	})

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeUnavailable, "flow did not accept the event")
	}
}

// expire forgets a finished session after the retention period, unless its
// token has been started again in the meantime.
func (h *SessionHandler) expire(token string, entry *hosted) {
	h.clock.AfterFunc(h.retention, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.sessions[token] == entry {
			delete(h.sessions, token)
			h.logger.Debug("finished session expired", "session_id", entry.session.ID())
		}
	})
}

// lookup finds the session named by the request's token, taken from the
// session token middleware or a `token` query parameter.
func (h *SessionHandler) lookup(r *http.Request) (*hosted, error) {
	token := requestcontext.SessionID(r.Context())
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "missing session token")
	}
	h.mu.Lock()
	entry, ok := h.sessions[token]
	h.mu.Unlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return entry, nil
}

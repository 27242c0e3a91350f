package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"identhub/internal/domain"
	"identhub/internal/platform/clock"
	"identhub/pkg/platform/sentinel"
)

// StorageKey is the single key the session blob lives under.
const StorageKey = "identhub.session"

// Backend is the subset of storage.Backend the provider uses.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// Provider gives typed access to the session state and writes every change
// through to the backend before returning.
type Provider struct {
	mu      sync.Mutex
	backend Backend
	state   State
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithClock(c clock.Clock) Option {
	return func(p *Provider) {
		p.clock = c
	}
}

// Open restores the state stored for token. Anything stored for another token,
// or anything unreadable, is discarded.
func Open(ctx context.Context, backend Backend, token string, opts ...Option) (*Provider, error) {
	p := &Provider{
		backend: backend,
		clock:   clock.Real{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	blob, err := backend.Load(ctx, StorageKey)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	state, restored := Reconcile(blob, token)
	p.state = state
	if !restored && len(blob) > 0 {
		p.logger.InfoContext(ctx, "discarding stored session state", "reason", "token mismatch or unreadable blob")
		if err := backend.Delete(ctx, StorageKey); err != nil {
			return nil, fmt.Errorf("reset session: %w", err)
		}
	}
	return p, nil
}

// Snapshot returns a copy of the current state.
func (p *Provider) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Update applies fn to a copy of the state and persists the result as one write.
func (p *Provider) Update(ctx context.Context, fn func(*State)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state
	fn(&next)
	next.UpdatedAt = p.clock.Now().UTC()
	blob, err := Encode(next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := p.backend.Save(ctx, StorageKey, blob); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	p.state = next
	return nil
}

// Clear wipes the stored session, keeping the token bound in memory.
func (p *Provider) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.backend.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.state = Fresh(p.state.Token)
	return nil
}

func (p *Provider) Token() string { return p.Snapshot().Token }

func (p *Provider) MobileNumber() string { return p.Snapshot().MobileNumber }

func (p *Provider) IdentificationUID() string { return p.Snapshot().IdentificationUID }

func (p *Provider) IdentificationStep() domain.IdentificationStep {
	return p.Snapshot().IdentificationStep
}

func (p *Provider) FallbackStep() domain.IdentificationStep { return p.Snapshot().FallbackStep }

func (p *Provider) Retries() int { return p.Snapshot().RetriesOrDefault() }

func (p *Provider) IBANAttempts() int { return p.Snapshot().IBANAttempts }

func (p *Provider) AcceptedTC() bool { return p.Snapshot().AcceptedTC }

func (p *Provider) PhoneVerified() bool { return p.Snapshot().PhoneVerified }

func (p *Provider) Provider() string { return p.Snapshot().Provider }

func (p *Provider) CoordinatorStep() string { return p.Snapshot().CoordinatorStep }

func (p *Provider) BankIDStep() string { return p.Snapshot().BankIDStep }

func (p *Provider) QESStep() string { return p.Snapshot().QESStep }

func (p *Provider) FourthlineStep() string { return p.Snapshot().FourthlineStep }

func (p *Provider) SetMobileNumber(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.MobileNumber = v })
}

func (p *Provider) SetIdentificationUID(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.IdentificationUID = v })
}

func (p *Provider) SetIdentificationStep(ctx context.Context, v domain.IdentificationStep) error {
	return p.Update(ctx, func(s *State) { s.IdentificationStep = v })
}

func (p *Provider) SetFallbackStep(ctx context.Context, v domain.IdentificationStep) error {
	return p.Update(ctx, func(s *State) { s.FallbackStep = v })
}

func (p *Provider) SetRetries(ctx context.Context, v int) error {
	return p.Update(ctx, func(s *State) { s.Retries = v })
}

func (p *Provider) SetIBANAttempts(ctx context.Context, v int) error {
	return p.Update(ctx, func(s *State) { s.IBANAttempts = v })
}

func (p *Provider) SetAcceptedTC(ctx context.Context, v bool) error {
	return p.Update(ctx, func(s *State) { s.AcceptedTC = v })
}

func (p *Provider) SetPhoneVerified(ctx context.Context, v bool) error {
	return p.Update(ctx, func(s *State) { s.PhoneVerified = v })
}

func (p *Provider) SetProvider(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.Provider = v })
}

func (p *Provider) SetCoordinatorStep(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.CoordinatorStep = v })
}

func (p *Provider) SetBankIDStep(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.BankIDStep = v })
}

func (p *Provider) SetQESStep(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.QESStep = v })
}

func (p *Provider) SetFourthlineStep(ctx context.Context, v string) error {
	return p.Update(ctx, func(s *State) { s.FourthlineStep = v })
}

// ApplyInfo stores the server-side view of the identification in one write.
func (p *Provider) ApplyInfo(ctx context.Context, info domain.IdentificationInfo) error {
	return p.Update(ctx, func(s *State) {
		if info.UID != "" {
			s.IdentificationUID = info.UID
		}
		s.IdentificationStep = info.Step
		s.FallbackStep = info.FallbackStep
		s.AcceptedTC = info.AcceptedTC
		s.PhoneVerified = info.PhoneVerified
		if info.Retries > 0 {
			s.Retries = info.Retries
		}
		if info.Provider != "" {
			s.Provider = info.Provider
		}
	})
}

// Package app is the dependency graph one identification session runs on,
// and the link-time registry of optional sub-flows.
package app

import (
	"context"
	"log/slog"
	"time"

	"identhub/internal/audit"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/modules"
	"identhub/internal/platform/config"
	"identhub/internal/platform/metrics"
	"identhub/internal/session"
	"identhub/internal/verification"
)

// Settings are the timing and policy knobs of a session.
type Settings struct {
	PollInterval   time.Duration
	ResendCooldown time.Duration
	DefaultRetries int
	TermsURL       string
	PrivacyURL     string
	DownloadDir    string
}

func DefaultSettings() Settings {
	return SettingsFrom(config.DefaultFlow())
}

func SettingsFrom(f config.Flow) Settings {
	return Settings{
		PollInterval:   f.PollInterval,
		ResendCooldown: f.ResendCooldown,
		DefaultRetries: f.DefaultRetries,
		TermsURL:       f.TermsURL,
		PrivacyURL:     f.PrivacyURL,
		DownloadDir:    f.DownloadDir,
	}
}

// BackgroundTasks extends process life around long uploads where the host
// platform supports it.
type BackgroundTasks interface {
	Begin(name string) (end func())
}

// NoBackgroundTasks is the default: nothing to extend.
type NoBackgroundTasks struct{}

func (NoBackgroundTasks) Begin(string) func() { return func() {} }

// SubFlow is a coordinator entered with a server-assigned step.
type SubFlow = flow.Coordinator[domain.IdentificationStep, domain.FlowOutput]

// Dependencies is everything the coordinators of one session share.
type Dependencies struct {
	// Context is cancelled when the session ends.
	Context      context.Context
	Runtime      flow.Runtime
	Service      verification.Service
	Session      *session.Provider
	Presenter    flow.Presenter
	Actions      *flow.ActionPerformer
	Coordinators *flow.CoordinatorPerformer
	Modules      *Factory
	Settings     Settings
	Metrics      *metrics.Metrics
	Audit        *audit.Publisher
	Tasks        BackgroundTasks
	Logger       *slog.Logger
}

// Emit records an audit event for this session.
func (d *Dependencies) Emit(coordinator, action, step, detail string) {
	d.Audit.Emit(d.Context, audit.Event{
		SessionID:   d.Session.Token(),
		Coordinator: coordinator,
		Action:      action,
		Step:        step,
		Detail:      detail,
	})
}

// EnterStep logs, counts and audits a step transition.
func (d *Dependencies) EnterStep(coordinator, step string) {
	d.Logger.InfoContext(d.Context, "entering step",
		"coordinator", coordinator,
		"step", step,
		"session_id", d.Session.Token(),
	)
	d.Metrics.ObserveStepTransition(coordinator, step)
	d.Emit(coordinator, audit.ActionStepEntered, step, "")
}

// Constructor builds a sub-flow for a session.
type Constructor func(deps *Dependencies) SubFlow

// Factory records which optional sub-flows were linked into the host.
type Factory struct {
	bankID     Constructor
	fourthline Constructor
	qes        Constructor
}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) LinkBankID(c Constructor)     { f.bankID = c }
func (f *Factory) LinkFourthline(c Constructor) { f.fourthline = c }
func (f *Factory) LinkQES(c Constructor)        { f.qes = c }

// MakeBankID returns nil when the bank module is not linked.
func (f *Factory) MakeBankID(deps *Dependencies) SubFlow {
	if f.bankID == nil {
		return nil
	}
	return f.bankID(deps)
}

// MakeFourthline returns nil when the fourthline module is not linked.
func (f *Factory) MakeFourthline(deps *Dependencies) SubFlow {
	if f.fourthline == nil {
		return nil
	}
	return f.fourthline(deps)
}

// MakeQES returns nil when the qes module is not linked.
func (f *Factory) MakeQES(deps *Dependencies) SubFlow {
	if f.qes == nil {
		return nil
	}
	return f.qes(deps)
}

// Linked reports the modules available for validation.
func (f *Factory) Linked() modules.Set {
	set := modules.NewSet(modules.Core)
	if f.bankID != nil {
		set[modules.Bank] = struct{}{}
	}
	if f.fourthline != nil {
		set[modules.Fourthline] = struct{}{}
	}
	if f.qes != nil {
		set[modules.QES] = struct{}{}
	}
	return set
}

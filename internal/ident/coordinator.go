// Package ident is the top-level identification flow: it bootstraps the
// session, collects consent and hands each server step to the sub-flow that
// serves it.
package ident

import (
	"identhub/internal/app"
	"identhub/internal/audit"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/modules"
)

const coordinatorName = "identification"

// Step is the persisted position of the top-level flow.
type Step string

const (
	StepInitialization     Step = "initialization"
	StepTermsAndConditions Step = "terms_and_conditions"
	StepIdentification     Step = "identification"
	StepBankID             Step = "bank_id"
	StepFourthline         Step = "fourthline"
)

// Coordinator runs one identification session from bootstrap to result.
type Coordinator struct {
	deps     *app.Dependencies
	done     func(flow.Result[domain.FlowOutput])
	resume   Step
	finished bool
}

func New(deps *app.Dependencies) *Coordinator {
	return &Coordinator{deps: deps}
}

func (c *Coordinator) Start(_ struct{}, done func(flow.Result[domain.FlowOutput])) {
	c.done = done
	c.resume = Step(c.deps.Session.CoordinatorStep())
	if c.resume == "" {
		if err := c.deps.Session.SetCoordinatorStep(c.deps.Context, string(StepInitialization)); err != nil {
			c.fail(err)
			return
		}
	}
	c.perform(StepInitialization)
}

func (c *Coordinator) perform(step Step) {
	if c.finished {
		return
	}
	// Initialization re-runs on resume without overwriting the stored step.
	if step != StepInitialization || c.resume == "" {
		if err := c.deps.Session.SetCoordinatorStep(c.deps.Context, string(step)); err != nil {
			c.fail(err)
			return
		}
	}
	c.deps.EnterStep(coordinatorName, string(step))

	switch step {
	case StepInitialization:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewRequests(c.deps), ModeInitialization, c.onRequests)
	case StepTermsAndConditions:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewTerms(c.deps), struct{}{}, c.onTerms)
	case StepIdentification:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewRequests(c.deps), ModeIdentification, c.onRequests)
	case StepBankID:
		c.startSubFlow(c.deps.Modules.MakeBankID(c.deps), modules.Bank)
	case StepFourthline:
		c.startSubFlow(c.deps.Modules.MakeFourthline(c.deps), modules.Fourthline)
	}
}

func (c *Coordinator) onRequests(res RequestsResult) bool {
	switch res.Outcome {
	case RequestsFailed:
		c.fail(res.Err)
	case RequestsReroute:
		c.dispatch(res.Step)
	case RequestsReady:
		c.afterRequests(res.Info)
	}
	return true
}

func (c *Coordinator) afterRequests(info domain.IdentificationInfo) {
	resume := c.resume
	c.resume = ""
	switch resume {
	case StepBankID, StepFourthline, StepIdentification:
		c.dispatch(info.Step)
		return
	case StepTermsAndConditions:
		c.perform(StepTermsAndConditions)
		return
	}
	if Step(c.deps.Session.CoordinatorStep()) == StepIdentification {
		c.dispatch(info.Step)
		return
	}
	if !c.deps.Session.AcceptedTC() {
		c.perform(StepTermsAndConditions)
		return
	}
	c.perform(StepIdentification)
}

func (c *Coordinator) onTerms(res TermsResult) bool {
	if res.Err != nil {
		c.fail(res.Err)
		return true
	}
	c.perform(StepIdentification)
	return true
}

// dispatch hands a server step to the sub-flow that serves it.
func (c *Coordinator) dispatch(step domain.IdentificationStep) {
	if err := c.deps.Session.SetIdentificationStep(c.deps.Context, step); err != nil {
		c.fail(err)
		return
	}
	switch {
	case step.IsBankStep():
		c.perform(StepBankID)
	case step.IsFourthlineStep():
		c.perform(StepFourthline)
	case step == domain.StepPartnerFallback, step == domain.StepAbort:
		c.fail(domain.IdentificationNotPossible())
	default:
		c.fail(domain.UnsupportedResponse())
	}
}

func (c *Coordinator) startSubFlow(sub app.SubFlow, module modules.Name) {
	if sub == nil {
		c.fail(domain.ModulesNotFound([]string{string(module)}))
		return
	}
	flow.StartCoordinator(c.deps.Coordinators, sub, c.deps.Session.IdentificationStep(), c.onSubFlow)
}

func (c *Coordinator) onSubFlow(res flow.Result[domain.FlowOutput]) {
	if res.Err != nil {
		// The sub-flow already dismissed its screens.
		c.conclude(res)
		return
	}
	out := res.Value
	switch out.Kind {
	case domain.OutputNextStep:
		c.dispatch(out.Step)
	case domain.OutputComplete, domain.OutputConfirm:
		c.deps.Presenter.Dismiss()
		c.conclude(res)
	default:
		err := out.Err
		if err == nil {
			err = domain.UserCanceled()
		}
		c.fail(err)
	}
}

func (c *Coordinator) fail(err error) {
	if c.finished {
		return
	}
	c.deps.Presenter.Dismiss()
	c.conclude(flow.Failure[domain.FlowOutput](err))
}

func (c *Coordinator) conclude(res flow.Result[domain.FlowOutput]) {
	if c.finished {
		return
	}
	c.finished = true
	step := c.deps.Session.IdentificationStep().String()
	if err := c.deps.Session.Clear(c.deps.Context); err != nil {
		c.deps.Logger.Warn("failed to clear session storage", "error", err)
	}
	detail := "success"
	if res.Err != nil {
		detail = string(domain.KindOf(res.Err))
		c.deps.Emit(coordinatorName, audit.ActionErrorRouted, step, detail)
	}
	c.deps.Emit(coordinatorName, audit.ActionSessionFinished, "", detail)
	c.done(res)
}

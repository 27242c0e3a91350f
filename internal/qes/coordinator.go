// Package qes is the qualified electronic signature sub-flow: the user
// reviews the contract documents and signs them with a TAN.
package qes

import (
	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/poll"
)

const coordinatorName = "qes"

type Step string

const (
	StepConfirmApplication Step = "confirm_application"
	StepSignDocuments      Step = "sign_documents"
	StepFinish             Step = "finish"
)

type Coordinator struct {
	deps     *app.Dependencies
	step     domain.IdentificationStep
	done     func(flow.Result[domain.FlowOutput])
	signed   domain.Identification
	finished bool
}

func New(deps *app.Dependencies) *Coordinator {
	return &Coordinator{deps: deps}
}

// Constructor links the signing sub-flow into an app.Factory.
func Constructor(deps *app.Dependencies) app.SubFlow {
	return New(deps)
}

func (c *Coordinator) Start(step domain.IdentificationStep, done func(flow.Result[domain.FlowOutput])) {
	c.step = step
	c.done = done
	if c.deps.Session.IdentificationUID() == "" {
		c.fail(domain.UnsupportedResponse())
		return
	}
	if Step(c.deps.Session.QESStep()) == StepSignDocuments {
		c.perform(StepSignDocuments)
		return
	}
	c.perform(StepConfirmApplication)
}

func (c *Coordinator) perform(step Step) {
	if c.finished {
		return
	}
	if err := c.deps.Session.SetQESStep(c.deps.Context, string(step)); err != nil {
		c.fail(err)
		return
	}
	c.deps.EnterStep(coordinatorName, string(step))

	uid := c.deps.Session.IdentificationUID()
	switch step {
	case StepConfirmApplication:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewConfirmApplication(c.deps), uid, c.onConfirm)
	case StepSignDocuments:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewSignDocuments(c.deps), uid, c.onSign)
	case StepFinish:
		if c.signed.Status == domain.StatusConfirmed {
			c.conclude(flow.Success(domain.Confirm(c.signed)))
			return
		}
		c.conclude(flow.Success(domain.Complete(c.signed)))
	}
}

func (c *Coordinator) onConfirm(out ConfirmOutput) bool {
	switch out.Kind {
	case ConfirmPreview:
		c.deps.Logger.Debug("contract document saved", "path", out.Path)
		return false
	case ConfirmAccepted:
		c.perform(StepSignDocuments)
	case ConfirmQuit:
		c.fail(domain.UserCanceled())
	}
	return true
}

func (c *Coordinator) onSign(res SignResult) bool {
	if res.Err != nil {
		c.fail(res.Err)
		return true
	}
	switch res.Outcome.Kind {
	case poll.Succeeded:
		c.signed = res.Outcome.Identification
		c.perform(StepFinish)
	case poll.Rerouted:
		c.conclude(flow.Success(domain.NextStep(res.Outcome.Step)))
	default:
		c.fail(res.Outcome.Err)
	}
	return true
}

func (c *Coordinator) fail(err error) {
	if c.finished {
		return
	}
	c.deps.Logger.Warn("document signing failed", "step", c.step.String(), "error", err)
	c.deps.Presenter.Dismiss()
	c.conclude(flow.Failure[domain.FlowOutput](err))
}

func (c *Coordinator) conclude(res flow.Result[domain.FlowOutput]) {
	if c.finished {
		return
	}
	c.finished = true
	c.done(res)
}

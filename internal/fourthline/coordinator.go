// Package fourthline is the document-and-selfie identification sub-flow:
// capture, review, upload as a KYC archive, then wait for the verdict.
package fourthline

import (
	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/poll"
)

const coordinatorName = "fourthline"

type Step string

const (
	StepWelcome         Step = "welcome"
	StepSelfie          Step = "selfie"
	StepFetchData       Step = "fetch_data"
	StepDocumentPicker  Step = "document_picker"
	StepDocumentScanner Step = "document_scanner"
	StepDocumentInfo    Step = "document_info"
	StepUpload          Step = "upload"
	StepResult          Step = "result"
)

type Coordinator struct {
	deps     *app.Dependencies
	kyc      *KYCContainer
	step     domain.IdentificationStep
	docType  domain.DocumentType
	done     func(flow.Result[domain.FlowOutput])
	finished bool
}

func New(deps *app.Dependencies) *Coordinator {
	return &Coordinator{deps: deps, kyc: NewKYCContainer()}
}

// Constructor links the Fourthline sub-flow into an app.Factory.
func Constructor(deps *app.Dependencies) app.SubFlow {
	return New(deps)
}

func (c *Coordinator) Start(step domain.IdentificationStep, done func(flow.Result[domain.FlowOutput])) {
	c.step = step
	c.done = done

	switch {
	case !step.IsFourthlineStep():
		c.fail(domain.UnsupportedResponse())
	case step == domain.StepFourthlineSigning:
		c.perform(StepResult)
	case Step(c.deps.Session.FourthlineStep()) == StepResult && c.deps.Session.IdentificationUID() != "":
		// Captures are not persisted, so only the verdict wait resumes.
		c.perform(StepResult)
	default:
		c.perform(StepWelcome)
	}
}

func (c *Coordinator) perform(step Step) {
	if c.finished {
		return
	}
	if err := c.deps.Session.SetFourthlineStep(c.deps.Context, string(step)); err != nil {
		c.fail(err)
		return
	}
	c.deps.EnterStep(coordinatorName, string(step))

	actions, presenter := c.deps.Actions, c.deps.Presenter
	switch step {
	case StepWelcome:
		flow.PerformAndShow(actions, presenter, NewWelcome(c.deps), struct{}{}, c.then(StepSelfie))
	case StepSelfie:
		flow.PerformAndShow(actions, presenter, NewSelfie(c.deps, c.kyc), struct{}{}, c.then(StepFetchData))
	case StepFetchData:
		flow.PerformAndShow(actions, presenter, NewFetchData(c.deps, c.kyc), struct{}{}, c.then(StepDocumentPicker))
	case StepDocumentPicker:
		flow.PerformAndShow(actions, presenter, NewDocumentPicker(c.kyc), struct{}{}, c.onPick)
	case StepDocumentScanner:
		flow.PerformAndShow(actions, presenter, NewDocumentScanner(c.kyc), c.docType, c.then(StepDocumentInfo))
	case StepDocumentInfo:
		flow.PerformAndShow(actions, presenter, NewDocumentInfo(c.deps, c.kyc), struct{}{}, c.then(StepUpload))
	case StepUpload:
		flow.PerformAndShow(actions, presenter, NewUpload(c.deps, c.kyc), struct{}{}, c.then(StepResult))
	case StepResult:
		flow.PerformAndShow(actions, presenter, NewResult(c.deps), c.deps.Session.IdentificationUID(), c.onResult)
	}
}

// then continues with next once a step reports success.
func (c *Coordinator) then(next Step) func(stepResult) bool {
	return func(res stepResult) bool {
		if res.Err != nil {
			c.fail(res.Err)
			return true
		}
		c.perform(next)
		return true
	}
}

func (c *Coordinator) onPick(res pickResult) bool {
	if res.Err != nil {
		c.fail(res.Err)
		return true
	}
	c.docType = res.Type
	c.perform(StepDocumentScanner)
	return true
}

func (c *Coordinator) onResult(res resultOutput) bool {
	if res.Err != nil {
		c.fail(res.Err)
		return true
	}
	out := res.Outcome
	switch out.Kind {
	case poll.Succeeded:
		if out.Identification.Status == domain.StatusConfirmed {
			c.conclude(flow.Success(domain.Confirm(out.Identification)))
			return true
		}
		c.conclude(flow.Success(domain.Complete(out.Identification)))
	case poll.Rerouted:
		c.conclude(flow.Success(domain.NextStep(out.Step)))
	default:
		c.fail(out.Err)
	}
	return true
}

func (c *Coordinator) fail(err error) {
	if c.finished {
		return
	}
	c.deps.Logger.Warn("fourthline identification failed", "step", c.step.String(), "error", err)
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

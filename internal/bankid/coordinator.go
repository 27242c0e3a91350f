// Package bankid is the bank identification sub-flow: phone verification,
// IBAN verification, payment verification and the hand-over to document
// signing.
package bankid

import (
	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/modules"
	"identhub/internal/poll"
)

const coordinatorName = "bank_id"

type Step string

const (
	StepPhoneVerification   Step = "phone_verification"
	StepIBANVerification    Step = "iban_verification"
	StepPaymentVerification Step = "payment_verification"
	StepQES                 Step = "qes"
	StepFinish              Step = "finish"
)

// Coordinator drives one bank identification from a server step.
type Coordinator struct {
	deps     *app.Dependencies
	step     domain.IdentificationStep
	done     func(flow.Result[domain.FlowOutput])
	output   domain.FlowOutput
	finished bool
}

func New(deps *app.Dependencies) *Coordinator {
	return &Coordinator{deps: deps}
}

// Constructor links the bank sub-flow into an app.Factory.
func Constructor(deps *app.Dependencies) app.SubFlow {
	return New(deps)
}

func (c *Coordinator) Start(step domain.IdentificationStep, done func(flow.Result[domain.FlowOutput])) {
	c.step = step
	c.done = done

	switch {
	case step == domain.StepPartnerFallback, step == domain.StepAbort:
		c.fail(domain.IdentificationNotPossible())
	case !step.IsBankStep():
		c.fail(domain.UnsupportedResponse())
	case step.IsQESStep():
		c.perform(StepQES)
	case Step(c.deps.Session.BankIDStep()) == StepPaymentVerification && c.deps.Session.IdentificationUID() != "":
		c.perform(StepPaymentVerification)
	case !c.deps.Session.PhoneVerified():
		c.perform(StepPhoneVerification)
	default:
		c.perform(StepIBANVerification)
	}
}

func (c *Coordinator) perform(step Step) {
	if c.finished {
		return
	}
	if err := c.deps.Session.SetBankIDStep(c.deps.Context, string(step)); err != nil {
		c.fail(err)
		return
	}
	c.deps.EnterStep(coordinatorName, string(step))

	switch step {
	case StepPhoneVerification:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewPhoneVerification(c.deps), struct{}{}, c.onPhone)
	case StepIBANVerification:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewIBANVerification(c.deps), c.step, c.onIBAN)
	case StepPaymentVerification:
		flow.PerformAndShow(c.deps.Actions, c.deps.Presenter, NewPaymentVerification(c.deps), c.deps.Session.IdentificationUID(), c.onPayment)
	case StepQES:
		c.startQES()
	case StepFinish:
		c.conclude(flow.Success(c.output))
	}
}

func (c *Coordinator) onPhone(res PhoneResult) bool {
	switch {
	case res.Err != nil:
		c.fail(res.Err)
	case res.Step.IsSpecified():
		c.next(res.Step)
	default:
		c.perform(StepIBANVerification)
	}
	return true
}

func (c *Coordinator) onIBAN(res IBANResult) bool {
	switch res.Outcome {
	case IBANAborted:
		c.fail(res.Err)
	case IBANReroute:
		c.next(res.Step)
	case IBANVerified:
		c.afterIdentification(res.Identification, StepPaymentVerification)
	}
	return true
}

func (c *Coordinator) onPayment(res PaymentResult) bool {
	if res.Err != nil {
		c.fail(res.Err)
		return true
	}
	out := res.Outcome
	switch out.Kind {
	case poll.Failed:
		c.fail(out.Err)
	case poll.Rerouted:
		c.next(out.Step)
	case poll.Succeeded:
		ident := out.Identification
		switch ident.Status {
		case domain.StatusSuccessful:
			c.output = domain.Complete(ident)
			c.perform(StepFinish)
		case domain.StatusConfirmed:
			c.output = domain.Confirm(ident)
			c.perform(StepFinish)
		default:
			c.afterIdentification(ident, StepQES)
		}
	}
	return true
}

// afterIdentification follows a server hint if there is one, else fallback.
func (c *Coordinator) afterIdentification(ident domain.Identification, fallback Step) {
	if ident.NextStep != nil && ident.NextStep.IsSpecified() {
		next := *ident.NextStep
		if next.IsQESStep() {
			c.step = next
			c.perform(StepQES)
			return
		}
		c.next(next)
		return
	}
	c.perform(fallback)
}

func (c *Coordinator) startQES() {
	qes := c.deps.Modules.MakeQES(c.deps)
	if qes == nil {
		c.fail(domain.ModulesNotFound([]string{string(modules.QES)}))
		return
	}
	flow.StartCoordinator(c.deps.Coordinators, qes, c.step, func(res flow.Result[domain.FlowOutput]) {
		if res.Err != nil {
			c.conclude(res)
			return
		}
		switch res.Value.Kind {
		case domain.OutputComplete, domain.OutputConfirm:
			c.output = res.Value
			c.perform(StepFinish)
		case domain.OutputNextStep:
			c.next(res.Value.Step)
		default:
			c.conclude(res)
		}
	})
}

// next hands a step outside this flow back to the owner.
func (c *Coordinator) next(step domain.IdentificationStep) {
	c.conclude(flow.Success(domain.NextStep(step)))
}

func (c *Coordinator) fail(err error) {
	if c.finished {
		return
	}
	c.deps.Logger.Warn("bank identification failed", "step", c.step.String(), "error", err)
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

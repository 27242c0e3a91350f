package domain

// OutputKind says how a sub-flow concluded.
type OutputKind int

const (
	OutputComplete OutputKind = iota
	OutputConfirm
	OutputNextStep
	OutputAbort
	OutputClose
)

func (k OutputKind) String() string {
	switch k {
	case OutputComplete:
		return "complete"
	case OutputConfirm:
		return "confirm"
	case OutputNextStep:
		return "next_step"
	case OutputAbort:
		return "abort"
	case OutputClose:
		return "close"
	}
	return "unknown"
}

// FlowOutput is the result a sub-flow hands to its owner, exactly once.
type FlowOutput struct {
	Kind           OutputKind
	Identification *Identification
	Step           IdentificationStep
	Err            error
}

func Complete(identification Identification) FlowOutput {
	return FlowOutput{Kind: OutputComplete, Identification: &identification}
}

func Confirm(identification Identification) FlowOutput {
	return FlowOutput{Kind: OutputConfirm, Identification: &identification}
}

func NextStep(step IdentificationStep) FlowOutput {
	return FlowOutput{Kind: OutputNextStep, Step: step}
}

func Abort() FlowOutput {
	return FlowOutput{Kind: OutputAbort}
}

func Close(err error) FlowOutput {
	return FlowOutput{Kind: OutputClose, Err: err}
}

// ResultKind is the terminal outcome reported to the host application.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultFailure
	ResultConfirm
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultConfirm:
		return "confirm"
	}
	return "unknown"
}

// SessionResult is what the host receives when a session ends.
type SessionResult struct {
	Kind           ResultKind
	Identification *Identification
	Err            *APIError
}

func SuccessResult(identification Identification) SessionResult {
	return SessionResult{Kind: ResultSuccess, Identification: &identification}
}

func ConfirmResult(identification Identification) SessionResult {
	return SessionResult{Kind: ResultConfirm, Identification: &identification}
}

// FailureResult normalizes err into an APIError.
func FailureResult(err error) SessionResult {
	return SessionResult{Kind: ResultFailure, Err: AsAPIError(err)}
}

package domain

// IdentificationStep is the server-assigned position of a session in the
// identification process. The zero value means the server sent no step or one
// this client does not know.
type IdentificationStep string

const (
	StepUnspecified       IdentificationStep = ""
	StepMobileNumber      IdentificationStep = "mobile_number"
	StepBankIBAN          IdentificationStep = "bank/iban"
	StepBankIDIBAN        IdentificationStep = "bank_id/iban"
	StepBankQES           IdentificationStep = "bank/qes"
	StepBankIDQES         IdentificationStep = "bank_id/qes"
	StepBankIDFourthline  IdentificationStep = "bank_id/fourthline"
	StepFourthline        IdentificationStep = "fourthline/simplified"
	StepFourthlineSigning IdentificationStep = "fourthline/signing"
	StepAbort             IdentificationStep = "abort"
	StepPartnerFallback   IdentificationStep = "partner_fallback"
)

var knownSteps = map[IdentificationStep]struct{}{
	StepMobileNumber:      {},
	StepBankIBAN:          {},
	StepBankIDIBAN:        {},
	StepBankQES:           {},
	StepBankIDQES:         {},
	StepBankIDFourthline:  {},
	StepFourthline:        {},
	StepFourthlineSigning: {},
	StepAbort:             {},
	StepPartnerFallback:   {},
}

// ParseIdentificationStep maps unknown values to StepUnspecified.
func ParseIdentificationStep(s string) IdentificationStep {
	step := IdentificationStep(s)
	if _, ok := knownSteps[step]; ok {
		return step
	}
	return StepUnspecified
}

func (s IdentificationStep) String() string {
	if s == StepUnspecified {
		return "unspecified"
	}
	return string(s)
}

func (s IdentificationStep) IsSpecified() bool {
	return s != StepUnspecified
}

// IsBankStep reports steps served by the bank sub-flow (phone, IBAN, payment, QES).
func (s IdentificationStep) IsBankStep() bool {
	switch s {
	case StepMobileNumber, StepBankIBAN, StepBankIDIBAN, StepBankQES, StepBankIDQES:
		return true
	}
	return false
}

// IsQESStep reports steps that go straight to document signing.
func (s IdentificationStep) IsQESStep() bool {
	return s == StepBankQES || s == StepBankIDQES
}

// IsFourthlineStep reports steps served by the Fourthline sub-flow.
func (s IdentificationStep) IsFourthlineStep() bool {
	switch s {
	case StepBankIDFourthline, StepFourthline, StepFourthlineSigning:
		return true
	}
	return false
}

// StepPtr returns a pointer to s, for optional hint fields.
func StepPtr(s IdentificationStep) *IdentificationStep {
	return &s
}

package domain

import "time"

// DefaultRetries is used when the backend does not configure an IBAN retry count.
const DefaultRetries = 5

// StepInfo describes one identification step and the client modules it needs.
type StepInfo struct {
	Step            IdentificationStep `json:"step"`
	RequiredModules []string           `json:"required_modules,omitempty"`
}

// PartnerSettings carries partner-specific presentation settings.
type PartnerSettings struct {
	DefaultToFallbackStep bool   `json:"default_to_fallback_step"`
	TermsURL              string `json:"terms_url,omitempty"`
	PrivacyURL            string `json:"privacy_url,omitempty"`
}

// IdentificationMethod is what the backend selected for this session.
type IdentificationMethod struct {
	FirstStep          StepInfo        `json:"first_step"`
	FallbackStep       *StepInfo       `json:"fallback_step,omitempty"`
	Retries            int             `json:"retries"`
	FourthlineProvider string          `json:"fourthline_provider,omitempty"`
	PartnerSettings    PartnerSettings `json:"partner_settings"`
}

// RetriesOrDefault returns the configured retry count, defaulting to 5.
func (m IdentificationMethod) RetriesOrDefault() int {
	if m.Retries <= 0 {
		return DefaultRetries
	}
	return m.Retries
}

// IdentificationInfo is the per-session progress the backend already knows.
type IdentificationInfo struct {
	UID           string             `json:"uid,omitempty"`
	Step          IdentificationStep `json:"step"`
	FallbackStep  IdentificationStep `json:"fallback_step,omitempty"`
	AcceptedTC    bool               `json:"accepted_terms"`
	PhoneVerified bool               `json:"phone_verified"`
	Retries       int                `json:"retries,omitempty"`
	Provider      string             `json:"provider,omitempty"`
}

// ContractDocument is a document the user has to sign.
type ContractDocument struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
	CustomerAccessible bool   `json:"customer_accessible"`
}

// Identification is the backend's view of one identification attempt.
type Identification struct {
	ID           string              `json:"id"`
	Status       Status              `json:"status"`
	Method       string              `json:"method,omitempty"`
	NextStep     *IdentificationStep `json:"next_step,omitempty"`
	FallbackStep *IdentificationStep `json:"fallback_step,omitempty"`
	ReferenceID  string              `json:"reference,omitempty"`
	Documents    []ContractDocument  `json:"documents,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// MobileNumber is the phone number attached to the person.
type MobileNumber struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	Verified bool   `json:"verified"`
}

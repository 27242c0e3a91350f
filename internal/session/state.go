// Package session holds the persisted, resumable state of one identification
// session as a single versioned blob.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"identhub/internal/domain"
)

// CurrentVersion is the blob layout written by this build.
const CurrentVersion = 2

// State is everything a flow needs to resume after process death. It is
// always written whole, so a crash never leaves related fields half-updated.
type State struct {
	Version            int                       `json:"version"`
	Token              string                    `json:"token"`
	MobileNumber       string                    `json:"mobile_number,omitempty"`
	IdentificationUID  string                    `json:"identification_uid,omitempty"`
	IdentificationStep domain.IdentificationStep `json:"identification_step,omitempty"`
	FallbackStep       domain.IdentificationStep `json:"fallback_step,omitempty"`
	Retries            int                       `json:"retries,omitempty"`
	IBANAttempts       int                       `json:"iban_attempts,omitempty"`
	AcceptedTC         bool                      `json:"accepted_tc,omitempty"`
	PhoneVerified      bool                      `json:"phone_verified,omitempty"`
	Provider           string                    `json:"provider,omitempty"`
	CoordinatorStep    string                    `json:"coordinator_step,omitempty"`
	BankIDStep         string                    `json:"bank_id_step,omitempty"`
	QESStep            string                    `json:"qes_step,omitempty"`
	FourthlineStep     string                    `json:"fourthline_step,omitempty"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// Fresh returns an empty state bound to token.
func Fresh(token string) State {
	return State{Version: CurrentVersion, Token: token}
}

// RetriesOrDefault returns the configured IBAN attempt budget.
func (s State) RetriesOrDefault() int {
	if s.Retries <= 0 {
		return domain.DefaultRetries
	}
	return s.Retries
}

// legacyState is the version 1 layout, which kept the retry count under
// retries_count and had no per-coordinator steps.
type legacyState struct {
	Token              string `json:"token"`
	MobileNumber       string `json:"mobile_number"`
	IdentificationUID  string `json:"identification_uid"`
	IdentificationStep string `json:"identification_step"`
	FallbackStep       string `json:"fallback_step"`
	RetriesCount       int    `json:"retries_count"`
	AcceptedTC         bool   `json:"accepted_tc"`
	PhoneVerified      bool   `json:"phone_verified"`
	Provider           string `json:"provider"`
	Step               string `json:"step"`
}

func Encode(s State) ([]byte, error) {
	s.Version = CurrentVersion
	return json.Marshal(s)
}

// Decode parses a blob of any supported version into the current layout.
func Decode(blob []byte) (State, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(blob, &probe); err != nil {
		return State{}, fmt.Errorf("decode session version: %w", err)
	}

	switch probe.Version {
	case 0, 1:
		var legacy legacyState
		if err := json.Unmarshal(blob, &legacy); err != nil {
			return State{}, fmt.Errorf("decode v1 session: %w", err)
		}
		return migrateV1(legacy), nil
	case CurrentVersion:
		var s State
		if err := json.Unmarshal(blob, &s); err != nil {
			return State{}, fmt.Errorf("decode session: %w", err)
		}
		return s, nil
	default:
		return State{}, fmt.Errorf("unsupported session version %d", probe.Version)
	}
}

func migrateV1(l legacyState) State {
	return State{
		Version:            CurrentVersion,
		Token:              l.Token,
		MobileNumber:       l.MobileNumber,
		IdentificationUID:  l.IdentificationUID,
		IdentificationStep: domain.ParseIdentificationStep(l.IdentificationStep),
		FallbackStep:       domain.ParseIdentificationStep(l.FallbackStep),
		Retries:            l.RetriesCount,
		AcceptedTC:         l.AcceptedTC,
		PhoneVerified:      l.PhoneVerified,
		Provider:           l.Provider,
		CoordinatorStep:    l.Step,
	}
}

// Reconcile decides what a newly opened session starts from. A blob for a
// different token or an unreadable blob means start over.
func Reconcile(blob []byte, token string) (State, bool) {
	if len(blob) == 0 {
		return Fresh(token), false
	}
	stored, err := Decode(blob)
	if err != nil || stored.Token != token {
		return Fresh(token), false
	}
	return stored, true
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the client-side classification of a failure.
type ErrorKind string

const (
	// Transport and decoding.
	KindMalformedJSON ErrorKind = "malformed_json"
	KindUnknown       ErrorKind = "unknown"

	// HTTP status mapped.
	KindBadRequest          ErrorKind = "bad_request"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindPreconditionFailed  ErrorKind = "precondition_failed"
	KindUnprocessableEntity ErrorKind = "unprocessable_entity"
	KindServerError         ErrorKind = "server_error"

	// Domain errors; these may carry recovery hints in ErrorDetail.
	KindClientError                   ErrorKind = "client_error"
	KindIncorrectIdentificationStatus ErrorKind = "incorrect_identification_status"
	KindIdentificationDataInvalid     ErrorKind = "identification_data_invalid"
	KindFraudData                     ErrorKind = "fraud_data"

	// Local preconditions and flow terminations.
	KindRequestError              ErrorKind = "request_error"
	KindModulesNotFound           ErrorKind = "modules_not_found"
	KindIdentificationNotPossible ErrorKind = "identification_not_possible"
	KindUnsupportedResponse       ErrorKind = "unsupported_response"
	KindIBANVerificationFailed    ErrorKind = "iban_verification_failed"
	KindIdentificationFailed      ErrorKind = "identification_failed"
	KindUserCanceled              ErrorKind = "user_canceled"
)

// ErrorDetail is the first error entry of a backend error body.
type ErrorDetail struct {
	ID           string              `json:"id,omitempty"`
	Code         string              `json:"code,omitempty"`
	Title        string              `json:"title,omitempty"`
	Detail       string              `json:"detail,omitempty"`
	NextStep     *IdentificationStep `json:"next_step,omitempty"`
	FallbackStep *IdentificationStep `json:"fallback_step,omitempty"`
}

// APIError is the error type every flow failure is expressed in.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Detail  *ErrorDetail
	Modules []string
	Err     error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if len(e.Modules) > 0 {
		fmt.Fprintf(&b, " %v", e.Modules)
	}
	if e.Detail != nil && e.Detail.Title != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail.Title)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, domain.ErrUnsupportedResponse).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NextStep returns the server-hinted next step, if any.
func (e *APIError) NextStep() (IdentificationStep, bool) {
	if e.Detail == nil || e.Detail.NextStep == nil || !e.Detail.NextStep.IsSpecified() {
		return StepUnspecified, false
	}
	return *e.Detail.NextStep, true
}

// FallbackStep returns the server-hinted fallback step, if any.
func (e *APIError) FallbackStep() (IdentificationStep, bool) {
	if e.Detail == nil || e.Detail.FallbackStep == nil || !e.Detail.FallbackStep.IsSpecified() {
		return StepUnspecified, false
	}
	return *e.Detail.FallbackStep, true
}

// Kind targets for errors.Is.
var (
	ErrUnsupportedResponse       = &APIError{Kind: KindUnsupportedResponse}
	ErrIdentificationNotPossible = &APIError{Kind: KindIdentificationNotPossible}
	ErrIBANVerificationFailed    = &APIError{Kind: KindIBANVerificationFailed}
	ErrModulesNotFound           = &APIError{Kind: KindModulesNotFound}
	ErrUserCanceled              = &APIError{Kind: KindUserCanceled}
)

// NewAPIError builds an error of the given kind.
func NewAPIError(kind ErrorKind, detail *ErrorDetail) *APIError {
	return &APIError{Kind: kind, Detail: detail}
}

func UnsupportedResponse() *APIError {
	return &APIError{Kind: KindUnsupportedResponse}
}

func IdentificationNotPossible() *APIError {
	return &APIError{Kind: KindIdentificationNotPossible}
}

func IBANVerificationFailed() *APIError {
	return &APIError{Kind: KindIBANVerificationFailed}
}

func IdentificationFailed(detail *ErrorDetail) *APIError {
	return &APIError{Kind: KindIdentificationFailed, Detail: detail}
}

func UserCanceled() *APIError {
	return &APIError{Kind: KindUserCanceled}
}

func ModulesNotFound(modules []string) *APIError {
	return &APIError{Kind: KindModulesNotFound, Modules: modules}
}

// RequestError reports a request the client could not build.
func RequestError(err error) *APIError {
	return &APIError{Kind: KindRequestError, Err: err}
}

// AsAPIError returns err as an APIError, wrapping foreign errors as unknown.
// A nil err yields nil.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Kind: KindUnknown, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsAPIError(err).Kind
}

// KindForStatus maps an HTTP status code to its error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case 400:
		return KindBadRequest
	case 401:
		return KindUnauthorized
	case 403:
		return KindForbidden
	case 404:
		return KindNotFound
	case 409:
		return KindConflict
	case 412:
		return KindPreconditionFailed
	case 422:
		return KindUnprocessableEntity
	}
	if status >= 500 {
		return KindServerError
	}
	return KindUnknown
}

// KindForCode maps a backend domain error code to its kind.
func KindForCode(code string) (ErrorKind, bool) {
	switch code {
	case "client_error":
		return KindClientError, true
	case "incorrect_identification_status":
		return KindIncorrectIdentificationStatus, true
	case "identification_data_invalid":
		return KindIdentificationDataInvalid, true
	case "fraud_data":
		return KindFraudData, true
	}
	return "", false
}

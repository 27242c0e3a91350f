package domain

// Status is the backend lifecycle status of an identification.
type Status string

const (
	StatusCreated                    Status = "created"
	StatusPending                    Status = "pending"
	StatusPendingSafe                Status = "pending_safe"
	StatusPendingUnsafe              Status = "pending_unsafe"
	StatusPendingFailed              Status = "pending_failed"
	StatusAuthorizationRequired      Status = "authorization_required"
	StatusIdentificationDataRequired Status = "identification_data_required"
	StatusConfirmationRequired       Status = "confirmation_required"
	StatusConfirmed                  Status = "confirmed"
	StatusSuccessful                 Status = "successful"
	StatusFailed                     Status = "failed"
	StatusCanceled                   Status = "canceled"
	StatusAborted                    Status = "aborted"
	StatusExpired                    Status = "expired"
	StatusRejected                   Status = "rejected"
)

// IsProcessing reports statuses where the backend is still working and a
// status poll should continue.
func (s Status) IsProcessing() bool {
	switch s {
	case StatusCreated, StatusPending, StatusPendingSafe, StatusPendingUnsafe:
		return true
	}
	return false
}

// IsFailure reports terminal failure statuses.
func (s Status) IsFailure() bool {
	switch s {
	case StatusPendingFailed, StatusFailed, StatusCanceled, StatusAborted, StatusExpired, StatusRejected:
		return true
	}
	return false
}

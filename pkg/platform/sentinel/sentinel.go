package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Storage backends and platform
// helpers return these (optionally wrapped) so the session layer can decide
// whether a missing or stale record means "start over".
//
//   - ErrNotFound: no record stored under the key
//   - ErrInvalidState: stored record cannot be used (bad version, wrong token)
//   - ErrUnavailable: backend temporarily unreachable
//   - ErrClosed: component already torn down
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrClosed       = errors.New("closed")
)

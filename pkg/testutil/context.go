package testutil

import (
	"net/http"

	"identhub/pkg/requestcontext"
)

// WithSessionToken simulates the session middleware for handler tests.
func WithSessionToken(req *http.Request, token string) *http.Request {
	if token == "" {
		return req
	}
	return req.WithContext(requestcontext.WithSessionID(req.Context(), token))
}

// WithBearer sets the Authorization header the host API expects.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

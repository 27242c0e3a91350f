package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"identhub/internal/platform/logger"
	"identhub/pkg/requestcontext"
)

func TestSessionTokenAndRequestID(t *testing.T) {
	var gotSession, gotRequest string
	h := RequestID(SessionToken(Logger(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = requestcontext.SessionID(r.Context())
		gotRequest = requestcontext.RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/screen", nil)
	req.Header.Set("Authorization", "Bearer tok-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "tok-42", gotSession)
	assert.NotEmpty(t, gotRequest)
	assert.Equal(t, gotRequest, rec.Header().Get("X-Request-ID"))
}

func TestSessionTokenHeaderFallback(t *testing.T) {
	var gotSession string
	h := SessionToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = requestcontext.SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Token", " tok-7 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "tok-7", gotSession)
}

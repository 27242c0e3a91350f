package verification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"identhub/internal/domain"
	"identhub/internal/platform/metrics"
)

type ClientSuite struct {
	suite.Suite
	router  chi.Router
	server  *httptest.Server
	client  *Client
	metrics *metrics.Metrics
	dir     string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.router = chi.NewRouter()
	s.server = httptest.NewServer(s.router)
	s.T().Cleanup(s.server.Close)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.dir = s.T().TempDir()
	s.client = NewClient(s.server.URL+"/", "session-token",
		WithMetrics(s.metrics),
		WithDownloadDir(s.dir),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *ClientSuite) TestBearerTokenAndDecoding() {
	s.router.Get("/identification_method", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer session-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"first_step":    map[string]any{"step": "bank/iban", "required_modules": []string{"bank"}},
			"fallback_step": map[string]any{"step": "fourthline/simplified", "required_modules": []string{"fourthline"}},
			"retries":       3,
		})
	})

	method, err := s.client.DefineIdentificationMethod(context.Background())
	s.Require().NoError(err)
	s.Equal(domain.StepBankIBAN, method.FirstStep.Step)
	s.Require().NotNil(method.FallbackStep)
	s.Equal([]string{"fourthline"}, method.FallbackStep.RequiredModules)
	s.Equal(3, method.Retries)
	s.Equal(1, testutil.CollectAndCount(s.metrics.BackendLatency))
}

func (s *ClientSuite) TestVerifyIBANSendsBody() {
	s.router.Post("/iban/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("DE89370400440532013000", body["iban"])
		s.Equal("bank/iban", body["step"])
		writeJSON(w, http.StatusOK, map[string]any{"id": "uid-1", "status": "pending"})
	})

	ident, err := s.client.VerifyIBAN(context.Background(), "DE89370400440532013000", domain.StepBankIBAN)
	s.Require().NoError(err)
	s.Equal("uid-1", ident.ID)
	s.Equal(domain.StatusPending, ident.Status)
}

func (s *ClientSuite) TestErrorBodyMapping() {
	s.router.Post("/iban/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": []map[string]any{{
				"id":     "err-1",
				"code":   "client_error",
				"title":  "Invalid IBAN",
				"detail": "iban rejected",
				"meta":   map[string]any{"fallback_step": "fourthline/simplified"},
			}},
		})
	})

	_, err := s.client.VerifyIBAN(context.Background(), "DE00", domain.StepBankIBAN)
	apiErr := domain.AsAPIError(err)
	s.Equal(domain.KindClientError, apiErr.Kind)
	s.Equal(http.StatusUnprocessableEntity, apiErr.Status)
	_, hasNext := apiErr.NextStep()
	s.False(hasNext)
	fallback, ok := apiErr.FallbackStep()
	s.True(ok)
	s.Equal(domain.StepFourthline, fallback)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.APIErrors.WithLabelValues("client_error")))
}

func (s *ClientSuite) TestStatusOnlyErrors() {
	cases := map[string]struct {
		status int
		body   string
		kind   domain.ErrorKind
	}{
		"not found":      {status: http.StatusNotFound, kind: domain.KindNotFound},
		"precondition":   {status: http.StatusPreconditionFailed, body: `{"errors":[]}`, kind: domain.KindPreconditionFailed},
		"server garbage": {status: http.StatusBadGateway, body: `<html>`, kind: domain.KindServerError},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			s.SetupTest()
			s.router.Get("/ip", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := s.client.FetchIPAddress(context.Background())
			s.Equal(tc.kind, domain.KindOf(err))
		})
	}
}

func (s *ClientSuite) TestMalformedSuccessBody() {
	s.router.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{")
	})
	_, err := s.client.ObtainIdentificationInfo(context.Background())
	s.Equal(domain.KindMalformedJSON, domain.KindOf(err))
}

func (s *ClientSuite) TestUploadKYCZip() {
	s.router.Post("/fourthline_identifications/{uid}/data", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("uid-7", chi.URLParam(r, "uid"))
		s.Equal("application/zip", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		s.Equal("PK", string(raw[:2]))
		writeJSON(w, http.StatusOK, map[string]any{"id": "uid-7", "status": "pending"})
	})

	ident, err := s.client.UploadKYCZip(context.Background(), "uid-7", []byte("PKzip"))
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, ident.Status)
}

func (s *ClientSuite) TestDownloadAndSaveDocument() {
	s.router.Get("/identifications/{uid}/documents/{doc}/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7")
	})

	path, err := s.client.DownloadAndSaveDocument(context.Background(), "uid-1", "doc-1")
	s.Require().NoError(err)
	s.Equal(filepath.Join(s.dir, "doc-1.pdf"), path)
	raw, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal("%PDF-1.7", string(raw))
}

func (s *ClientSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.client.GetMobileNumber(ctx)
	s.Equal(domain.KindRequestError, domain.KindOf(err))
}

package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"identhub/internal/domain"
	"identhub/internal/platform/metrics"
	"identhub/pkg/requestcontext"
)

const tracerName = "identhub/internal/verification"

// Client talks JSON over HTTP to the identification backend, authenticated
// with the session token.
type Client struct {
	base        string
	token       string
	http        *http.Client
	downloadDir string
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDownloadDir sets where signed contract documents are written.
func WithDownloadDir(dir string) ClientOption {
	return func(c *Client) {
		c.downloadDir = dir
	}
}

func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

func NewClient(baseURL, sessionToken string, opts ...ClientOption) *Client {
	c := &Client{
		base:        strings.TrimRight(baseURL, "/"),
		token:       sessionToken,
		http:        &http.Client{Timeout: 30 * time.Second},
		downloadDir: os.TempDir(),
		tracer:      otel.Tracer(tracerName),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) DefineIdentificationMethod(ctx context.Context) (domain.IdentificationMethod, error) {
	var out domain.IdentificationMethod
	return out, c.do(ctx, "define_identification_method", http.MethodGet, "/identification_method", nil, &out)
}

func (c *Client) ObtainIdentificationInfo(ctx context.Context) (domain.IdentificationInfo, error) {
	var out domain.IdentificationInfo
	return out, c.do(ctx, "obtain_identification_info", http.MethodGet, "/info", nil, &out)
}

func (c *Client) GetMobileNumber(ctx context.Context) (domain.MobileNumber, error) {
	var out domain.MobileNumber
	return out, c.do(ctx, "get_mobile_number", http.MethodGet, "/mobile_number", nil, &out)
}

func (c *Client) AuthorizeMobileNumber(ctx context.Context, number string) (domain.MobileNumber, error) {
	var out domain.MobileNumber
	body := struct {
		Number string `json:"number"`
	}{Number: number}
	return out, c.do(ctx, "authorize_mobile_number", http.MethodPost, "/mobile_number/authorize", body, &out)
}

func (c *Client) VerifyMobileNumberTAN(ctx context.Context, token string) (domain.MobileNumber, error) {
	var out domain.MobileNumber
	body := struct {
		Token string `json:"token"`
	}{Token: token}
	return out, c.do(ctx, "verify_mobile_number_tan", http.MethodPost, "/mobile_number/confirm", body, &out)
}

func (c *Client) VerifyIBAN(ctx context.Context, iban string, step domain.IdentificationStep) (domain.Identification, error) {
	var out domain.Identification
	body := struct {
		IBAN string                    `json:"iban"`
		Step domain.IdentificationStep `json:"step"`
	}{IBAN: iban, Step: step}
	return out, c.do(ctx, "verify_iban", http.MethodPost, "/iban/verify", body, &out)
}

func (c *Client) GetIdentification(ctx context.Context, uid string) (domain.Identification, error) {
	var out domain.Identification
	return out, c.do(ctx, "get_identification", http.MethodGet, "/identifications/"+url.PathEscape(uid), nil, &out)
}

func (c *Client) GetFourthlineIdentification(ctx context.Context) (domain.FourthlineIdentification, error) {
	var out domain.FourthlineIdentification
	return out, c.do(ctx, "get_fourthline_identification", http.MethodPost, "/fourthline_identification", struct{}{}, &out)
}

func (c *Client) UploadKYCZip(ctx context.Context, uid string, zip []byte) (domain.Identification, error) {
	var out domain.Identification
	path := "/fourthline_identifications/" + url.PathEscape(uid) + "/data"
	return out, c.send(ctx, "upload_kyc_zip", http.MethodPost, path, "application/zip", bytes.NewReader(zip), &out)
}

func (c *Client) FetchPersonData(ctx context.Context, uid string) (domain.PersonData, error) {
	var out domain.PersonData
	path := "/fourthline_identifications/" + url.PathEscape(uid) + "/person_data"
	return out, c.do(ctx, "fetch_person_data", http.MethodGet, path, nil, &out)
}

func (c *Client) FetchIPAddress(ctx context.Context) (domain.IPAddress, error) {
	var out domain.IPAddress
	return out, c.do(ctx, "fetch_ip_address", http.MethodGet, "/ip", nil, &out)
}

func (c *Client) ObtainFourthlineIdentificationStatus(ctx context.Context, uid string) (domain.Identification, error) {
	var out domain.Identification
	path := "/fourthline_identifications/" + url.PathEscape(uid) + "/status"
	return out, c.do(ctx, "obtain_fourthline_status", http.MethodGet, path, nil, &out)
}

func (c *Client) AuthorizeDocuments(ctx context.Context, uid string) (domain.Identification, error) {
	var out domain.Identification
	path := "/identifications/" + url.PathEscape(uid) + "/sign_documents"
	return out, c.do(ctx, "authorize_documents", http.MethodPatch, path, struct{}{}, &out)
}

func (c *Client) VerifyDocumentsTAN(ctx context.Context, uid, token string) (domain.Identification, error) {
	var out domain.Identification
	path := "/identifications/" + url.PathEscape(uid) + "/confirm"
	body := struct {
		Token string `json:"token"`
	}{Token: token}
	return out, c.do(ctx, "verify_documents_tan", http.MethodPatch, path, body, &out)
}

// DownloadAndSaveDocument stores the document under the download directory
// and returns the file path.
func (c *Client) DownloadAndSaveDocument(ctx context.Context, uid, documentID string) (string, error) {
	path := "/identifications/" + url.PathEscape(uid) + "/documents/" + url.PathEscape(documentID) + "/download"
	var buf bytes.Buffer
	if err := c.send(ctx, "download_document", http.MethodGet, path, "", nil, &buf); err != nil {
		return "", err
	}

	name := filepath.Base(filepath.Clean("/" + documentID))
	target := filepath.Join(c.downloadDir, name+".pdf")
	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return "", domain.RequestError(fmt.Errorf("create download dir: %w", err))
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o600); err != nil {
		return "", domain.RequestError(fmt.Errorf("write document: %w", err))
	}
	return target, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return domain.RequestError(fmt.Errorf("encode %s body: %w", op, err))
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, op, method, path, contentType, body, out)
}

// send performs one request. out may be a JSON target or a *bytes.Buffer for
// raw bodies.
func (c *Client) send(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "verification."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("identhub.operation", op),
		attribute.String("identhub.step", requestcontext.Step(ctx)),
	))
	start := time.Now()
	defer func() {
		c.metrics.ObserveBackendLatency(op, time.Since(start))
		if err != nil {
			kind := domain.KindOf(err)
			span.SetAttributes(attribute.String("identhub.error_kind", string(kind)))
			span.SetStatus(codes.Error, err.Error())
			c.metrics.ObserveAPIError(string(kind))
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return domain.RequestError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return &domain.APIError{Kind: domain.KindRequestError, Err: err}
		}
		return &domain.APIError{Kind: domain.KindUnknown, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode/100 != 2 {
		apiErr := decodeError(resp)
		c.logger.WarnContext(ctx, "backend request failed",
			"operation", op,
			"status", resp.StatusCode,
			"error_kind", apiErr.Kind,
			"session_id", requestcontext.SessionID(ctx),
		)
		return apiErr
	}

	switch target := out.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		if _, err := io.Copy(target, resp.Body); err != nil {
			return &domain.APIError{Kind: domain.KindUnknown, Err: err}
		}
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return &domain.APIError{Kind: domain.KindMalformedJSON, Status: resp.StatusCode, Err: err}
		}
		return nil
	}
}

// errorBody is the backend error envelope.
type errorBody struct {
	Errors []struct {
		ID     string `json:"id"`
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Meta   struct {
			NextStep     string `json:"next_step"`
			FallbackStep string `json:"fallback_step"`
		} `json:"meta"`
	} `json:"errors"`
}

// decodeError maps a non-2xx response to an APIError. A recognised domain
// code in the first error entry takes precedence over the status code.
func decodeError(resp *http.Response) *domain.APIError {
	apiErr := &domain.APIError{Kind: domain.KindForStatus(resp.StatusCode), Status: resp.StatusCode}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil || len(body.Errors) == 0 {
		return apiErr
	}

	first := body.Errors[0]
	detail := &domain.ErrorDetail{
		ID:     first.ID,
		Code:   first.Code,
		Title:  first.Title,
		Detail: first.Detail,
	}
	if step := domain.ParseIdentificationStep(first.Meta.NextStep); step.IsSpecified() {
		detail.NextStep = domain.StepPtr(step)
	}
	if step := domain.ParseIdentificationStep(first.Meta.FallbackStep); step.IsSpecified() {
		detail.FallbackStep = domain.StepPtr(step)
	}
	apiErr.Detail = detail
	if kind, ok := domain.KindForCode(first.Code); ok {
		apiErr.Kind = kind
	}
	return apiErr
}

var _ Service = (*Client)(nil)

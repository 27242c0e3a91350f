package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"identhub/internal/bankid"
	"identhub/internal/domain"
	"identhub/internal/flow"
	"identhub/internal/flow/flowtest"
	"identhub/internal/platform/clock"
	"identhub/internal/platform/metrics"
	"identhub/internal/session"
	"identhub/internal/storage"
	"identhub/internal/verification/mocks"
)

const sessionURL = "https://identhub.example.com/session/tok-123"

type recordingDelegate struct {
	success  []domain.Identification
	confirm  []domain.Identification
	failures []*domain.APIError
}

func (d *recordingDelegate) DidFinishWithSuccess(i domain.Identification) { d.success = append(d.success, i) }
func (d *recordingDelegate) DidFinishOnConfirm(i domain.Identification)   { d.confirm = append(d.confirm, i) }
func (d *recordingDelegate) DidFinishWithFailure(e *domain.APIError)      { d.failures = append(d.failures, e) }

type SessionSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	registry *Registry
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registry = NewRegistry()
	s.reg = prometheus.NewRegistry()
	s.metrics = metrics.New(s.reg)
}

func (s *SessionSuite) newSession(presenter flow.Presenter, svc *mocks.MockService) *Session {
	sess, err := New(sessionURL, presenter,
		WithRegistry(s.registry),
		WithService(svc),
		WithClock(clock.NewFake(clock.Real{}.Now())),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	return sess
}

// waitOnTerms makes svc park its session on the terms screen.
func waitOnTerms(svc *mocks.MockService) {
	svc.EXPECT().DefineIdentificationMethod(gomock.Any()).Return(domain.IdentificationMethod{
		FirstStep: domain.StepInfo{Step: domain.StepBankIBAN, RequiredModules: []string{"bank"}},
	}, nil)
	svc.EXPECT().ObtainIdentificationInfo(gomock.Any()).Return(domain.IdentificationInfo{Step: domain.StepBankIBAN}, nil)
}

func (s *SessionSuite) TestSecondSessionIsRejectedWithoutUI() {
	firstSvc := mocks.NewMockService(s.ctrl)
	waitOnTerms(firstSvc)
	firstPresenter := &flowtest.Presenter{}
	first := s.newSession(firstPresenter, firstSvc)

	var firstResults []domain.SessionResult
	first.Start(context.Background(), func(r domain.SessionResult) { firstResults = append(firstResults, r) })
	s.Equal("terms_and_conditions", firstPresenter.TopShowable().Name())

	secondPresenter := &flowtest.Presenter{}
	second := s.newSession(secondPresenter, mocks.NewMockService(s.ctrl))
	var secondResults []domain.SessionResult
	second.Start(context.Background(), func(r domain.SessionResult) { secondResults = append(secondResults, r) })

	s.Require().Len(secondResults, 1)
	s.Equal(domain.ResultFailure, secondResults[0].Kind)
	s.True(errors.Is(secondResults[0].Err, domain.ErrIdentificationNotPossible))
	s.Empty(secondPresenter.Pushed)
	s.Empty(secondPresenter.Presented)
	s.Zero(secondPresenter.DismissCount())

	s.Empty(firstResults)
	s.Equal("terms_and_conditions", firstPresenter.TopShowable().Name())
	active, ok := s.registry.Active()
	s.True(ok)
	s.Equal(first.ID(), active)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SessionsRejected))

	top := firstPresenter.TopShowable().(flow.Interactive)
	s.Require().NoError(top.Dispatch("quit", nil))
	s.Require().Len(firstResults, 1)
	s.True(errors.Is(firstResults[0].Err, domain.ErrUserCanceled))
	_, ok = s.registry.Active()
	s.False(ok, "the slot is released on a terminal result")
}

func (s *SessionSuite) TestDelegateReceivesFailure() {
	svc := mocks.NewMockService(s.ctrl)
	svc.EXPECT().DefineIdentificationMethod(gomock.Any()).Return(domain.IdentificationMethod{
		FirstStep: domain.StepInfo{Step: domain.StepFourthline, RequiredModules: []string{"fourthline"}},
	}, nil)
	presenter := &flowtest.Presenter{}
	sess, err := New(sessionURL, presenter,
		WithRegistry(s.registry),
		WithService(svc),
		WithModules(nil),
	)
	s.Require().NoError(err)

	d := &recordingDelegate{}
	sess.StartWithDelegate(context.Background(), d)

	s.Require().Len(d.failures, 1)
	s.Equal(domain.KindModulesNotFound, d.failures[0].Kind)
	s.Equal([]string{"fourthline"}, d.failures[0].Modules)
	result, ok := sess.Result()
	s.True(ok)
	s.Equal(domain.ResultFailure, result.Kind)
}

func (s *SessionSuite) TestCancelEndsRunningSession() {
	svc := mocks.NewMockService(s.ctrl)
	waitOnTerms(svc)
	presenter := &flowtest.Presenter{}
	sess := s.newSession(presenter, svc)

	var results []domain.SessionResult
	sess.Start(context.Background(), func(r domain.SessionResult) { results = append(results, r) })
	sess.Cancel()

	s.Require().Len(results, 1)
	s.True(errors.Is(results[0].Err, domain.ErrUserCanceled))
	s.Equal(1, presenter.DismissCount())
	_, ok := s.registry.Active()
	s.False(ok)
}

func (s *SessionSuite) TestCancelStopsPaymentPolling() {
	ctx := context.Background()
	fake := clock.NewFake(clock.Real{}.Now())
	store := storage.NewMemory()
	prior, err := session.Open(ctx, store, "tok-123", session.WithClock(fake))
	s.Require().NoError(err)
	s.Require().NoError(prior.SetPhoneVerified(ctx, true))
	s.Require().NoError(prior.SetIdentificationUID(ctx, "ident-1"))
	s.Require().NoError(prior.SetBankIDStep(ctx, string(bankid.StepPaymentVerification)))

	svc := mocks.NewMockService(s.ctrl)
	svc.EXPECT().DefineIdentificationMethod(gomock.Any()).Return(domain.IdentificationMethod{
		FirstStep: domain.StepInfo{Step: domain.StepBankIBAN, RequiredModules: []string{"bank"}},
	}, nil)
	svc.EXPECT().ObtainIdentificationInfo(gomock.Any()).
		Return(domain.IdentificationInfo{Step: domain.StepBankIBAN, AcceptedTC: true}, nil).Times(2)
	fetches := 0
	svc.EXPECT().GetIdentification(gomock.Any(), "ident-1").DoAndReturn(
		func(context.Context, string) (domain.Identification, error) {
			fetches++
			return domain.Identification{ID: "ident-1", Status: domain.StatusPending}, nil
		}).AnyTimes()

	presenter := &flowtest.Presenter{}
	sess, err := New(sessionURL, presenter,
		WithRegistry(s.registry),
		WithService(svc),
		WithBackend(store),
		WithClock(fake),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	var results []domain.SessionResult
	sess.Start(ctx, func(r domain.SessionResult) { results = append(results, r) })
	s.Equal("payment_verification", presenter.TopShowable().Name())
	fake.Advance(3 * time.Second)
	s.Equal(1, fetches)

	sess.Cancel()
	s.Require().Len(results, 1)
	s.True(errors.Is(results[0].Err, domain.ErrUserCanceled))

	fake.Advance(30 * time.Second)
	s.Equal(1, fetches, "no status checks after cancel")
	s.Eventually(func() bool { return fake.Pending() == 0 }, time.Second, 5*time.Millisecond)
	s.Len(results, 1)
}

func TestNewParsesToken(t *testing.T) {
	cases := map[string]string{
		"https://identhub.example.com/session/tok-123":         "tok-123",
		"https://identhub.example.com/session/tok-123/":        "tok-123",
		"https://identhub.example.com/start?token=tok-456":     "tok-456",
		"  https://identhub.example.com/a/b/c/tok-789?lang=de": "tok-789",
	}
	for raw, want := range cases {
		sess, err := New(raw, &flowtest.Presenter{})
		require.NoError(t, err, raw)
		assert.Equal(t, want, sess.Token())
	}

	for _, raw := range []string{"", "not a url", "/relative/tok", "https://identhub.example.com"} {
		_, err := New(raw, &flowtest.Presenter{})
		assert.Equal(t, domain.KindRequestError, domain.KindOf(err), raw)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.TryAcquire("a"))
	assert.False(t, r.TryAcquire("b"))
	assert.False(t, r.Release("b"))
	assert.True(t, r.Release("a"))
	assert.True(t, r.TryAcquire("b"))
}

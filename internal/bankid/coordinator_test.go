package bankid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"identhub/internal/app"
	"identhub/internal/app/apptest"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

const validIBAN = "DE89370400440532013000"

type stubQES struct {
	started []domain.IdentificationStep
	output  domain.FlowOutput
}

func (s *stubQES) Start(step domain.IdentificationStep, done func(flow.Result[domain.FlowOutput])) {
	s.started = append(s.started, step)
	done(flow.Success(s.output))
}

type CoordinatorSuite struct {
	suite.Suite
	ctx    context.Context
	h      *apptest.Harness
	result apptest.Result[domain.FlowOutput]
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.h = apptest.New(s.T())
	s.result = apptest.Result[domain.FlowOutput]{}
}

func (s *CoordinatorSuite) start(step domain.IdentificationStep) {
	flow.StartCoordinator(s.h.Deps.Coordinators, New(s.h.Deps), step, s.result.Done)
}

func (s *CoordinatorSuite) phoneState() PhoneState {
	screen, ok := s.h.Presenter.TopShowable().(*flow.Screen[PhoneState, PhoneEvent])
	s.Require().True(ok, "top is %s", s.h.TopName())
	return screen.State()
}

func (s *CoordinatorSuite) ibanState() IBANState {
	screen, ok := s.h.Presenter.TopShowable().(*flow.Screen[IBANState, IBANEvent])
	s.Require().True(ok, "top is %s", s.h.TopName())
	return screen.State()
}

func (s *CoordinatorSuite) TestStepsOutsideTheBankFlowFailOnce() {
	cases := map[domain.IdentificationStep]error{
		domain.StepUnspecified:     domain.ErrUnsupportedResponse,
		domain.StepFourthline:      domain.ErrUnsupportedResponse,
		domain.StepPartnerFallback: domain.ErrIdentificationNotPossible,
	}
	for step, want := range cases {
		s.Run(step.String(), func() {
			s.SetupTest()
			s.start(step)

			s.Equal(1, s.result.Calls)
			s.True(errors.Is(s.result.Last.Err, want))
			s.Equal(1, s.h.Presenter.DismissCount())
			s.Empty(s.h.Presenter.Pushed)
		})
	}
}

func (s *CoordinatorSuite) TestPhoneVerificationWithCooldown() {
	svc := s.h.Service.EXPECT()
	svc.GetMobileNumber(gomock.Any()).Return(domain.MobileNumber{ID: "m-1", Number: "+491701234567"}, nil)
	svc.AuthorizeMobileNumber(gomock.Any(), "+491701234567").Return(domain.MobileNumber{}, nil).Times(2)
	svc.VerifyMobileNumberTAN(gomock.Any(), "123456").Return(domain.MobileNumber{Verified: true}, nil)

	s.start(domain.StepMobileNumber)
	s.Equal("phone_verification", s.h.TopName())
	s.Equal(PhoneReady, s.phoneState().Phase)
	s.Equal("+491701234567", s.h.Session.MobileNumber())

	s.h.Dispatch(s.T(), "requestCode", "")
	state := s.phoneState()
	s.Equal(PhoneCodeSent, state.Phase)
	s.Equal(20, state.NewCodeRemainingTime)
	s.False(state.CanRequestNewCode)

	s.h.Dispatch(s.T(), "requestNewCode", "")
	s.h.Clock.Advance(19 * time.Second)
	s.Equal(1, s.phoneState().NewCodeRemainingTime)
	s.False(s.phoneState().CanRequestNewCode)

	s.h.Clock.Advance(time.Second)
	s.Equal(0, s.phoneState().NewCodeRemainingTime)
	s.True(s.phoneState().CanRequestNewCode)

	s.h.Dispatch(s.T(), "requestNewCode", "")
	s.Equal(20, s.phoneState().NewCodeRemainingTime)

	s.h.Dispatch(s.T(), "submitCode", `{"code":"123456"}`)
	s.True(s.h.Session.PhoneVerified())
	s.Equal("iban_verification", s.h.TopName())
	s.Equal(0, s.result.Calls)
}

func (s *CoordinatorSuite) TestRepeatedRequestCodeSendsOneTAN() {
	s.Require().NoError(s.h.Session.SetMobileNumber(s.ctx, "+491701234567"))
	s.h.Service.EXPECT().AuthorizeMobileNumber(gomock.Any(), "+491701234567").Return(domain.MobileNumber{}, nil).Times(1)

	s.start(domain.StepBankIBAN)
	s.h.Dispatch(s.T(), "requestCode", "")
	s.h.Clock.Advance(5 * time.Second)
	s.Equal(15, s.phoneState().NewCodeRemainingTime)

	s.h.Dispatch(s.T(), "requestCode", "")
	s.Equal(PhoneCodeSent, s.phoneState().Phase)
	s.Equal(15, s.phoneState().NewCodeRemainingTime, "the running cooldown is kept")

	s.h.Clock.Advance(15 * time.Second)
	s.Equal(0, s.phoneState().NewCodeRemainingTime)
	s.True(s.phoneState().CanRequestNewCode)
	s.Zero(s.h.Clock.Pending())
}

func (s *CoordinatorSuite) TestNewCodeRestartsCooldown() {
	s.Require().NoError(s.h.Session.SetMobileNumber(s.ctx, "+491701234567"))
	s.h.Service.EXPECT().AuthorizeMobileNumber(gomock.Any(), "+491701234567").Return(domain.MobileNumber{}, nil).Times(2)

	s.start(domain.StepBankIBAN)
	s.h.Dispatch(s.T(), "requestCode", "")
	s.h.Clock.Advance(20 * time.Second)
	s.h.Dispatch(s.T(), "requestNewCode", "")
	s.Equal(1, s.h.Clock.Pending(), "one countdown at a time")

	s.h.Clock.Advance(19 * time.Second)
	s.Equal(1, s.phoneState().NewCodeRemainingTime)
	s.False(s.phoneState().CanRequestNewCode)
}

func (s *CoordinatorSuite) TestWrongTANStaysOnScreen() {
	s.Require().NoError(s.h.Session.SetMobileNumber(s.ctx, "+491701234567"))
	svc := s.h.Service.EXPECT()
	svc.AuthorizeMobileNumber(gomock.Any(), gomock.Any()).Return(domain.MobileNumber{}, nil)
	svc.VerifyMobileNumberTAN(gomock.Any(), "000000").Return(domain.MobileNumber{}, domain.NewAPIError(domain.KindUnprocessableEntity, nil))

	s.start(domain.StepBankIBAN)
	s.h.Dispatch(s.T(), "requestCode", "")
	s.h.Dispatch(s.T(), "submitCode", `{"code":"000000"}`)

	s.Equal(PhoneFailed, s.phoneState().Phase)
	s.Equal(domain.KindUnprocessableEntity, s.phoneState().ErrorKind)
	s.False(s.h.Session.PhoneVerified())
	s.Equal(0, s.result.Calls)
}

func (s *CoordinatorSuite) TestIBANRetryBudgetEndsExactlyOnce() {
	s.Require().NoError(s.h.Session.SetPhoneVerified(s.ctx, true))
	s.Require().NoError(s.h.Session.SetRetries(s.ctx, 3))
	rejected := domain.NewAPIError(domain.KindClientError, &domain.ErrorDetail{Code: "client_error"})
	s.h.Service.EXPECT().VerifyIBAN(gomock.Any(), validIBAN, domain.StepBankIBAN).Return(domain.Identification{}, rejected).Times(3)

	s.start(domain.StepBankIBAN)
	s.Equal(3, s.ibanState().AttemptsLeft)

	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"DE89 3704 0044 0532 0130 00"}`)
	s.Equal(IBANFailed, s.ibanState().Phase)
	s.Equal(2, s.ibanState().AttemptsLeft)

	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"`+validIBAN+`"}`)
	s.Equal(1, s.ibanState().AttemptsLeft)
	s.Equal(0, s.result.Calls)

	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"`+validIBAN+`"}`)
	s.Equal(1, s.result.Calls)
	s.True(errors.Is(s.result.Last.Err, domain.ErrIBANVerificationFailed))
	s.Equal(1, s.h.Presenter.DismissCount())
	s.Equal(3, s.h.Session.IBANAttempts())

	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"`+validIBAN+`"}`)
	s.Equal(1, s.result.Calls)
}

func (s *CoordinatorSuite) TestMalformedIBANNeverReachesBackend() {
	s.Require().NoError(s.h.Session.SetPhoneVerified(s.ctx, true))

	s.start(domain.StepBankIBAN)
	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"DE00 1234"}`)

	s.Equal(IBANFailed, s.ibanState().Phase)
	s.Equal(0, s.h.Session.IBANAttempts())
}

func (s *CoordinatorSuite) TestIBANFallbackOffer() {
	s.Require().NoError(s.h.Session.SetPhoneVerified(s.ctx, true))
	offer := domain.NewAPIError(domain.KindServerError, &domain.ErrorDetail{FallbackStep: domain.StepPtr(domain.StepFourthline)})
	s.h.Service.EXPECT().VerifyIBAN(gomock.Any(), validIBAN, domain.StepBankIDIBAN).Return(domain.Identification{}, offer)

	s.start(domain.StepBankIDIBAN)
	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"`+validIBAN+`"}`)
	s.Equal(IBANFallbackOffered, s.ibanState().Phase)
	s.Equal(domain.StepFourthline, s.ibanState().FallbackStep)

	s.h.Dispatch(s.T(), "useFallback", "")
	s.Equal(1, s.result.Calls)
	s.Equal(domain.OutputNextStep, s.result.Last.Value.Kind)
	s.Equal(domain.StepFourthline, s.result.Last.Value.Step)
	s.Equal(0, s.h.Presenter.DismissCount())
}

func (s *CoordinatorSuite) TestPaymentPollingCompletes() {
	s.Require().NoError(s.h.Session.SetPhoneVerified(s.ctx, true))
	svc := s.h.Service.EXPECT()
	svc.VerifyIBAN(gomock.Any(), validIBAN, domain.StepBankIBAN).Return(domain.Identification{ID: "ident-1", Status: domain.StatusPending}, nil)
	gomock.InOrder(
		svc.GetIdentification(gomock.Any(), "ident-1").Return(domain.Identification{ID: "ident-1", Status: domain.StatusPending}, nil),
		svc.GetIdentification(gomock.Any(), "ident-1").Return(domain.Identification{ID: "ident-1", Status: domain.StatusSuccessful}, nil),
	)

	s.start(domain.StepBankIBAN)
	s.h.Dispatch(s.T(), "submitIBAN", `{"iban":"`+validIBAN+`"}`)
	s.Equal("payment_verification", s.h.TopName())
	s.Equal("ident-1", s.h.Session.IdentificationUID())

	s.h.Clock.Advance(3 * time.Second)
	s.Equal(0, s.result.Calls)
	s.h.Clock.Advance(3 * time.Second)

	s.Equal(1, s.result.Calls)
	s.Equal(domain.OutputComplete, s.result.Last.Value.Kind)
	s.Equal(string(StepFinish), s.h.Session.BankIDStep())
	s.Equal(0, s.h.Clock.Pending(), "poll timer cancelled")
}

func (s *CoordinatorSuite) TestPaymentHandsOverToQES() {
	qes := &stubQES{output: domain.Confirm(domain.Identification{ID: "ident-1", Status: domain.StatusConfirmed})}
	s.h.Factory.LinkQES(func(*app.Dependencies) app.SubFlow { return qes })
	s.Require().NoError(s.h.Session.SetIdentificationUID(s.ctx, "ident-1"))
	s.Require().NoError(s.h.Session.SetBankIDStep(s.ctx, string(StepPaymentVerification)))
	s.h.Service.EXPECT().GetIdentification(gomock.Any(), "ident-1").
		Return(domain.Identification{ID: "ident-1", Status: domain.StatusAuthorizationRequired}, nil)

	s.start(domain.StepBankIBAN)
	s.h.Clock.Advance(3 * time.Second)

	s.Equal([]domain.IdentificationStep{domain.StepBankIBAN}, qes.started)
	s.Equal(domain.OutputConfirm, s.result.Last.Value.Kind)
}

func (s *CoordinatorSuite) TestQESStepWithoutModule() {
	s.start(domain.StepBankQES)

	s.True(errors.Is(s.result.Last.Err, domain.ErrModulesNotFound))
	s.Equal([]string{"qes"}, domain.AsAPIError(s.result.Last.Err).Modules)
	s.Equal(1, s.h.Presenter.DismissCount())
}

func (s *CoordinatorSuite) TestQuitCancels() {
	s.Require().NoError(s.h.Session.SetPhoneVerified(s.ctx, true))

	s.start(domain.StepBankIBAN)
	s.h.Dispatch(s.T(), "quit", "")

	s.True(errors.Is(s.result.Last.Err, domain.ErrUserCanceled))
	s.Equal(1, s.h.Presenter.DismissCount())
}

func TestValidIBAN(t *testing.T) {
	for _, iban := range []string{validIBAN, "GB82WEST12345698765432", NormalizeIBAN("nl91 abna 0417 1643 00")} {
		if !ValidIBAN(iban) {
			t.Errorf("expected %s to be valid", iban)
		}
	}
	for _, iban := range []string{"DE89370400440532013001", "DE8937040044", "1289370400440532013000", "DE89-370400440532013000"} {
		if ValidIBAN(iban) {
			t.Errorf("expected %s to be invalid", iban)
		}
	}
}

package fourthline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"identhub/internal/app/apptest"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

type recordingTasks struct {
	begun, ended int
}

func (r *recordingTasks) Begin(string) func() {
	r.begun++
	return func() { r.ended++ }
}

type CoordinatorSuite struct {
	suite.Suite
	h      *apptest.Harness
	tasks  *recordingTasks
	result apptest.Result[domain.FlowOutput]
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.h = apptest.New(s.T())
	s.tasks = &recordingTasks{}
	s.h.Deps.Tasks = s.tasks
	s.result = apptest.Result[domain.FlowOutput]{}
}

func (s *CoordinatorSuite) start(step domain.IdentificationStep) {
	flow.StartCoordinator(s.h.Deps.Coordinators, New(s.h.Deps), step, s.result.Done)
}

func (s *CoordinatorSuite) captureUntilUpload(uploaded *[]byte) {
	svc := s.h.Service.EXPECT()
	svc.GetFourthlineIdentification(gomock.Any()).Return(domain.FourthlineIdentification{ID: "fl-1", Provider: "postbank"}, nil)
	svc.FetchPersonData(gomock.Any(), "fl-1").Return(domain.PersonData{
		FirstName:          "Erika",
		LastName:           "Mustermann",
		SupportedDocuments: []domain.SupportedDocument{{Type: domain.DocumentPassport, IssuingCountries: []string{"DE"}}},
	}, nil)
	svc.FetchIPAddress(gomock.Any()).Return(domain.IPAddress{IP: "203.0.113.7"}, nil)
	svc.UploadKYCZip(gomock.Any(), "fl-1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, zip []byte) (domain.Identification, error) {
		*uploaded = zip
		return domain.Identification{ID: "fl-1", Status: domain.StatusPending}, nil
	})

	s.h.Dispatch(s.T(), "start", "")
	s.Equal("selfie", s.h.TopName())
	s.h.Dispatch(s.T(), "captured", `{"image":"c2VsZmll","location":{"latitude":52.52,"longitude":13.40}}`)
	s.h.Dispatch(s.T(), "completed", "")

	s.Equal("document_picker", s.h.TopName())
	s.Equal("fl-1", s.h.Session.IdentificationUID())
	s.Equal("postbank", s.h.Session.Provider())

	s.h.Dispatch(s.T(), "select", `{"type":"id_card"}`)
	s.Equal("document_picker", s.h.TopName(), "id cards are not offered to this person")
	s.h.Dispatch(s.T(), "select", `{"type":"passport"}`)

	s.Equal("document_scanner", s.h.TopName())
	for i := 0; i < 2; i++ {
		s.h.Dispatch(s.T(), "captured", `{"image":"cGFnZQ=="}`)
		s.h.Dispatch(s.T(), "stepSuccess", "")
	}
	s.h.Dispatch(s.T(), "completed", `{"document_number":"c01x-00t47","expiry_date":"2031-05-01"}`)

	s.Equal("document_info", s.h.TopName())
	s.h.Dispatch(s.T(), "confirm", "")
}

func (s *CoordinatorSuite) TestCaptureUploadAndComplete() {
	var uploaded []byte
	s.h.Service.EXPECT().ObtainFourthlineIdentificationStatus(gomock.Any(), "fl-1").
		Return(domain.Identification{ID: "fl-1", Status: domain.StatusSuccessful}, nil)

	s.start(domain.StepFourthline)
	s.Equal("fourthline_welcome", s.h.TopName())
	s.captureUntilUpload(&uploaded)

	s.Equal("fourthline_result", s.h.TopName())
	s.Equal(1, s.tasks.begun)
	s.Equal(1, s.tasks.ended)

	reader, err := zip.NewReader(bytes.NewReader(uploaded), int64(len(uploaded)))
	s.Require().NoError(err)
	names := make([]string, 0, len(reader.File))
	var meta Metadata
	for _, f := range reader.File {
		names = append(names, f.Name)
		if f.Name == "metadata.json" {
			rc, err := f.Open()
			s.Require().NoError(err)
			raw, err := io.ReadAll(rc)
			s.Require().NoError(err)
			s.Require().NoError(json.Unmarshal(raw, &meta))
		}
	}
	s.ElementsMatch([]string{"metadata.json", "selfie.jpg", "document_front.jpg", "document_front_angled.jpg"}, names)
	s.Equal("C01X00T47", meta.Document.Number)
	s.Equal("203.0.113.7", meta.IPAddress)
	s.Equal("postbank", meta.Provider)
	s.Require().NotNil(meta.Location)

	s.h.Clock.Advance(3 * time.Second)
	s.Equal(1, s.result.Calls)
	s.Equal(domain.OutputComplete, s.result.Last.Value.Kind)
}

func (s *CoordinatorSuite) TestSigningContinuesInBankFlow() {
	s.Require().NoError(s.h.Session.SetIdentificationUID(context.Background(), "fl-9"))
	s.h.Service.EXPECT().ObtainFourthlineIdentificationStatus(gomock.Any(), "fl-9").
		Return(domain.Identification{ID: "fl-9", Status: domain.StatusPending, NextStep: domain.StepPtr(domain.StepFourthlineSigning)}, nil)

	s.start(domain.StepFourthlineSigning)
	s.Equal("fourthline_result", s.h.TopName())
	s.h.Clock.Advance(3 * time.Second)

	s.Equal(domain.OutputNextStep, s.result.Last.Value.Kind)
	s.Equal(domain.StepBankIDQES, s.result.Last.Value.Step)
}

func (s *CoordinatorSuite) TestRejectedIdentificationFails() {
	s.Require().NoError(s.h.Session.SetIdentificationUID(context.Background(), "fl-2"))
	s.Require().NoError(s.h.Session.SetFourthlineStep(context.Background(), string(StepResult)))
	gomock.InOrder(
		s.h.Service.EXPECT().ObtainFourthlineIdentificationStatus(gomock.Any(), "fl-2").
			Return(domain.Identification{}, domain.NewAPIError(domain.KindServerError, nil)),
		s.h.Service.EXPECT().ObtainFourthlineIdentificationStatus(gomock.Any(), "fl-2").
			Return(domain.Identification{ID: "fl-2", Status: domain.StatusRejected}, nil),
	)

	s.start(domain.StepFourthline)
	s.h.Clock.Advance(3 * time.Second)
	s.Equal(0, s.result.Calls, "fetch errors keep polling")
	s.h.Clock.Advance(3 * time.Second)

	s.Equal(domain.KindIdentificationFailed, domain.KindOf(s.result.Last.Err))
	s.Equal(1, s.h.Presenter.DismissCount())
}

func (s *CoordinatorSuite) TestExpiredDocumentIsRejected() {
	kyc := NewKYCContainer()
	kyc.DocumentType = domain.DocumentPassport
	kyc.DocumentNumber = "C01X00T47"
	kyc.ExpiryDate = "2020-01-01"
	var done int
	screen := NewDocumentInfo(s.h.Deps, kyc).Perform(struct{}{}, func(stepResult) bool { done++; return true })
	info := screen.(*flow.Screen[InfoState, InfoEvent])

	s.Require().NoError(info.Dispatch("confirm", nil))
	s.Equal(0, done)
	s.Contains(info.State().Errors, "expiry_date")

	s.Require().NoError(info.Dispatch("update", []byte(`{"expiry_date":"2030-12-31"}`)))
	s.Require().NoError(info.Dispatch("confirm", nil))
	s.Equal(1, done)
	s.Equal("2030-12-31", kyc.ExpiryDate)
}

func (s *CoordinatorSuite) TestScannerFailureDiscardsCapture() {
	kyc := NewKYCContainer()
	kyc.ResetDocument(domain.DocumentIDCard)
	screen := NewDocumentScanner(kyc).Perform(domain.DocumentIDCard, func(stepResult) bool { return true })
	scanner := screen.(*flow.Screen[ScannerState, ScannerEvent])

	s.Require().NoError(scanner.Dispatch("captured", []byte(`{"image":"cGFnZQ=="}`)))
	s.Require().NoError(scanner.Dispatch("stepFailure", []byte(`{"message":"blurry"}`)))
	s.Empty(kyc.DocumentImages)
	s.Equal(ScannerScanning, scanner.State().Phase)
	s.Equal("blurry", scanner.State().Error)

	s.Require().NoError(scanner.Dispatch("captured", []byte(`{"image":"cGFnZQ=="}`)))
	s.Require().NoError(scanner.Dispatch("stepSuccess", nil))
	s.Equal(1, scanner.State().Current)
	s.Equal([]string{"front", "front_angled", "back", "back_angled"}, scanner.State().Steps)
}

func (s *CoordinatorSuite) TestNonFourthlineStep() {
	s.start(domain.StepBankIBAN)

	s.True(errors.Is(s.result.Last.Err, domain.ErrUnsupportedResponse))
	s.Equal(1, s.h.Presenter.DismissCount())
}

func TestArchiveRequiresEveryCapture(t *testing.T) {
	kyc := NewKYCContainer()
	kyc.Person = &domain.PersonData{FirstName: "Erika"}
	kyc.Selfie = []byte("selfie")
	kyc.ResetDocument(domain.DocumentPassport)
	kyc.DocumentNumber = "C01X00T47"
	kyc.ExpiryDate = "2031-05-01"
	kyc.DocumentImages["front"] = []byte("front")

	if _, err := kyc.Archive(time.Now()); err == nil {
		t.Fatal("expected missing front_angled to fail")
	}
	kyc.DocumentImages["front_angled"] = []byte("angled")
	if _, err := kyc.Archive(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

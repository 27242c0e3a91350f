package fourthline

import (
	"strings"
	"time"
	"unicode"

	"identhub/internal/app"
	"identhub/internal/domain"
	"identhub/internal/flow"
)

var defaultDocuments = []domain.SupportedDocument{
	{Type: domain.DocumentPassport},
	{Type: domain.DocumentIDCard},
}

type PickerState struct {
	Documents []domain.SupportedDocument `json:"documents"`
	Error     string                     `json:"error,omitempty"`
}

type PickerEvent interface{ isPickerEvent() }

// SelectDocument picks the document type to scan.
type SelectDocument struct {
	Type domain.DocumentType `json:"type"`
}

func (SelectDocument) isPickerEvent() {}
func (Quit) isPickerEvent()           {}

var pickerEvents = flow.EventDecoder[PickerEvent]{
	"select": flow.As[SelectDocument, PickerEvent](),
	"quit":   flow.As[Quit, PickerEvent](),
}

type pickResult struct {
	Type domain.DocumentType
	Err  error
}

// DocumentPicker offers the document types the person may use.
type DocumentPicker struct {
	kyc    *KYCContainer
	screen *flow.Screen[PickerState, PickerEvent]
	done   func(pickResult) bool
	over   bool
}

func NewDocumentPicker(kyc *KYCContainer) *DocumentPicker {
	return &DocumentPicker{kyc: kyc}
}

func (a *DocumentPicker) Perform(_ struct{}, done func(pickResult) bool) flow.Showable {
	a.done = done
	docs := defaultDocuments
	if a.kyc.Person != nil && len(a.kyc.Person.SupportedDocuments) > 0 {
		docs = a.kyc.Person.SupportedDocuments
	}
	a.screen = flow.NewScreen("document_picker", PickerState{Documents: docs}, pickerEvents)
	a.screen.Bind(flow.HandlerFunc[PickerEvent](a.handle))
	return a.screen
}

func (a *DocumentPicker) handle(e PickerEvent) {
	if a.over {
		return
	}
	switch e := e.(type) {
	case SelectDocument:
		state := a.screen.State()
		for _, doc := range state.Documents {
			if doc.Type == e.Type && len(doc.Type.RequiredScanSteps()) > 0 {
				a.over = true
				a.kyc.ResetDocument(doc.Type)
				a.done(pickResult{Type: doc.Type})
				return
			}
		}
		state.Error = "unsupported document type " + string(e.Type)
		a.screen.UpdateView(state)
	case Quit:
		a.over = true
		a.done(pickResult{Err: domain.UserCanceled()})
	}
}

type ScannerPhase string

const (
	ScannerScanning ScannerPhase = "scanning"
	ScannerCaptured ScannerPhase = "step_captured"
	ScannerComplete ScannerPhase = "complete"
)

type ScannerState struct {
	DocumentType domain.DocumentType `json:"document_type"`
	Phase        ScannerPhase        `json:"phase"`
	Steps        []string            `json:"steps"`
	Current      int                 `json:"current"`
	Warning      string              `json:"warning,omitempty"`
	Error        string              `json:"error,omitempty"`
}

type ScannerEvent interface{ isScannerEvent() }

func (Captured) isScannerEvent()    {}
func (StepSuccess) isScannerEvent() {}
func (StepWarning) isScannerEvent() {}
func (StepFailure) isScannerEvent() {}
func (Completed) isScannerEvent()   {}
func (Retake) isScannerEvent()      {}
func (Quit) isScannerEvent()        {}

var scannerEvents = flow.EventDecoder[ScannerEvent]{
	"captured":    flow.As[Captured, ScannerEvent](),
	"stepSuccess": flow.As[StepSuccess, ScannerEvent](),
	"stepWarning": flow.As[StepWarning, ScannerEvent](),
	"stepFailure": flow.As[StepFailure, ScannerEvent](),
	"completed":   flow.As[Completed, ScannerEvent](),
	"retake":      flow.As[Retake, ScannerEvent](),
	"quit":        flow.As[Quit, ScannerEvent](),
}

// DocumentScanner walks through the sides and angles of a document.
type DocumentScanner struct {
	kyc    *KYCContainer
	screen *flow.Screen[ScannerState, ScannerEvent]
	done   func(stepResult) bool
	over   bool
}

func NewDocumentScanner(kyc *KYCContainer) *DocumentScanner {
	return &DocumentScanner{kyc: kyc}
}

func (a *DocumentScanner) Perform(docType domain.DocumentType, done func(stepResult) bool) flow.Showable {
	a.done = done
	steps := docType.RequiredScanSteps()
	keys := make([]string, len(steps))
	for i, step := range steps {
		keys[i] = step.Key()
	}
	a.screen = flow.NewScreen("document_scanner", ScannerState{
		DocumentType: docType,
		Phase:        ScannerScanning,
		Steps:        keys,
	}, scannerEvents)
	a.screen.Bind(flow.HandlerFunc[ScannerEvent](a.handle))
	return a.screen
}

func (a *DocumentScanner) handle(e ScannerEvent) {
	if a.over {
		return
	}
	state := a.screen.State()
	switch e := e.(type) {
	case Captured:
		if state.Phase != ScannerScanning || len(e.Image) == 0 {
			return
		}
		a.kyc.DocumentImages[state.Steps[state.Current]] = e.Image
		state.Phase = ScannerCaptured
		state.Error = ""
	case StepSuccess:
		if state.Phase != ScannerCaptured {
			return
		}
		state.Current++
		state.Warning = ""
		state.Phase = ScannerScanning
		if state.Current == len(state.Steps) {
			state.Phase = ScannerComplete
		}
	case StepWarning:
		state.Warning = e.Message
	case StepFailure:
		if state.Phase == ScannerCaptured {
			delete(a.kyc.DocumentImages, state.Steps[state.Current])
			state.Phase = ScannerScanning
		}
		state.Error = e.Message
	case Retake:
		a.kyc.ResetDocument(state.DocumentType)
		state.Current = 0
		state.Phase = ScannerScanning
		state.Warning = ""
		state.Error = ""
	case Completed:
		if state.Phase != ScannerComplete {
			return
		}
		a.kyc.DocumentNumber = normalizeDocumentNumber(e.DocumentNumber)
		a.kyc.ExpiryDate = e.ExpiryDate
		a.over = true
		a.done(stepResult{})
		return
	case Quit:
		a.over = true
		a.done(stepResult{Err: domain.UserCanceled()})
		return
	}
	a.screen.UpdateView(state)
}

const expiryLayout = "2006-01-02"

type InfoState struct {
	DocumentType   domain.DocumentType `json:"document_type"`
	DocumentNumber string              `json:"document_number"`
	ExpiryDate     string              `json:"expiry_date"`
	Errors         map[string]string   `json:"errors,omitempty"`
}

type InfoEvent interface{ isInfoEvent() }

// UpdateInfo edits the scanned fields; empty values are left unchanged.
type UpdateInfo struct {
	DocumentNumber string `json:"document_number,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
}

func (UpdateInfo) isInfoEvent() {}
func (Proceed) isInfoEvent()    {}
func (Quit) isInfoEvent()       {}

var infoEvents = flow.EventDecoder[InfoEvent]{
	"update":  flow.As[UpdateInfo, InfoEvent](),
	"confirm": flow.As[Proceed, InfoEvent](),
	"quit":    flow.As[Quit, InfoEvent](),
}

// DocumentInfo lets the user review the scanned number and expiry date.
type DocumentInfo struct {
	deps   *app.Dependencies
	kyc    *KYCContainer
	screen *flow.Screen[InfoState, InfoEvent]
	done   func(stepResult) bool
	over   bool
}

func NewDocumentInfo(deps *app.Dependencies, kyc *KYCContainer) *DocumentInfo {
	return &DocumentInfo{deps: deps, kyc: kyc}
}

func (a *DocumentInfo) Perform(_ struct{}, done func(stepResult) bool) flow.Showable {
	a.done = done
	a.screen = flow.NewScreen("document_info", InfoState{
		DocumentType:   a.kyc.DocumentType,
		DocumentNumber: a.kyc.DocumentNumber,
		ExpiryDate:     a.kyc.ExpiryDate,
	}, infoEvents)
	a.screen.Bind(flow.HandlerFunc[InfoEvent](a.handle))
	return a.screen
}

func (a *DocumentInfo) handle(e InfoEvent) {
	if a.over {
		return
	}
	state := a.screen.State()
	switch e := e.(type) {
	case UpdateInfo:
		if e.DocumentNumber != "" {
			state.DocumentNumber = normalizeDocumentNumber(e.DocumentNumber)
		}
		if e.ExpiryDate != "" {
			state.ExpiryDate = strings.TrimSpace(e.ExpiryDate)
		}
		state.Errors = nil
		a.screen.UpdateView(state)
	case Proceed:
		state.Errors = validateInfo(state, a.deps.Runtime.Clock.Now())
		if len(state.Errors) > 0 {
			a.screen.UpdateView(state)
			return
		}
		a.kyc.DocumentNumber = state.DocumentNumber
		a.kyc.ExpiryDate = state.ExpiryDate
		a.over = true
		a.done(stepResult{})
	case Quit:
		a.over = true
		a.done(stepResult{Err: domain.UserCanceled()})
	}
}

func validateInfo(state InfoState, now time.Time) map[string]string {
	errs := make(map[string]string)
	if len(state.DocumentNumber) < 5 {
		errs["document_number"] = "document number is too short"
	}
	expiry, err := time.Parse(expiryLayout, state.ExpiryDate)
	switch {
	case err != nil:
		errs["expiry_date"] = "expiry date must look like 2030-12-31"
	case !expiry.After(now):
		errs["expiry_date"] = "document has expired"
	}
	return errs
}

func normalizeDocumentNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, raw)
}

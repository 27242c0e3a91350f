package domain

import "time"

// FourthlineIdentification is the registration of a Fourthline identification.
type FourthlineIdentification struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference"`
	Provider    string `json:"provider,omitempty"`
	Status      Status `json:"status"`
}

// DocumentType enumerates identity documents the scanner can capture.
type DocumentType string

const (
	DocumentPassport        DocumentType = "passport"
	DocumentIDCard          DocumentType = "id_card"
	DocumentResidencePermit DocumentType = "residence_permit"
	DocumentDrivingLicense  DocumentType = "driving_license"
)

// DocumentSide is a physical side of a document.
type DocumentSide string

const (
	SideFront DocumentSide = "front"
	SideBack  DocumentSide = "back"
)

// ScanStep is one capture the document scanner must deliver.
type ScanStep struct {
	Side   DocumentSide `json:"side"`
	Angled bool         `json:"angled"`
}

// Key identifies the step inside a capture set.
func (s ScanStep) Key() string {
	if s.Angled {
		return string(s.Side) + "_angled"
	}
	return string(s.Side)
}

// RequiredScanSteps lists the captures a document type needs, in scan order.
func (d DocumentType) RequiredScanSteps() []ScanStep {
	switch d {
	case DocumentPassport:
		return []ScanStep{{Side: SideFront}, {Side: SideFront, Angled: true}}
	case DocumentIDCard, DocumentResidencePermit, DocumentDrivingLicense:
		return []ScanStep{
			{Side: SideFront},
			{Side: SideFront, Angled: true},
			{Side: SideBack},
			{Side: SideBack, Angled: true},
		}
	}
	return nil
}

// SupportedDocument is a document type accepted for a set of issuing countries.
type SupportedDocument struct {
	Type             DocumentType `json:"type"`
	IssuingCountries []string     `json:"issuing_countries"`
}

// Address is a postal address.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// PersonData is the person record the KYC package is built around.
type PersonData struct {
	FirstName          string              `json:"first_name"`
	LastName           string              `json:"last_name"`
	Gender             string              `json:"gender,omitempty"`
	BirthDate          string              `json:"birth_date"`
	BirthPlace         string              `json:"birth_place,omitempty"`
	Nationality        string              `json:"nationality"`
	Email              string              `json:"email,omitempty"`
	MobileNumber       string              `json:"mobile_number,omitempty"`
	Address            Address             `json:"address"`
	SupportedDocuments []SupportedDocument `json:"supported_documents"`
}

// IPAddress is the public address reported by the backend.
type IPAddress struct {
	IP string `json:"ip"`
}

// Location is a device location captured with the selfie.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

package fourthline

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"identhub/internal/domain"
)

// KYCContainer collects everything the upload needs. It lives in memory only
// and is rebuilt when a session restarts from the beginning.
type KYCContainer struct {
	Provider       string
	Person         *domain.PersonData
	IPAddress      string
	Location       *domain.Location
	Selfie         []byte
	DocumentType   domain.DocumentType
	DocumentImages map[string][]byte
	DocumentNumber string
	ExpiryDate     string
}

func NewKYCContainer() *KYCContainer {
	return &KYCContainer{DocumentImages: make(map[string][]byte)}
}

// ResetDocument forgets every capture of the current document.
func (k *KYCContainer) ResetDocument(docType domain.DocumentType) {
	k.DocumentType = docType
	k.DocumentImages = make(map[string][]byte)
	k.DocumentNumber = ""
	k.ExpiryDate = ""
}

// Metadata is the metadata.json entry of the KYC archive.
type Metadata struct {
	Provider  string            `json:"provider,omitempty"`
	Person    domain.PersonData `json:"person"`
	IPAddress string            `json:"ip_address"`
	Location  *domain.Location  `json:"location,omitempty"`
	Selfie    string            `json:"selfie"`
	Document  DocumentMetadata  `json:"document"`
	CreatedAt time.Time         `json:"created_at"`
}

type DocumentMetadata struct {
	Type       domain.DocumentType `json:"type"`
	Number     string              `json:"number"`
	ExpiryDate string              `json:"expiry_date"`
	Files      []string            `json:"files"`
}

const selfieFile = "selfie.jpg"

// Validate reports the first missing piece of the container.
func (k *KYCContainer) Validate() error {
	switch {
	case k.Person == nil:
		return fmt.Errorf("kyc: person data missing")
	case len(k.Selfie) == 0:
		return fmt.Errorf("kyc: selfie missing")
	case k.DocumentType == "":
		return fmt.Errorf("kyc: document type missing")
	case k.DocumentNumber == "" || k.ExpiryDate == "":
		return fmt.Errorf("kyc: document info missing")
	}
	for _, step := range k.DocumentType.RequiredScanSteps() {
		if len(k.DocumentImages[step.Key()]) == 0 {
			return fmt.Errorf("kyc: document image %s missing", step.Key())
		}
	}
	return nil
}

// Archive builds the zip the backend expects.
func (k *KYCContainer) Archive(now time.Time) ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(k.DocumentImages))
	for key := range k.DocumentImages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	files := make([]string, 0, len(keys))
	for _, key := range keys {
		files = append(files, documentFile(key))
	}

	meta, err := json.MarshalIndent(Metadata{
		Provider:  k.Provider,
		Person:    *k.Person,
		IPAddress: k.IPAddress,
		Location:  k.Location,
		Selfie:    selfieFile,
		Document: DocumentMetadata{
			Type:       k.DocumentType,
			Number:     k.DocumentNumber,
			ExpiryDate: k.ExpiryDate,
			Files:      files,
		},
		CreatedAt: now.UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("kyc: encode metadata: %w", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	entries := []struct {
		name string
		data []byte
	}{
		{"metadata.json", meta},
		{selfieFile, k.Selfie},
	}
	for _, key := range keys {
		entries = append(entries, struct {
			name string
			data []byte
		}{documentFile(key), k.DocumentImages[key]})
	}
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: now.UTC()})
		if err != nil {
			return nil, fmt.Errorf("kyc: add %s: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return nil, fmt.Errorf("kyc: write %s: %w", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("kyc: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func documentFile(key string) string {
	return "document_" + key + ".jpg"
}

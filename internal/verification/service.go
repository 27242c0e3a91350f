// Package verification is the typed facade over the identification backend.
//
// Methods block until the backend answers; flows call them through flow.Async
// so the main context never waits on the network. Every error returned is a
// *domain.APIError.
package verification

import (
	"context"

	"identhub/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Service is one method per backend operation the flows use.
type Service interface {
	DefineIdentificationMethod(ctx context.Context) (domain.IdentificationMethod, error)
	ObtainIdentificationInfo(ctx context.Context) (domain.IdentificationInfo, error)
	GetMobileNumber(ctx context.Context) (domain.MobileNumber, error)
	AuthorizeMobileNumber(ctx context.Context, number string) (domain.MobileNumber, error)
	VerifyMobileNumberTAN(ctx context.Context, token string) (domain.MobileNumber, error)
	VerifyIBAN(ctx context.Context, iban string, step domain.IdentificationStep) (domain.Identification, error)
	GetIdentification(ctx context.Context, uid string) (domain.Identification, error)
	GetFourthlineIdentification(ctx context.Context) (domain.FourthlineIdentification, error)
	UploadKYCZip(ctx context.Context, uid string, zip []byte) (domain.Identification, error)
	FetchPersonData(ctx context.Context, uid string) (domain.PersonData, error)
	FetchIPAddress(ctx context.Context) (domain.IPAddress, error)
	ObtainFourthlineIdentificationStatus(ctx context.Context, uid string) (domain.Identification, error)
	AuthorizeDocuments(ctx context.Context, uid string) (domain.Identification, error)
	VerifyDocumentsTAN(ctx context.Context, uid, token string) (domain.Identification, error)
	DownloadAndSaveDocument(ctx context.Context, uid, documentID string) (string, error)
}

package onboarding

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// DocumentStatus tracks review of an uploaded supplier document
type DocumentStatus string

const (
	DocumentStatusSubmitted  DocumentStatus = "SUBMITTED"
	DocumentStatusAccepted   DocumentStatus = "ACCEPTED"
	DocumentStatusRejected   DocumentStatus = "REJECTED"
	DocumentStatusSuperseded DocumentStatus = "SUPERSEDED"
)

// Document is a file the supplier uploaded to object storage and referenced
// on submission
type Document struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	DocumentType string
	FileName     string
	StorageKey   string
	ContentType  string
	Status       DocumentStatus
	UploadedAt   time.Time
}

// DocumentInput describes a document referenced in a portal submission
type DocumentInput struct {
	DocumentType string
	FileName     string
	StorageKey   string
	ContentType  string
}

// Counts reports whether the document still satisfies its requirement
func (d Document) Counts() bool {
	return d.Status == DocumentStatusSubmitted || d.Status == DocumentStatusAccepted
}

// NormalizeDocumentType upper-cases and trims a document type code
func NormalizeDocumentType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// StoragePrefix is the object key prefix every document of the request must use
func StoragePrefix(tenantID, requestID uuid.UUID) string {
	return "onboarding/" + tenantID.String() + "/" + requestID.String() + "/"
}

func (in DocumentInput) validate(prefix string) error {
	if NormalizeDocumentType(in.DocumentType) == "" {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document type is required")
	}
	if strings.TrimSpace(in.FileName) == "" {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document file name is required")
	}
	if !strings.HasPrefix(in.StorageKey, prefix) || strings.Contains(in.StorageKey, "..") {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document storage key does not belong to this request")
	}
	return nil
}

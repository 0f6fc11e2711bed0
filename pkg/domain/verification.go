package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerificationField names the KYC check a verification record answers.
type VerificationField string

const (
	VerificationFieldDocumentOCR  VerificationField = "document_ocr"
	VerificationFieldFaceMatch    VerificationField = "face_match"
	VerificationFieldAddressCheck VerificationField = "address_check"
)

// VerificationMethod names how a verification result was produced.
type VerificationMethod string

const (
	VerificationMethodOCR       VerificationMethod = "ocr"
	VerificationMethodFaceMatch VerificationMethod = "face_match"
	VerificationMethodManual    VerificationMethod = "manual"
)

// VerificationRecord is a KYC check result keyed by (person, field).
// It is produced by the identity-verification collaborator and read-only
// input to the auto-approval bridge.
type VerificationRecord struct {
	ID         uuid.UUID          `json:"id" db:"id"`
	TenantID   uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	PersonID   uuid.UUID          `json:"person_id" db:"person_id"`
	Field      VerificationField  `json:"field" db:"field"`
	IsVerified bool               `json:"is_verified" db:"is_verified"`
	Method     VerificationMethod `json:"method" db:"method"`
	Confidence decimal.Decimal    `json:"confidence" db:"confidence"`
	Source     string             `json:"source,omitempty" db:"source"`
	Metadata   Metadata           `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

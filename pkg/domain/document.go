// Package domain defines the core business entities for the lending
// document platform.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ==============================================================================
// ENUMS & STATUS TYPES
// ==============================================================================

// DocumentType represents the kind of uploaded document.
type DocumentType string

const (
	DocumentTypeIdentityFront  DocumentType = "identity_front"
	DocumentTypeIdentityBack   DocumentType = "identity_back"
	DocumentTypeSelfie         DocumentType = "selfie"
	DocumentTypeProofOfAddress DocumentType = "proof_of_address"
	DocumentTypeProofOfIncome  DocumentType = "proof_of_income"
	DocumentTypeBankStatement  DocumentType = "bank_statement"
)

// DocumentCategory is the grouping derived from a document type.
type DocumentCategory string

const (
	DocumentCategoryIdentity  DocumentCategory = "identity"
	DocumentCategoryResidence DocumentCategory = "residence"
	DocumentCategoryFinancial DocumentCategory = "financial"
)

// Category returns the category a document type belongs to.
func (t DocumentType) Category() DocumentCategory {
	switch t {
	case DocumentTypeIdentityFront, DocumentTypeIdentityBack, DocumentTypeSelfie:
		return DocumentCategoryIdentity
	case DocumentTypeProofOfAddress:
		return DocumentCategoryResidence
	case DocumentTypeProofOfIncome, DocumentTypeBankStatement:
		return DocumentCategoryFinancial
	}
	return ""
}

// IsValid reports whether t is a known document type.
func (t DocumentType) IsValid() bool {
	return t.Category() != ""
}

// DocumentStatus represents the review lifecycle status of a document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
	DocumentStatusExpired  DocumentStatus = "expired"
)

// OwnerKind identifies the subject a document belongs to.
type OwnerKind string

const (
	OwnerKindPerson         OwnerKind = "person"
	OwnerKindIdentification OwnerKind = "identification"
)

// IsValid reports whether k is a known owner kind.
func (k OwnerKind) IsValid() bool {
	switch k {
	case OwnerKindPerson, OwnerKindIdentification:
		return true
	}
	return false
}

// ReplacementReason records why a document was superseded.
type ReplacementReason string

const (
	ReplacementReasonRejected ReplacementReason = "rejected"
	ReplacementReasonExpired  ReplacementReason = "expired"
	ReplacementReasonUpdated  ReplacementReason = "updated"
)

// ==============================================================================
// DOMAIN MODELS
// ==============================================================================

// Owner is the subject a document concerns. Exactly one owner per document,
// immutable after creation.
type Owner struct {
	Kind OwnerKind `json:"kind" db:"owner_kind"`
	ID   uuid.UUID `json:"id" db:"owner_id"`
}

// Document represents an uploaded file plus its review state, validity
// window, and supersession pointer. Superseded records are never deleted,
// only deactivated, so the audit chain stays intact.
type Document struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`

	DocumentType DocumentType     `json:"document_type" db:"document_type"`
	Category     DocumentCategory `json:"category" db:"category"`

	OwnerKind OwnerKind `json:"owner_kind" db:"owner_kind"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`

	Status DocumentStatus `json:"status" db:"status"`

	// Active-document fields. At most one document per
	// (owner_kind, owner_id, document_type) has IsActive = true.
	IsActive          bool               `json:"is_active" db:"is_active"`
	ValidFrom         *time.Time         `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo           *time.Time         `json:"valid_to,omitempty" db:"valid_to"`
	SupersededByID    *uuid.UUID         `json:"superseded_by_id,omitempty" db:"superseded_by_id"`
	ReplacementReason *ReplacementReason `json:"replacement_reason,omitempty" db:"replacement_reason"`
	ReplacedAt        *time.Time         `json:"replaced_at,omitempty" db:"replaced_at"`

	// Review metadata
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	Notes           string     `json:"notes,omitempty" db:"notes"`

	// Provenance metadata: how/whether KYC validated this document
	// (method, confidence score, source).
	Metadata Metadata `json:"metadata,omitempty" db:"metadata"`

	// Opaque reference into the file-storage collaborator.
	FileRef string `json:"file_ref" db:"file_ref"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Owner returns the document's owning subject.
func (d *Document) Owner() Owner {
	return Owner{Kind: d.OwnerKind, ID: d.OwnerID}
}

// IsSuperseded reports whether the document has been replaced by a newer one.
func (d *Document) IsSuperseded() bool {
	return d.SupersededByID != nil
}

// IsCurrentlyValid reports whether the document is approved and its validity
// window contains asOf. A nil ValidTo means "still valid".
func (d *Document) IsCurrentlyValid(asOf time.Time) bool {
	if d.Status != DocumentStatusApproved {
		return false
	}
	if d.ValidFrom == nil || asOf.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidTo != nil && !asOf.Before(*d.ValidTo) {
		return false
	}
	return true
}

// ==============================================================================
// KYC AUTO-APPROVAL BRIDGE - internal/kycbridge/bridge.go
// ==============================================================================
// Reconciles asynchronous identity-verification results with document
// uploads. The two arrive in different request flows and may race in either
// order; both entry points converge on the same final state.
// ==============================================================================

package kycbridge

import (
	"context"
	"errors"

	"loandocs/internal/document"
	"loandocs/pkg/domain"
	lderrors "loandocs/pkg/errors"
	"loandocs/pkg/logger"

	"github.com/google/uuid"
)

// VerificationRepository is the read-only view of KYC check results.
type VerificationRepository interface {
	// FindLatestByPersonAndField returns the most recent verification record
	// for a person and field, or ErrVerificationNotFound.
	FindLatestByPersonAndField(ctx context.Context, tenantID, personID uuid.UUID, field domain.VerificationField) (*domain.VerificationRecord, error)
}

// verificationFieldForType is the closed mapping from document type to the
// KYC field that validates it. Document types absent from the map always
// require manual review.
var verificationFieldForType = map[domain.DocumentType]domain.VerificationField{
	domain.DocumentTypeIdentityFront:  domain.VerificationFieldDocumentOCR,
	domain.DocumentTypeIdentityBack:   domain.VerificationFieldDocumentOCR,
	domain.DocumentTypeSelfie:         domain.VerificationFieldFaceMatch,
	domain.DocumentTypeProofOfAddress: domain.VerificationFieldAddressCheck,
}

// FieldForType returns the verification field validating a document type.
func FieldForType(docType domain.DocumentType) (domain.VerificationField, bool) {
	field, ok := verificationFieldForType[docType]
	return field, ok
}

// TypesForField returns the document types a verification field validates.
func TypesForField(field domain.VerificationField) []domain.DocumentType {
	var types []domain.DocumentType
	for t, f := range verificationFieldForType {
		if f == field {
			types = append(types, t)
		}
	}
	return types
}

// Bridge promotes documents to APPROVED when a matching positive
// verification exists, regardless of which side arrived first.
type Bridge struct {
	store         *document.Store
	verifications VerificationRepository
	events        Emitter
	logger        logger.Logger
}

// Emitter receives best-effort approval events.
type Emitter interface {
	DocumentApproved(ctx context.Context, doc *domain.Document, method domain.VerificationMethod)
}

// NewBridge creates a KYC auto-approval bridge. events may be nil.
func NewBridge(store *document.Store, verifications VerificationRepository, events Emitter, log logger.Logger) *Bridge {
	return &Bridge{
		store:         store,
		verifications: verifications,
		events:        events,
		logger:        log,
	}
}

// OnDocumentUploaded checks whether a verification result already exists for
// the document's owner and promotes the document to APPROVED if so. A
// missing verification is the common case and not an error.
func (b *Bridge) OnDocumentUploaded(ctx context.Context, doc *domain.Document) error {
	field, ok := FieldForType(doc.DocumentType)
	if !ok {
		return nil
	}

	rec, err := b.verifications.FindLatestByPersonAndField(ctx, doc.TenantID, doc.OwnerID, field)
	if err != nil {
		if errors.Is(err, lderrors.ErrVerificationNotFound) {
			return nil
		}
		return lderrors.Wrap(err, "failed to look up verification record")
	}
	if !rec.IsVerified {
		return nil
	}

	return b.approve(ctx, doc, rec)
}

// OnVerificationRecorded finds the currently active document of the type the
// field validates and promotes it to APPROVED. A missing document is not an
// error: the verification simply arrived before the upload, and
// OnDocumentUploaded will reconcile later.
func (b *Bridge) OnVerificationRecorded(ctx context.Context, owner domain.Owner, tenantID uuid.UUID, rec *domain.VerificationRecord) error {
	if !rec.IsVerified {
		return nil
	}

	for _, docType := range TypesForField(rec.Field) {
		doc, err := b.store.FindActiveByOwnerAndType(ctx, tenantID, owner, docType)
		if err != nil {
			if errors.Is(err, lderrors.ErrDocumentNotFound) {
				continue
			}
			return lderrors.Wrap(err, "failed to look up active document")
		}
		if doc.Status == domain.DocumentStatusApproved {
			continue
		}

		if err := b.approve(ctx, doc, rec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) approve(ctx context.Context, doc *domain.Document, rec *domain.VerificationRecord) error {
	if err := b.store.AutoApprove(ctx, doc, rec); err != nil {
		if errors.Is(err, lderrors.ErrDocumentNotModifiable) {
			// The document was superseded between lookup and approval; the
			// replacement will be reconciled through its own upload path.
			b.logger.Warn("skipping auto-approval of superseded document", map[string]interface{}{
				"document_id": doc.ID,
			})
			return nil
		}
		return err
	}

	if b.events != nil {
		b.events.DocumentApproved(ctx, doc, rec.Method)
	}
	return nil
}

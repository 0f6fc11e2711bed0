// ==============================================================================
// RELATION INDEX - internal/relation/index.go
// ==============================================================================
// Bidirectional index between documents and the entities referencing them.
// OWNERSHIP edges are append-only; USAGE edges have a soft lifecycle
// (active -> detached -> active) so past usage stays discoverable for audit.
// ==============================================================================

package relation

import (
	"context"
	"errors"
	"time"

	"loandocs/internal/repository"
	"loandocs/pkg/domain"
	lderrors "loandocs/pkg/errors"
	"loandocs/pkg/logger"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for document relations.
type Repository interface {
	Create(ctx context.Context, rel *domain.DocumentRelation) error
	CreateTx(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error
	UpdateDeletedAt(ctx context.Context, id uuid.UUID, deletedAt *time.Time) error
	UpdateDeletedAtTx(ctx context.Context, tx repository.Transaction, id uuid.UUID, deletedAt *time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRelation, error)

	// FindOwnership returns the non-detached OWNERSHIP edge of a document.
	FindOwnership(ctx context.Context, documentID uuid.UUID) (*domain.DocumentRelation, error)
	FindOwnershipTx(ctx context.Context, tx repository.Transaction, documentID uuid.UUID) (*domain.DocumentRelation, error)

	// FindUsage returns the USAGE edge between a document and an application
	// regardless of its lifecycle state, so a detached edge can be restored.
	FindUsage(ctx context.Context, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error)
	FindUsageTx(ctx context.Context, tx repository.Transaction, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error)

	// FindActiveUsageByType returns active USAGE edges in an application whose
	// document has the given type, most recently created document first.
	FindActiveUsageByType(ctx context.Context, applicationID uuid.UUID, docType domain.DocumentType) ([]*domain.DocumentRelation, error)
	FindActiveUsageByTypeTx(ctx context.Context, tx repository.Transaction, applicationID uuid.UUID, docType domain.DocumentType) ([]*domain.DocumentRelation, error)

	// FindByDocumentID returns every edge of a document, detached ones
	// included, for audit consumers.
	FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentRelation, error)
}

// Index maintains document relations and their lifecycle.
type Index struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
}

// NewIndex creates a relation index. now may be nil, in which case
// time.Now is used.
func NewIndex(repo Repository, log logger.Logger, now func() time.Time) *Index {
	if now == nil {
		now = time.Now
	}
	return &Index{repo: repo, logger: log, now: now}
}

// EnsureOwnership inserts the OWNERSHIP edge from a document to its owning
// subject if it does not already exist. Idempotent.
func (i *Index) EnsureOwnership(ctx context.Context, doc *domain.Document, createdBy *uuid.UUID) error {
	return i.ensureOwnership(ctx, nil, doc, createdBy)
}

// EnsureOwnershipTx is EnsureOwnership inside an existing transaction.
func (i *Index) EnsureOwnershipTx(ctx context.Context, tx repository.Transaction, doc *domain.Document, createdBy *uuid.UUID) error {
	return i.ensureOwnership(ctx, tx, doc, createdBy)
}

func (i *Index) ensureOwnership(ctx context.Context, tx repository.Transaction, doc *domain.Document, createdBy *uuid.UUID) error {
	existing, err := i.findOwnership(ctx, tx, doc.ID)
	if err != nil && !errors.Is(err, lderrors.ErrRelationNotFound) {
		return lderrors.Wrap(err, "failed to look up ownership relation")
	}
	if existing != nil {
		return nil
	}

	rel := &domain.DocumentRelation{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		RelatableKind: relatableKindForOwner(doc.OwnerKind),
		RelatableID:   doc.OwnerID,
		Context:       domain.RelationContextOwnership,
		CreatedBy:     createdBy,
		CreatedAt:     i.now(),
	}

	if err := i.create(ctx, tx, rel); err != nil {
		return lderrors.Wrap(err, "failed to create ownership relation")
	}

	i.logger.Info("ownership relation created", map[string]interface{}{
		"document_id":    doc.ID,
		"relatable_kind": rel.RelatableKind,
		"relatable_id":   rel.RelatableID,
	})
	return nil
}

// FindActiveUsage finds the current USAGE relation for a given application
// and document type. Returns ErrRelationNotFound when no document of that
// type is currently attached. When more than one edge qualifies, the one
// whose document was created most recently wins.
func (i *Index) FindActiveUsage(ctx context.Context, applicationID uuid.UUID, docType domain.DocumentType) (*domain.DocumentRelation, error) {
	return i.findActiveUsage(ctx, nil, applicationID, docType)
}

// FindActiveUsageTx is FindActiveUsage inside an existing transaction.
func (i *Index) FindActiveUsageTx(ctx context.Context, tx repository.Transaction, applicationID uuid.UUID, docType domain.DocumentType) (*domain.DocumentRelation, error) {
	return i.findActiveUsage(ctx, tx, applicationID, docType)
}

func (i *Index) findActiveUsage(ctx context.Context, tx repository.Transaction, applicationID uuid.UUID, docType domain.DocumentType) (*domain.DocumentRelation, error) {
	var (
		rels []*domain.DocumentRelation
		err  error
	)
	if tx != nil {
		rels, err = i.repo.FindActiveUsageByTypeTx(ctx, tx, applicationID, docType)
	} else {
		rels, err = i.repo.FindActiveUsageByType(ctx, applicationID, docType)
	}
	if err != nil {
		return nil, lderrors.Wrap(err, "failed to look up active usage relations")
	}
	if len(rels) == 0 {
		return nil, lderrors.ErrRelationNotFound
	}
	if len(rels) > 1 {
		// Should be unreachable: supersession detaches the previous edge in
		// the same transaction that attaches the new one.
		i.logger.Warn("multiple active usage relations for one document type", map[string]interface{}{
			"application_id": applicationID,
			"document_type":  docType,
			"count":          len(rels),
		})
	}
	return rels[0], nil
}

// AttachUsage links a document to an application. If a detached USAGE edge
// already exists for this exact document and application it is restored
// instead of duplicated.
func (i *Index) AttachUsage(ctx context.Context, doc *domain.Document, applicationID uuid.UUID, createdBy *uuid.UUID) (*domain.DocumentRelation, error) {
	return i.attachUsage(ctx, nil, doc, applicationID, createdBy)
}

// AttachUsageTx is AttachUsage inside an existing transaction.
func (i *Index) AttachUsageTx(ctx context.Context, tx repository.Transaction, doc *domain.Document, applicationID uuid.UUID, createdBy *uuid.UUID) (*domain.DocumentRelation, error) {
	return i.attachUsage(ctx, tx, doc, applicationID, createdBy)
}

func (i *Index) attachUsage(ctx context.Context, tx repository.Transaction, doc *domain.Document, applicationID uuid.UUID, createdBy *uuid.UUID) (*domain.DocumentRelation, error) {
	existing, err := i.findUsage(ctx, tx, doc.ID, applicationID)
	if err != nil && !errors.Is(err, lderrors.ErrRelationNotFound) {
		return nil, lderrors.Wrap(err, "failed to look up usage relation")
	}

	if existing != nil {
		if existing.State() == domain.RelationStateActive {
			return existing, nil
		}
		existing.Restore()
		if err := i.updateDeletedAt(ctx, tx, existing.ID, nil); err != nil {
			return nil, lderrors.Wrap(err, "failed to restore usage relation")
		}
		i.logger.Info("usage relation restored", map[string]interface{}{
			"relation_id":    existing.ID,
			"document_id":    doc.ID,
			"application_id": applicationID,
		})
		return existing, nil
	}

	rel := &domain.DocumentRelation{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		RelatableKind: domain.RelatableKindApplication,
		RelatableID:   applicationID,
		Context:       domain.RelationContextUsage,
		CreatedBy:     createdBy,
		CreatedAt:     i.now(),
	}
	if err := i.create(ctx, tx, rel); err != nil {
		return nil, lderrors.Wrap(err, "failed to create usage relation")
	}

	i.logger.Info("usage relation created", map[string]interface{}{
		"relation_id":    rel.ID,
		"document_id":    doc.ID,
		"application_id": applicationID,
	})
	return rel, nil
}

// DetachUsage soft-deletes a USAGE relation. The row is kept so relation
// history remains auditable. Detaching an already-detached relation is a
// no-op.
func (i *Index) DetachUsage(ctx context.Context, rel *domain.DocumentRelation) error {
	return i.detachUsage(ctx, nil, rel)
}

// DetachUsageTx is DetachUsage inside an existing transaction.
func (i *Index) DetachUsageTx(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error {
	return i.detachUsage(ctx, tx, rel)
}

func (i *Index) detachUsage(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error {
	if rel.State() == domain.RelationStateDetached {
		return nil
	}
	rel.Detach(i.now())
	if err := i.updateDeletedAt(ctx, tx, rel.ID, rel.DeletedAt); err != nil {
		return lderrors.Wrap(err, "failed to detach usage relation")
	}

	i.logger.Info("usage relation detached", map[string]interface{}{
		"relation_id": rel.ID,
		"document_id": rel.DocumentID,
	})
	return nil
}

// RelationsForDocument returns every edge of a document for audit consumers,
// detached ones included.
func (i *Index) RelationsForDocument(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentRelation, error) {
	rels, err := i.repo.FindByDocumentID(ctx, documentID)
	if err != nil {
		return nil, lderrors.Wrap(err, "failed to list document relations")
	}
	return rels, nil
}

func (i *Index) create(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error {
	if tx != nil {
		return i.repo.CreateTx(ctx, tx, rel)
	}
	return i.repo.Create(ctx, rel)
}

func (i *Index) findOwnership(ctx context.Context, tx repository.Transaction, documentID uuid.UUID) (*domain.DocumentRelation, error) {
	if tx != nil {
		return i.repo.FindOwnershipTx(ctx, tx, documentID)
	}
	return i.repo.FindOwnership(ctx, documentID)
}

func (i *Index) findUsage(ctx context.Context, tx repository.Transaction, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error) {
	if tx != nil {
		return i.repo.FindUsageTx(ctx, tx, documentID, applicationID)
	}
	return i.repo.FindUsage(ctx, documentID, applicationID)
}

func (i *Index) updateDeletedAt(ctx context.Context, tx repository.Transaction, id uuid.UUID, deletedAt *time.Time) error {
	if tx != nil {
		return i.repo.UpdateDeletedAtTx(ctx, tx, id, deletedAt)
	}
	return i.repo.UpdateDeletedAt(ctx, id, deletedAt)
}

// relatableKindForOwner maps an owner kind to the relatable kind used on
// ownership edges.
func relatableKindForOwner(kind domain.OwnerKind) domain.RelatableKind {
	switch kind {
	case domain.OwnerKindPerson:
		return domain.RelatableKindPerson
	case domain.OwnerKindIdentification:
		// Identification records are owned by a person; the edge still
		// points at the identification subject itself.
		return domain.RelatableKindPerson
	}
	return domain.RelatableKindPerson
}

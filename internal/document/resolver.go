// ==============================================================================
// SUPERSESSION RESOLVER - internal/document/resolver.go
// ==============================================================================
// Decides, when a document is attached to a loan application, whether it
// replaces an existing document of the same type, and applies the
// replacement atomically.
// ==============================================================================

package document

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

// RelationIndex is the slice of the relation index the resolver needs.
// Implemented by relation.Index.
type RelationIndex interface {
	EnsureOwnershipTx(ctx context.Context, tx repository.Transaction, doc *domain.Document, createdBy *uuid.UUID) error
	FindActiveUsageTx(ctx context.Context, tx repository.Transaction, applicationID uuid.UUID, docType domain.DocumentType) (*domain.DocumentRelation, error)
	AttachUsageTx(ctx context.Context, tx repository.Transaction, doc *domain.Document, applicationID uuid.UUID, createdBy *uuid.UUID) (*domain.DocumentRelation, error)
	DetachUsageTx(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error
}

// EventEmitter receives informational events after a resolution commits.
// Emission is best-effort; implementations must not fail the caller.
type EventEmitter interface {
	DocumentSuperseded(ctx context.Context, oldDoc, newDoc *domain.Document, applicationID uuid.UUID, reason domain.ReplacementReason)
	DocumentAttached(ctx context.Context, doc *domain.Document, applicationID uuid.UUID)
}

// Resolver runs the supersession algorithm.
type Resolver struct {
	store     *Store
	relations RelationIndex
	events    EventEmitter
	logger    logger.Logger
}

// NewResolver creates a supersession resolver. events may be nil when no
// timeline collaborator is configured.
func NewResolver(store *Store, relations RelationIndex, events EventEmitter, log logger.Logger) *Resolver {
	return &Resolver{
		store:     store,
		relations: relations,
		events:    events,
		logger:    log,
	}
}

// Resolution describes the outcome of attaching a document.
type Resolution struct {
	Document   *domain.Document          `json:"document"`
	Usage      *domain.DocumentRelation  `json:"usage"`
	Superseded *domain.Document          `json:"superseded,omitempty"`
	Reason     *domain.ReplacementReason `json:"reason,omitempty"`
}

// AttachDocumentToApplication attaches newDoc to the application as usage
// evidence, superseding any existing active document of the same type. The
// whole sequence is one atomic transaction: either the new document is
// attached and its predecessor consistently superseded, or nothing changes.
func (r *Resolver) AttachDocumentToApplication(ctx context.Context, applicationID uuid.UUID, newDocID uuid.UUID, actor *uuid.UUID) (*Resolution, error) {
	var res Resolution

	err := r.store.TransactionManager().WithTransaction(ctx, func(tx repository.Transaction) error {
		newDoc, err := r.store.repo.FindByIDTx(ctx, tx, newDocID)
		if err != nil {
			return err
		}
		res.Document = newDoc

		// Step 1: ownership edge, idempotent.
		if err := r.relations.EnsureOwnershipTx(ctx, tx, newDoc, actor); err != nil {
			return err
		}

		// Step 2: current document of the same type in this application.
		oldUsage, err := r.relations.FindActiveUsageTx(ctx, tx, applicationID, newDoc.DocumentType)
		if err != nil && !errors.Is(err, lderrors.ErrRelationNotFound) {
			return err
		}

		// Step 3: supersede, unless the same document is being re-attached.
		// An old document that was already superseded in another application
		// only has its stale usage edge detached; no new supersession is
		// recorded or announced for it.
		if oldUsage != nil && oldUsage.DocumentID != newDoc.ID {
			oldDoc, err := r.store.repo.FindByIDTx(ctx, tx, oldUsage.DocumentID)
			if err != nil {
				return err
			}

			if !oldDoc.IsSuperseded() {
				reason := replacementReasonFor(oldDoc, newDoc.CreatedAt)
				if err := r.store.SupersedeWithTx(ctx, tx, oldDoc, newDoc, reason); err != nil {
					return err
				}
				res.Superseded = oldDoc
				res.Reason = &reason
			}
			if err := r.relations.DetachUsageTx(ctx, tx, oldUsage); err != nil {
				return err
			}
		}

		// Step 4: attach (create-or-restore) the new usage edge.
		usage, err := r.relations.AttachUsageTx(ctx, tx, newDoc, applicationID, actor)
		if err != nil {
			return err
		}
		res.Usage = usage
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("document attached to application", map[string]interface{}{
		"document_id":    res.Document.ID,
		"application_id": applicationID,
		"superseded":     res.Superseded != nil,
	})

	if r.events != nil {
		if res.Superseded != nil {
			r.events.DocumentSuperseded(ctx, res.Superseded, res.Document, applicationID, *res.Reason)
		}
		r.events.DocumentAttached(ctx, res.Document, applicationID)
	}

	return &res, nil
}

// replacementReasonFor derives the supersession reason from the state of the
// document being replaced: a rejected document was replaced because of the
// rejection, an expired one because it lapsed, anything else is a voluntary
// update of a still-valid document. asOf is the instant the replacement was
// uploaded; comparing against it rather than now matters because activating
// the replacement already closed the old validity window.
func replacementReasonFor(oldDoc *domain.Document, asOf time.Time) domain.ReplacementReason {
	switch {
	case oldDoc.Status == domain.DocumentStatusRejected:
		return domain.ReplacementReasonRejected
	case oldDoc.Status == domain.DocumentStatusExpired:
		return domain.ReplacementReasonExpired
	case oldDoc.ValidTo != nil && oldDoc.ValidTo.Before(asOf):
		return domain.ReplacementReasonExpired
	default:
		return domain.ReplacementReasonUpdated
	}
}

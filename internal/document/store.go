// ==============================================================================
// DOCUMENT ENTITY STORE - internal/document/store.go
// ==============================================================================
// CRUD and state transitions for document records, enforcing the
// at-most-one-active invariant per (owner, document type).
// ==============================================================================

package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"loandocs/internal/repository"
	"loandocs/pkg/domain"
	lderrors "loandocs/pkg/errors"
	"loandocs/pkg/logger"
	"loandocs/pkg/validator"

	"github.com/google/uuid"
)

// ==============================================================================
// REPOSITORY INTERFACE
// ==============================================================================

// Repository defines the data persistence interface for documents.
type Repository interface {
	BeginTransaction(ctx context.Context) (repository.Transaction, error)

	Create(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, doc *domain.Document) error
	UpdateTx(ctx context.Context, tx repository.Transaction, doc *domain.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	FindByIDTx(ctx context.Context, tx repository.Transaction, id uuid.UUID) (*domain.Document, error)

	// FindActiveByOwnerAndType returns active documents for one owner and
	// type, most recently created first. The invariant allows at most one;
	// the slice form exists so Activate can repair violations.
	FindActiveByOwnerAndType(ctx context.Context, tenantID uuid.UUID, owner domain.Owner, docType domain.DocumentType) ([]*domain.Document, error)
	FindActiveByOwnerAndTypeTx(ctx context.Context, tx repository.Transaction, tenantID uuid.UUID, owner domain.Owner, docType domain.DocumentType) ([]*domain.Document, error)

	// FindPredecessors returns the documents superseded by the given one,
	// that is the rows whose superseded_by_id equals id, oldest first. A
	// document gains one predecessor per application it replaced a different
	// document in, so more than one row is possible.
	FindPredecessors(ctx context.Context, id uuid.UUID) ([]*domain.Document, error)
}

// ==============================================================================
// TRANSACTION MANAGER
// ==============================================================================

// TransactionManager runs multi-step mutations as one atomic unit of work.
type TransactionManager struct {
	repo Repository
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(repo Repository) *TransactionManager {
	return &TransactionManager{repo: repo}
}

// WithTransaction executes fn within a transaction, committing on success
// and rolling back on error or panic.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(tx repository.Transaction) error) error {
	tx, err := tm.repo.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ==============================================================================
// ENTITY STORE
// ==============================================================================

// Store implements document lifecycle operations.
type Store struct {
	repo      Repository
	txManager *TransactionManager
	validator *validator.Validator
	logger    logger.Logger
	now       func() time.Time
}

// NewStore creates a document entity store. now may be nil, in which case
// time.Now is used.
func NewStore(repo Repository, v *validator.Validator, log logger.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		repo:      repo,
		txManager: NewTransactionManager(repo),
		validator: v,
		logger:    log,
		now:       now,
	}
}

// TransactionManager exposes the store's transaction manager for callers
// composing document mutations with other repositories.
func (s *Store) TransactionManager() *TransactionManager {
	return s.txManager
}

// CreateInput carries the fields needed to register an uploaded document.
type CreateInput struct {
	TenantID     uuid.UUID           `validate:"required"`
	OwnerKind    domain.OwnerKind    `validate:"required,owner_kind"`
	OwnerID      uuid.UUID           `validate:"required"`
	DocumentType domain.DocumentType `validate:"required,document_type"`
	FileRef      string              `validate:"required"`
	Notes        string
	Metadata     domain.Metadata
}

// Create inserts a new PENDING document. It does not deactivate prior
// documents of the same type; that is the resolver's job, invoked by the
// upload handler after Activate.
func (s *Store) Create(ctx context.Context, in CreateInput) (*domain.Document, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now()
	doc := &domain.Document{
		ID:           uuid.New(),
		TenantID:     in.TenantID,
		DocumentType: in.DocumentType,
		Category:     in.DocumentType.Category(),
		OwnerKind:    in.OwnerKind,
		OwnerID:      in.OwnerID,
		Status:       domain.DocumentStatusPending,
		Notes:        in.Notes,
		Metadata:     in.Metadata,
		FileRef:      in.FileRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, lderrors.Wrap(err, "failed to create document")
	}

	s.logger.Info("document created", map[string]interface{}{
		"document_id":   doc.ID,
		"tenant_id":     doc.TenantID,
		"document_type": doc.DocumentType,
		"owner_kind":    doc.OwnerKind,
		"owner_id":      doc.OwnerID,
	})
	return doc, nil
}

func (s *Store) validateCreate(in CreateInput) error {
	if in.TenantID == uuid.Nil {
		return lderrors.ErrMissingTenant
	}
	if in.OwnerID == uuid.Nil {
		return lderrors.ErrMissingOwner
	}
	if !in.OwnerKind.IsValid() {
		return lderrors.ErrInvalidOwnerKind
	}
	if !in.DocumentType.IsValid() {
		return lderrors.ErrInvalidDocumentType
	}
	if err := s.validator.Validate(in); err != nil {
		return &DomainError{Code: CodeValidationFailed, Category: CategoryValidation, Message: err.Error(), Cause: err}
	}
	return nil
}

// Approve sets the document to APPROVED with a reviewer stamp. Approving a
// superseded document is rejected without any mutation.
func (s *Store) Approve(ctx context.Context, id uuid.UUID, reviewer uuid.UUID) (*domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsSuperseded() {
		return nil, lderrors.ErrDocumentNotModifiable
	}

	now := s.now()
	doc.Status = domain.DocumentStatusApproved
	doc.ReviewedBy = &reviewer
	doc.ReviewedAt = &now
	doc.UpdatedAt = now

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, lderrors.Wrap(err, "failed to approve document")
	}

	s.logger.Info("document approved", map[string]interface{}{
		"document_id": doc.ID,
		"reviewed_by": reviewer,
	})
	return doc, nil
}

// Reject sets the document to REJECTED with the given reason. Rejecting a
// superseded document is rejected without any mutation.
func (s *Store) Reject(ctx context.Context, id uuid.UUID, reason string, reviewer uuid.UUID) (*domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsSuperseded() {
		return nil, lderrors.ErrDocumentNotModifiable
	}

	now := s.now()
	doc.Status = domain.DocumentStatusRejected
	doc.RejectionReason = reason
	doc.ReviewedBy = &reviewer
	doc.ReviewedAt = &now
	doc.UpdatedAt = now

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, lderrors.Wrap(err, "failed to reject document")
	}

	s.logger.Info("document rejected", map[string]interface{}{
		"document_id": doc.ID,
		"reason":      reason,
		"reviewed_by": reviewer,
	})
	return doc, nil
}

// Activate marks the document active with ValidFrom = now and, in the same
// transaction, deactivates any other active document for the same
// (owner kind, owner id, type). This is the local enforcement point of the
// at-most-one-active invariant.
func (s *Store) Activate(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var activated *domain.Document

	err := s.txManager.WithTransaction(ctx, func(tx repository.Transaction) error {
		doc, err := s.repo.FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		others, err := s.repo.FindActiveByOwnerAndTypeTx(ctx, tx, doc.TenantID, doc.Owner(), doc.DocumentType)
		if err != nil {
			return lderrors.Wrap(err, "failed to find active documents")
		}
		for _, other := range others {
			if other.ID == doc.ID {
				continue
			}
			other.IsActive = false
			if other.ValidTo == nil {
				t := now
				other.ValidTo = &t
			}
			other.UpdatedAt = now
			if err := s.repo.UpdateTx(ctx, tx, other); err != nil {
				return lderrors.Wrap(err, "failed to deactivate prior document")
			}
		}

		doc.IsActive = true
		if doc.ValidFrom == nil {
			t := now
			doc.ValidFrom = &t
		}
		doc.UpdatedAt = now
		if err := s.repo.UpdateTx(ctx, tx, doc); err != nil {
			return lderrors.Wrap(err, "failed to activate document")
		}

		activated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document activated", map[string]interface{}{
		"document_id":   activated.ID,
		"document_type": activated.DocumentType,
	})
	return activated, nil
}

// SupersedeWith marks oldDoc as replaced by newDoc with the given reason.
// Idempotent: an already-superseded document is left untouched.
func (s *Store) SupersedeWith(ctx context.Context, oldDoc, newDoc *domain.Document, reason domain.ReplacementReason) error {
	return s.supersedeWith(ctx, nil, oldDoc, newDoc, reason)
}

// SupersedeWithTx is SupersedeWith inside an existing transaction.
func (s *Store) SupersedeWithTx(ctx context.Context, tx repository.Transaction, oldDoc, newDoc *domain.Document, reason domain.ReplacementReason) error {
	return s.supersedeWith(ctx, tx, oldDoc, newDoc, reason)
}

func (s *Store) supersedeWith(ctx context.Context, tx repository.Transaction, oldDoc, newDoc *domain.Document, reason domain.ReplacementReason) error {
	if oldDoc.IsSuperseded() {
		return nil
	}

	now := s.now()
	oldDoc.SupersededByID = &newDoc.ID
	oldDoc.IsActive = false
	// Activate may already have closed the validity window; keep the earlier
	// boundary so chain intervals never overlap.
	if oldDoc.ValidTo == nil {
		t := now
		oldDoc.ValidTo = &t
	}
	r := reason
	oldDoc.ReplacementReason = &r
	oldDoc.ReplacedAt = &now
	oldDoc.UpdatedAt = now

	var err error
	if tx != nil {
		err = s.repo.UpdateTx(ctx, tx, oldDoc)
	} else {
		err = s.repo.Update(ctx, oldDoc)
	}
	if err != nil {
		return lderrors.Wrap(err, "failed to supersede document")
	}

	s.logger.Info("document superseded", map[string]interface{}{
		"document_id":   oldDoc.ID,
		"superseded_by": newDoc.ID,
		"reason":        reason,
	})
	return nil
}

// AutoApprove transitions a pending document to APPROVED based on a KYC
// verification result, stamping provenance metadata. Used by the KYC bridge;
// staff approval goes through Approve.
func (s *Store) AutoApprove(ctx context.Context, doc *domain.Document, rec *domain.VerificationRecord) error {
	if doc.IsSuperseded() {
		return lderrors.ErrDocumentNotModifiable
	}
	if doc.Status == domain.DocumentStatusApproved {
		return nil
	}

	now := s.now()
	doc.Status = domain.DocumentStatusApproved
	doc.ReviewedAt = &now
	if doc.Metadata == nil {
		doc.Metadata = domain.Metadata{}
	}
	doc.Metadata["verification_method"] = string(rec.Method)
	doc.Metadata["verification_confidence"] = rec.Confidence.String()
	doc.Metadata["verification_source"] = rec.Source
	doc.Metadata["validated_at"] = now.UTC().Format(time.RFC3339)
	if len(rec.Metadata) > 0 {
		doc.Metadata["verification_payload"] = map[string]interface{}(rec.Metadata)
	}
	doc.UpdatedAt = now

	if err := s.repo.Update(ctx, doc); err != nil {
		return lderrors.Wrap(err, "failed to auto-approve document")
	}

	s.logger.Info("document auto-approved", map[string]interface{}{
		"document_id":   doc.ID,
		"document_type": doc.DocumentType,
		"method":        rec.Method,
	})
	return nil
}

// FindByID loads a document.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	return s.repo.FindByID(ctx, id)
}

// FindActiveByOwnerAndType returns the active document for an owner and
// type, or ErrDocumentNotFound when none exists.
func (s *Store) FindActiveByOwnerAndType(ctx context.Context, tenantID uuid.UUID, owner domain.Owner, docType domain.DocumentType) (*domain.Document, error) {
	docs, err := s.repo.FindActiveByOwnerAndType(ctx, tenantID, owner, docType)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, lderrors.ErrDocumentNotFound
	}
	return docs[0], nil
}

// CompleteHistoryChain walks the replacement lineage of a document in both
// directions and returns every member exactly once, oldest first (creation
// time, document id as tie-break). The lineage is not always a straight line:
// a document attached to several applications supersedes a different
// predecessor in each, so the backward walk follows every branch.
func (s *Store) CompleteHistoryChain(ctx context.Context, id uuid.UUID) ([]*domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{doc.ID: true}
	chain := []*domain.Document{doc}

	// Forward: follow superseded_by_id pointers.
	cur := doc
	for cur.SupersededByID != nil {
		next, err := s.repo.FindByID(ctx, *cur.SupersededByID)
		if err != nil {
			if isNotFound(err) {
				break
			}
			return nil, lderrors.Wrap(err, "failed to walk history forward")
		}
		if seen[next.ID] {
			break
		}
		seen[next.ID] = true
		chain = append(chain, next)
		cur = next
	}

	// Backward: documents whose superseded_by_id points at any chain member.
	// Seeded with the forward walk's results so branches joining the chain
	// downstream of the starting document are found too.
	queue := append([]*domain.Document(nil), chain...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		prevs, err := s.repo.FindPredecessors(ctx, cur.ID)
		if err != nil {
			return nil, lderrors.Wrap(err, "failed to walk history backward")
		}
		for _, prev := range prevs {
			if seen[prev.ID] {
				continue
			}
			seen[prev.ID] = true
			chain = append(chain, prev)
			queue = append(queue, prev)
		}
	}

	sort.Slice(chain, func(i, j int) bool {
		if !chain[i].CreatedAt.Equal(chain[j].CreatedAt) {
			return chain[i].CreatedAt.Before(chain[j].CreatedAt)
		}
		return chain[i].ID.String() < chain[j].ID.String()
	})
	return chain, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, lderrors.ErrDocumentNotFound)
}

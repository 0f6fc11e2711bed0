// ==============================================================================
// DOCUMENT REPOSITORY - internal/repository/postgres/document.go
// ==============================================================================
// PostgreSQL persistence for document records.
// ==============================================================================

package postgres

import (
	"context"
	"database/sql"

	"loandocs/internal/repository"
	"loandocs/pkg/domain"
	"loandocs/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DocumentRepository implements document persistence.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// BeginTransaction starts a new database transaction.
func (r *DocumentRepository) BeginTransaction(ctx context.Context) (repository.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return newTx(tx), nil
}

const insertDocumentQuery = `
	INSERT INTO documents (
		id, tenant_id, document_type, category, owner_kind, owner_id,
		status, is_active, valid_from, valid_to, superseded_by_id,
		replacement_reason, replaced_at, rejection_reason, reviewed_by,
		reviewed_at, notes, metadata, file_ref, created_at, updated_at
	) VALUES (
		:id, :tenant_id, :document_type, :category, :owner_kind, :owner_id,
		:status, :is_active, :valid_from, :valid_to, :superseded_by_id,
		:replacement_reason, :replaced_at, :rejection_reason, :reviewed_by,
		:reviewed_at, :notes, :metadata, :file_ref, :created_at, :updated_at
	)
`

// Create inserts a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.NamedExecContext(ctx, insertDocumentQuery, doc)
	if err != nil {
		return errors.Wrap(err, "failed to create document")
	}
	return nil
}

const updateDocumentQuery = `
	UPDATE documents SET
		status = :status,
		is_active = :is_active,
		valid_from = :valid_from,
		valid_to = :valid_to,
		superseded_by_id = :superseded_by_id,
		replacement_reason = :replacement_reason,
		replaced_at = :replaced_at,
		rejection_reason = :rejection_reason,
		reviewed_by = :reviewed_by,
		reviewed_at = :reviewed_at,
		notes = :notes,
		metadata = :metadata,
		updated_at = :updated_at
	WHERE id = :id
`

// Update updates an existing document's mutable fields. Classification and
// ownership are immutable after creation and deliberately not listed.
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	result, err := r.db.NamedExecContext(ctx, updateDocumentQuery, doc)
	if err != nil {
		return errors.Wrap(err, "failed to update document")
	}
	return checkUpdated(result, errors.ErrDocumentNotFound)
}

// UpdateTx is Update inside an existing transaction.
func (r *DocumentRepository) UpdateTx(ctx context.Context, tx repository.Transaction, doc *domain.Document) error {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.NamedExecContext(ctx, updateDocumentQuery, doc)
	if err != nil {
		return errors.Wrap(err, "failed to update document")
	}
	return checkUpdated(result, errors.ErrDocumentNotFound)
}

// FindByID finds a document by ID
func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	return r.findByID(ctx, r.db, id)
}

// FindByIDTx is FindByID inside an existing transaction.
func (r *DocumentRepository) FindByIDTx(ctx context.Context, tx repository.Transaction, id uuid.UUID) (*domain.Document, error) {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.findByID(ctx, sqlTx, id)
}

func (r *DocumentRepository) findByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	query := `SELECT * FROM documents WHERE id = $1`

	err := sqlx.GetContext(ctx, q, &doc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrDocumentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find document by ID")
	}
	return &doc, nil
}

const activeByOwnerAndTypeQuery = `
	SELECT * FROM documents
	WHERE tenant_id = $1
	  AND owner_kind = $2
	  AND owner_id = $3
	  AND document_type = $4
	  AND is_active = TRUE
	ORDER BY created_at DESC
`

// FindActiveByOwnerAndType returns active documents for an owner and type,
// most recently created first.
func (r *DocumentRepository) FindActiveByOwnerAndType(ctx context.Context, tenantID uuid.UUID, owner domain.Owner, docType domain.DocumentType) ([]*domain.Document, error) {
	return r.findActiveByOwnerAndType(ctx, r.db, tenantID, owner, docType)
}

// FindActiveByOwnerAndTypeTx is FindActiveByOwnerAndType inside a transaction.
func (r *DocumentRepository) FindActiveByOwnerAndTypeTx(ctx context.Context, tx repository.Transaction, tenantID uuid.UUID, owner domain.Owner, docType domain.DocumentType) ([]*domain.Document, error) {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.findActiveByOwnerAndType(ctx, sqlTx, tenantID, owner, docType)
}

func (r *DocumentRepository) findActiveByOwnerAndType(ctx context.Context, q sqlx.QueryerContext, tenantID uuid.UUID, owner domain.Owner, docType domain.DocumentType) ([]*domain.Document, error) {
	var docs []*domain.Document
	err := sqlx.SelectContext(ctx, q, &docs, activeByOwnerAndTypeQuery, tenantID, owner.Kind, owner.ID, docType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active documents")
	}
	return docs, nil
}

// FindPredecessors returns the documents superseded by the given one, oldest
// first.
func (r *DocumentRepository) FindPredecessors(ctx context.Context, id uuid.UUID) ([]*domain.Document, error) {
	var docs []*domain.Document
	query := `
		SELECT * FROM documents
		WHERE superseded_by_id = $1
		ORDER BY created_at ASC, id ASC
	`

	err := r.db.SelectContext(ctx, &docs, query, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find predecessor documents")
	}
	return docs, nil
}

func checkUpdated(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

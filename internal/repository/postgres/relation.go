// ==============================================================================
// RELATION REPOSITORY - internal/repository/postgres/relation.go
// ==============================================================================
// PostgreSQL persistence for document relation edges.
// ==============================================================================

package postgres

import (
	"context"
	"database/sql"
	"time"

	"loandocs/internal/repository"
	"loandocs/pkg/domain"
	"loandocs/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RelationRepository implements document relation persistence.
type RelationRepository struct {
	db *sqlx.DB
}

// NewRelationRepository creates a new RelationRepository
func NewRelationRepository(db *sqlx.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

const insertRelationQuery = `
	INSERT INTO document_relations (
		id, document_id, relatable_kind, relatable_id, context,
		created_by, created_at, deleted_at
	) VALUES (
		:id, :document_id, :relatable_kind, :relatable_id, :context,
		:created_by, :created_at, :deleted_at
	)
`

// Create inserts a new relation edge
func (r *RelationRepository) Create(ctx context.Context, rel *domain.DocumentRelation) error {
	_, err := r.db.NamedExecContext(ctx, insertRelationQuery, rel)
	if err != nil {
		return errors.Wrap(err, "failed to create document relation")
	}
	return nil
}

// CreateTx is Create inside an existing transaction.
func (r *RelationRepository) CreateTx(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return err
	}
	_, err = sqlTx.NamedExecContext(ctx, insertRelationQuery, rel)
	if err != nil {
		return errors.Wrap(err, "failed to create document relation")
	}
	return nil
}

const updateDeletedAtQuery = `
	UPDATE document_relations SET deleted_at = $1 WHERE id = $2
`

// UpdateDeletedAt sets or clears the soft-delete timestamp of a relation.
func (r *RelationRepository) UpdateDeletedAt(ctx context.Context, id uuid.UUID, deletedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, updateDeletedAtQuery, deletedAt, id)
	if err != nil {
		return errors.Wrap(err, "failed to update relation deleted_at")
	}
	return checkUpdated(result, errors.ErrRelationNotFound)
}

// UpdateDeletedAtTx is UpdateDeletedAt inside an existing transaction.
func (r *RelationRepository) UpdateDeletedAtTx(ctx context.Context, tx repository.Transaction, id uuid.UUID, deletedAt *time.Time) error {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, updateDeletedAtQuery, deletedAt, id)
	if err != nil {
		return errors.Wrap(err, "failed to update relation deleted_at")
	}
	return checkUpdated(result, errors.ErrRelationNotFound)
}

// FindByID finds a relation by ID
func (r *RelationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRelation, error) {
	var rel domain.DocumentRelation
	query := `SELECT * FROM document_relations WHERE id = $1`

	err := r.db.GetContext(ctx, &rel, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrRelationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find relation by ID")
	}
	return &rel, nil
}

const findOwnershipQuery = `
	SELECT * FROM document_relations
	WHERE document_id = $1
	  AND context = 'ownership'
	  AND deleted_at IS NULL
`

// FindOwnership returns the non-detached OWNERSHIP edge of a document.
func (r *RelationRepository) FindOwnership(ctx context.Context, documentID uuid.UUID) (*domain.DocumentRelation, error) {
	return r.getRelation(ctx, r.db, findOwnershipQuery, documentID)
}

// FindOwnershipTx is FindOwnership inside an existing transaction.
func (r *RelationRepository) FindOwnershipTx(ctx context.Context, tx repository.Transaction, documentID uuid.UUID) (*domain.DocumentRelation, error) {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getRelation(ctx, sqlTx, findOwnershipQuery, documentID)
}

const findUsageQuery = `
	SELECT * FROM document_relations
	WHERE document_id = $1
	  AND relatable_kind = 'application'
	  AND relatable_id = $2
	  AND context = 'usage'
`

// FindUsage returns the USAGE edge between a document and an application,
// detached or not, so a detached edge can be restored.
func (r *RelationRepository) FindUsage(ctx context.Context, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error) {
	return r.getRelation(ctx, r.db, findUsageQuery, documentID, applicationID)
}

// FindUsageTx is FindUsage inside an existing transaction.
func (r *RelationRepository) FindUsageTx(ctx context.Context, tx repository.Transaction, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error) {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getRelation(ctx, sqlTx, findUsageQuery, documentID, applicationID)
}

// findActiveUsageByTypeQuery joins through documents so the lookup can
// filter by document type. Ordering makes the most recently created
// document win if the at-most-one invariant is ever violated.
const findActiveUsageByTypeQuery = `
	SELECT r.* FROM document_relations r
	JOIN documents d ON d.id = r.document_id
	WHERE r.relatable_kind = 'application'
	  AND r.relatable_id = $1
	  AND r.context = 'usage'
	  AND r.deleted_at IS NULL
	  AND d.document_type = $2
	ORDER BY d.created_at DESC
`

// FindActiveUsageByType returns active USAGE edges for an application whose
// document has the given type.
func (r *RelationRepository) FindActiveUsageByType(ctx context.Context, applicationID uuid.UUID, docType domain.DocumentType) ([]*domain.DocumentRelation, error) {
	return r.selectRelations(ctx, r.db, findActiveUsageByTypeQuery, applicationID, docType)
}

// FindActiveUsageByTypeTx is FindActiveUsageByType inside a transaction.
func (r *RelationRepository) FindActiveUsageByTypeTx(ctx context.Context, tx repository.Transaction, applicationID uuid.UUID, docType domain.DocumentType) ([]*domain.DocumentRelation, error) {
	sqlTx, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.selectRelations(ctx, sqlTx, findActiveUsageByTypeQuery, applicationID, docType)
}

// FindByDocumentID returns every edge of a document, detached ones included.
func (r *RelationRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentRelation, error) {
	query := `
		SELECT * FROM document_relations
		WHERE document_id = $1
		ORDER BY created_at ASC
	`
	return r.selectRelations(ctx, r.db, query, documentID)
}

func (r *RelationRepository) getRelation(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*domain.DocumentRelation, error) {
	var rel domain.DocumentRelation
	err := sqlx.GetContext(ctx, q, &rel, query, args...)
	if err == sql.ErrNoRows {
		return nil, errors.ErrRelationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find document relation")
	}
	return &rel, nil
}

func (r *RelationRepository) selectRelations(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) ([]*domain.DocumentRelation, error) {
	var rels []*domain.DocumentRelation
	err := sqlx.SelectContext(ctx, q, &rels, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list document relations")
	}
	return rels, nil
}

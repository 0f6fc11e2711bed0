// ==============================================================================
// VERIFICATION REPOSITORY - internal/repository/postgres/verification.go
// ==============================================================================
// Access to KYC verification results produced by the identity-verification
// collaborator. The bridge only reads; Create exists for the ingest path and
// tooling.
// ==============================================================================

package postgres

import (
	"context"
	"database/sql"

	"loandocs/pkg/domain"
	"loandocs/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// VerificationRepository implements verification record persistence.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository creates a new VerificationRepository
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create inserts a verification record.
func (r *VerificationRepository) Create(ctx context.Context, rec *domain.VerificationRecord) error {
	query := `
		INSERT INTO verification_records (
			id, tenant_id, person_id, field, is_verified, method,
			confidence, source, metadata, created_at
		) VALUES (
			:id, :tenant_id, :person_id, :field, :is_verified, :method,
			:confidence, :source, :metadata, :created_at
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		return errors.Wrap(err, "failed to create verification record")
	}
	return nil
}

// FindLatestByPersonAndField returns the most recent verification record for
// a person and field.
func (r *VerificationRepository) FindLatestByPersonAndField(ctx context.Context, tenantID, personID uuid.UUID, field domain.VerificationField) (*domain.VerificationRecord, error) {
	var rec domain.VerificationRecord
	query := `
		SELECT * FROM verification_records
		WHERE tenant_id = $1
		  AND person_id = $2
		  AND field = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &rec, query, tenantID, personID, field)
	if err == sql.ErrNoRows {
		return nil, errors.ErrVerificationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find verification record")
	}
	return &rec, nil
}

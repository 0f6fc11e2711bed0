package document

import (
	"errors"
	"testing"

	lderrors "loandocs/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestAsDomainErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		category  ErrorCategory
		retryable bool
	}{
		{"not modifiable", lderrors.ErrDocumentNotModifiable, CodeNotModifiable, CategoryStateConflict, false},
		{"document not found", lderrors.ErrDocumentNotFound, CodeDocumentNotFound, CategoryNotFound, false},
		{"relation not found", lderrors.ErrRelationNotFound, CodeRelationNotFound, CategoryNotFound, false},
		{"invalid type", lderrors.ErrInvalidDocumentType, CodeInvalidType, CategoryValidation, false},
		{"invalid owner kind", lderrors.ErrInvalidOwnerKind, CodeInvalidOwner, CategoryValidation, false},
		{"missing owner", lderrors.ErrMissingOwner, CodeInvalidOwner, CategoryValidation, false},
		{"missing tenant", lderrors.ErrMissingTenant, CodeInvalidOwner, CategoryValidation, false},
		{"unknown error", errors.New("connection refused"), CodeInfrastructure, CategoryInfrastructure, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := AsDomainError(tt.err)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.category, de.Category)
			assert.Equal(t, tt.retryable, de.IsRetryable())
		})
	}
}

func TestAsDomainErrorUnwrapsWrappedSentinel(t *testing.T) {
	wrapped := lderrors.Wrap(lderrors.ErrDocumentNotModifiable, "approve failed")

	de := AsDomainError(wrapped)

	assert.Equal(t, CodeNotModifiable, de.Code)
	assert.ErrorIs(t, de, lderrors.ErrDocumentNotModifiable)
}

func TestAsDomainErrorNil(t *testing.T) {
	assert.Nil(t, AsDomainError(nil))
}

func TestAsDomainErrorPassesThroughDomainError(t *testing.T) {
	orig := &DomainError{Code: CodeValidationFailed, Category: CategoryValidation, Message: "bad input"}

	de := AsDomainError(lderrors.Wrap(orig, "create failed"))

	assert.Equal(t, orig, de)
}

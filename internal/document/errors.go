// ==============================================================================
// DOCUMENT ERROR HANDLING - internal/document/errors.go
// ==============================================================================
// Maps domain failures to stable error codes so calling handlers can render
// precise messages instead of a generic failure.
// ==============================================================================

package document

import (
	"errors"
	"fmt"

	lderrors "loandocs/pkg/errors"
)

// ErrorCategory represents the category of error for proper handling
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryStateConflict  ErrorCategory = "state_conflict"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryInfrastructure ErrorCategory = "infrastructure"
)

// Error codes exposed to callers. Infrastructure failures map to a single
// retryable code; everything else is stable and specific.
const (
	CodeNotModifiable    = "NOT_MODIFIABLE"
	CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"
	CodeRelationNotFound = "RELATION_NOT_FOUND"
	CodeInvalidType      = "INVALID_DOCUMENT_TYPE"
	CodeInvalidOwner     = "INVALID_OWNER"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInfrastructure   = "INFRASTRUCTURE_FAILURE"
)

// DomainError carries a stable code alongside the underlying error.
type DomainError struct {
	Code     string        `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Cause    error         `json:"-"`
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the caller may safely retry the whole
// operation. Only infrastructure failures are retryable: the transaction has
// rolled back and no partial state is visible.
func (e *DomainError) IsRetryable() bool {
	return e.Category == CategoryInfrastructure
}

// AsDomainError classifies err into a DomainError. Sentinel errors from
// pkg/errors map to their specific codes; anything unrecognized is treated
// as an infrastructure failure.
func AsDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}

	var de *DomainError
	if errors.As(err, &de) {
		return de
	}

	switch {
	case errors.Is(err, lderrors.ErrDocumentNotModifiable):
		return &DomainError{Code: CodeNotModifiable, Category: CategoryStateConflict, Message: err.Error(), Cause: err}
	case errors.Is(err, lderrors.ErrDocumentNotFound):
		return &DomainError{Code: CodeDocumentNotFound, Category: CategoryNotFound, Message: err.Error(), Cause: err}
	case errors.Is(err, lderrors.ErrRelationNotFound):
		return &DomainError{Code: CodeRelationNotFound, Category: CategoryNotFound, Message: err.Error(), Cause: err}
	case errors.Is(err, lderrors.ErrInvalidDocumentType):
		return &DomainError{Code: CodeInvalidType, Category: CategoryValidation, Message: err.Error(), Cause: err}
	case errors.Is(err, lderrors.ErrInvalidOwnerKind), errors.Is(err, lderrors.ErrMissingOwner), errors.Is(err, lderrors.ErrMissingTenant):
		return &DomainError{Code: CodeInvalidOwner, Category: CategoryValidation, Message: err.Error(), Cause: err}
	}

	return &DomainError{Code: CodeInfrastructure, Category: CategoryInfrastructure, Message: err.Error(), Cause: err}
}

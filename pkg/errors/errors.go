// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Document errors
	ErrDocumentNotFound      = errors.New("document not found")
	ErrDocumentNotModifiable = errors.New("document already superseded and not modifiable")
	ErrInvalidDocumentType   = errors.New("invalid document type")
	ErrInvalidOwnerKind      = errors.New("invalid owner kind")
	ErrMissingOwner          = errors.New("document owner is required")
	ErrMissingTenant         = errors.New("tenant is required")

	// Relation errors
	ErrRelationNotFound = errors.New("document relation not found")

	// Verification errors
	ErrVerificationNotFound = errors.New("verification record not found")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

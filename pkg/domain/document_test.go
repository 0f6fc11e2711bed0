package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentTypeCategory(t *testing.T) {
	assert.Equal(t, DocumentCategoryIdentity, DocumentTypeIdentityFront.Category())
	assert.Equal(t, DocumentCategoryIdentity, DocumentTypeIdentityBack.Category())
	assert.Equal(t, DocumentCategoryIdentity, DocumentTypeSelfie.Category())
	assert.Equal(t, DocumentCategoryResidence, DocumentTypeProofOfAddress.Category())
	assert.Equal(t, DocumentCategoryFinancial, DocumentTypeProofOfIncome.Category())
	assert.Equal(t, DocumentCategoryFinancial, DocumentTypeBankStatement.Category())
}

func TestDocumentTypeIsValid(t *testing.T) {
	assert.True(t, DocumentTypeSelfie.IsValid())
	assert.False(t, DocumentType("tax_return").IsValid())
	assert.False(t, DocumentType("").IsValid())
}

func TestDocumentIsCurrentlyValid(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	from := base.Add(-24 * time.Hour)
	to := base.Add(24 * time.Hour)

	doc := &Document{
		Status:    DocumentStatusApproved,
		ValidFrom: &from,
	}

	t.Run("open ended window", func(t *testing.T) {
		assert.True(t, doc.IsCurrentlyValid(base))
	})

	t.Run("before valid_from", func(t *testing.T) {
		assert.False(t, doc.IsCurrentlyValid(from.Add(-time.Minute)))
	})

	t.Run("valid_to is exclusive", func(t *testing.T) {
		doc := &Document{Status: DocumentStatusApproved, ValidFrom: &from, ValidTo: &to}
		assert.True(t, doc.IsCurrentlyValid(to.Add(-time.Second)))
		assert.False(t, doc.IsCurrentlyValid(to))
	})

	t.Run("pending is never valid", func(t *testing.T) {
		doc := &Document{Status: DocumentStatusPending, ValidFrom: &from}
		assert.False(t, doc.IsCurrentlyValid(base))
	})

	t.Run("no valid_from is never valid", func(t *testing.T) {
		doc := &Document{Status: DocumentStatusApproved}
		assert.False(t, doc.IsCurrentlyValid(base))
	})
}

func TestDocumentIsSuperseded(t *testing.T) {
	doc := &Document{}
	assert.False(t, doc.IsSuperseded())

	id := uuid.New()
	doc.SupersededByID = &id
	assert.True(t, doc.IsSuperseded())
}

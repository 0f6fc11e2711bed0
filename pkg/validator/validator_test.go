package validator

import (
	"testing"

	"loandocs/pkg/domain"

	"github.com/stretchr/testify/assert"
)

type sampleInput struct {
	DocumentType domain.DocumentType `validate:"required,document_type"`
	OwnerKind    domain.OwnerKind    `validate:"required,owner_kind"`
	FileRef      string              `validate:"required"`
}

func TestValidateAcceptsKnownEnums(t *testing.T) {
	v := New()

	err := v.Validate(sampleInput{
		DocumentType: domain.DocumentTypeSelfie,
		OwnerKind:    domain.OwnerKindPerson,
		FileRef:      "uploads/selfie.jpg",
	})

	assert.NoError(t, err)
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	v := New()

	err := v.Validate(sampleInput{
		DocumentType: "tax_return",
		OwnerKind:    domain.OwnerKindPerson,
		FileRef:      "uploads/doc.pdf",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document_type")
}

func TestValidateStructuredMessages(t *testing.T) {
	v := New()

	errs := v.ValidateStructured(sampleInput{
		DocumentType: "tax_return",
		OwnerKind:    "company",
	})

	assert.Equal(t, "Unknown document type", errs["DocumentType"])
	assert.Equal(t, "Unknown owner kind", errs["OwnerKind"])
	assert.Equal(t, "This field is required", errs["FileRef"])
}

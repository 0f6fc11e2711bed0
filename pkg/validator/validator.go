// ==============================================================================
// VALIDATOR PACKAGE - pkg/validator/validator.go
// ==============================================================================
package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"loandocs/pkg/domain"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
	}
	v.registerCustomValidations()
	return v
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, e := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"Field '%s' failed validation '%s'",
					e.Field(),
					e.Tag(),
				))
			}
			return fmt.Errorf("validation failed: %v", errMessages)
		}
		return err
	}
	return nil
}

// ValidateStructured returns a map of field -> error message for caller usage
func (v *Validator) ValidateStructured(i interface{}) map[string]string {
	errs := make(map[string]string)
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				msg := fmt.Sprintf("failed validation on '%s'", e.Tag())
				switch e.Tag() {
				case "required":
					msg = "This field is required"
				case "document_type":
					msg = "Unknown document type"
				case "owner_kind":
					msg = "Unknown owner kind"
				case "relatable_kind":
					msg = "Unknown relatable kind"
				}
				errs[e.Field()] = msg
			}
		}
	}
	return errs
}

func (v *Validator) registerCustomValidations() {
	v.validate.RegisterValidation("document_type", func(fl validator.FieldLevel) bool {
		return domain.DocumentType(fl.Field().String()).IsValid()
	})
	v.validate.RegisterValidation("owner_kind", func(fl validator.FieldLevel) bool {
		return domain.OwnerKind(fl.Field().String()).IsValid()
	})
	v.validate.RegisterValidation("relatable_kind", func(fl validator.FieldLevel) bool {
		return domain.RelatableKind(fl.Field().String()).IsValid()
	})
}

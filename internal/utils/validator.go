// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("rejection_reason", validateRejectionReason)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateRejectionReason requires a meaningful explanation, not padding:
// at least 10 characters after trimming whitespace.
func validateRejectionReason(fl validator.FieldLevel) bool {
	return len(strings.TrimSpace(fl.Field().String())) >= 10
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "rejection_reason":
		return "Rejection reason must be at least 10 characters"
	default:
		return e.Field() + " is invalid"
	}
}

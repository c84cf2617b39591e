package validation

import (
	"strings"

	"go-resume-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// RegisterValidators registers custom validators to the validator instance.
// statuses backs the resume_status tag.
func RegisterValidators(v *validator.Validate, statuses domain.StatusSet) {
	_ = v.RegisterValidation("not_blank", NotBlank)
	_ = v.RegisterValidation("resume_status", ResumeStatus(statuses))
}

// NotBlank rejects strings made only of whitespace
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ResumeStatus accepts only the configured apply statuses
func ResumeStatus(statuses domain.StatusSet) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return statuses.Contains(fl.Field().String())
	}
}

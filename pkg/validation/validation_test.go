package validation_test

import (
	"testing"

	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitionInput struct {
	ResumeStatus string `validate:"required,resume_status"`
	Reason       string `validate:"required,not_blank"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	validation.RegisterValidators(v, domain.DefaultStatusSet())
	return v
}

func TestResumeStatusValidator(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.Struct(transitionInput{ResumeStatus: "ACCEPTED", Reason: "good fit"}))

	err := v.Struct(transitionInput{ResumeStatus: "HIRED", Reason: "good fit"})
	require.Error(t, err)
	assert.Equal(t, []string{"Resume status: is not a known status"}, validation.FormatValidationErrors(err))
}

func TestNotBlankValidator(t *testing.T) {
	err := newValidator().Struct(transitionInput{ResumeStatus: "ACCEPTED", Reason: "   "})
	require.Error(t, err)
	assert.Equal(t, []string{"Reason: must not be blank"}, validation.FormatValidationErrors(err))
}

func TestSchemas(t *testing.T) {
	tests := []struct {
		name      string
		schema    *validation.Schema
		body      string
		wantValid bool
	}{
		{"create ok", validation.ResumeCreateSchema, `{"title":"Backend","content":"Go"}`, true},
		{"create missing content", validation.ResumeCreateSchema, `{"title":"Backend"}`, false},
		{"create blank title", validation.ResumeCreateSchema, `{"title":"  ","content":"Go"}`, false},
		{"create unknown field", validation.ResumeCreateSchema, `{"title":"a","content":"b","applyStatus":"ACCEPTED"}`, false},
		{"update partial", validation.ResumeUpdateSchema, `{"content":"new"}`, true},
		{"update empty", validation.ResumeUpdateSchema, `{}`, false},
		{"log ok", validation.ResumeLogSchema, `{"resumeStatus":"ACCEPTED","reason":"good fit"}`, true},
		{"log without reason", validation.ResumeLogSchema, `{"resumeStatus":"ACCEPTED"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := tt.schema.Validate([]byte(tt.body))
			require.NoError(t, err)
			if tt.wantValid {
				assert.Empty(t, violations)
			} else {
				assert.NotEmpty(t, violations)
			}
		})
	}
}

func TestSchemaRejectsMalformedJSON(t *testing.T) {
	_, err := validation.ResumeCreateSchema.Validate([]byte(`{"title":`))
	assert.Error(t, err)
}

package apperror_test

import (
	"net/http"
	"testing"

	"go-resume-backend/pkg/apperror"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"resumes\" does not exist")
	err := apperror.Internal(cause)

	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.Equal(t, "Internal Server Error", err.Error())
	assert.NotContains(t, err.Error(), "relation")
	assert.True(t, errors.Is(err, cause))
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := errors.Wrap(apperror.Conflict("already audited"), "update resume")

	var appErr *apperror.AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestTokenExpiredStatus(t *testing.T) {
	assert.Equal(t, 419, apperror.TokenExpired("expired").Code)
}

package middleware

import (
	"bytes"
	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/pkg/validation"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes caps request bodies read for schema validation
const maxBodyBytes = 1 << 20

// ValidateJSON checks the request body against schema before the handler
// binds it. The body is restored so the handler can read it again.
func ValidateJSON(schema *validation.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			response.Abort(c, http.StatusBadRequest, "Could not read request body", nil)
			return
		}
		if len(body) > maxBodyBytes {
			response.Abort(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}

		violations, err := schema.Validate(body)
		if err != nil {
			response.Abort(c, http.StatusBadRequest, "Request body must be valid JSON", nil)
			return
		}
		if len(violations) > 0 {
			response.Abort(c, http.StatusBadRequest, "Validation failed", violations)
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

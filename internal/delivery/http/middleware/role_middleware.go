package middleware

import (
	"go-resume-backend/internal/access"
	"go-resume-backend/internal/delivery/http/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects callers whose role the rule does not admit. Only the
// role axis is checked here; ownership needs the resource and is left to the usecase.
func RequireRole(rule access.Rule) gin.HandlerFunc {
	roleOnly := access.Rule{Roles: rule.Roles}
	return func(c *gin.Context) {
		if !access.Check(CurrentActor(c), "", roleOnly).Permitted() {
			response.Abort(c, http.StatusForbidden, "You do not have permission to perform this action", nil)
			return
		}
		c.Next()
	}
}

package middleware

import (
	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/pkg/apperror"
	"go-resume-backend/pkg/logger"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := c.GetString(response.RequestIDKey)

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		// Internal details are logged, never sent to the client
		logger.Log.Error("Internal Server Error",
			"error", err.Error(),
			"cause", errors.UnwrapAll(err).Error(),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", requestID,
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}

package middleware

import (
	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/apperror"
	"go-resume-backend/pkg/auth"
	"go-resume-backend/pkg/logger"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

// AccessTokenCookie is read when no Authorization header is sent
const AccessTokenCookie = "access_token"

// AuthMiddleware verifies the access token and loads the caller. The role is
// read from the database, not from the token.
func AuthMiddleware(verifier *auth.Verifier, revocations auth.RevocationChecker, authUC domain.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// 1. Header, which must use the Bearer scheme
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				abortUnauthorized(c, "Unsupported authorization scheme")
				return
			}
			tokenString = strings.TrimSpace(token)
		} else if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
			// 2. Cookie
			tokenString = cookie
		}

		if tokenString == "" {
			abortUnauthorized(c, "Authorization header or access_token cookie required")
			return
		}

		claims, err := verifier.Parse(tokenString)
		if errors.Is(err, auth.ErrTokenExpired) {
			response.Abort(c, apperror.StatusAuthenticationTimeout, "Token expired", nil)
			return
		}
		if err != nil {
			logger.Log.Debug("Token validation failed", "error", err.Error(), "path", c.FullPath())
			abortUnauthorized(c, "Invalid token")
			return
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.TokenID)
			if err != nil {
				// Fail open: the denylist is an extra layer on top of token expiry
				logger.Log.Warn("Revocation check failed", "error", err.Error())
			}
			if revoked {
				abortUnauthorized(c, "Token revoked")
				return
			}
		}

		user, err := authUC.GetCurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == http.StatusInternalServerError {
				logger.Log.Error("Loading current user failed", "error", err.Error())
			}
			abortUnauthorized(c, "User not found")
			return
		}

		c.Set(string(domain.KeyUserID), user.ID)
		c.Set(string(domain.KeyUserEmail), claims.Email)
		c.Set(string(domain.KeyUserRole), user.Role)
		c.Set(string(domain.KeyTokenID), claims.TokenID)
		c.Set(string(domain.KeyTokenExp), claims.ExpiresAt)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	response.Abort(c, http.StatusUnauthorized, message, nil)
}

// CurrentActor returns the caller set by AuthMiddleware. The zero Actor is
// returned on unauthenticated routes and is denied by every access rule.
func CurrentActor(c *gin.Context) domain.Actor {
	return domain.Actor{
		ID:   c.GetString(string(domain.KeyUserID)),
		Role: c.GetString(string(domain.KeyUserRole)),
	}
}

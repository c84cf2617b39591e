package v1

import (
	"context"
	"go-resume-backend/internal/delivery/http/middleware"
	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/apperror"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenRevoker denies a token id for the rest of its lifetime
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthHandler struct {
	authUC  domain.AuthUsecase
	revoker TokenRevoker
	secure  bool
}

func NewAuthHandler(protected *gin.RouterGroup, authUC domain.AuthUsecase, revoker TokenRevoker, secureCookies bool) {
	handler := &AuthHandler{authUC: authUC, revoker: revoker, secure: secureCookies}

	authGroup := protected.Group("/auth")
	{
		authGroup.GET("/me", handler.Me)
		authGroup.POST("/logout", handler.Logout)
	}
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.User}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUC.GetCurrentUser(c.Request.Context(), middleware.CurrentActor(c).ID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "User details", user)
}

// Logout godoc
// @Summary      Log out
// @Description  Revoke the current access token and clear the access_token cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenID := c.GetString(string(domain.KeyTokenID))
	expiresAt := c.GetTime(string(domain.KeyTokenExp))

	// The denylist entry lapses with the token. Without a revoker or jti the
	// token stays valid until then.
	if h.revoker != nil && tokenID != "" {
		if ttl := time.Until(expiresAt); ttl > 0 {
			if err := h.revoker.Revoke(c.Request.Context(), tokenID, ttl); err != nil {
				c.Error(apperror.Internal(err))
				return
			}
		}
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(c, http.StatusOK, "Logged out", nil)
}

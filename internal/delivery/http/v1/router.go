package v1

import (
	"go-resume-backend/config"
	"go-resume-backend/internal/delivery/http/middleware"
	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/internal/domain"
	"go-resume-backend/internal/usecase"
	"go-resume-backend/pkg/auth"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC   domain.AuthUsecase
	ResumeUC domain.ResumeUsecase
	HealthUC usecase.HealthUsecase
	Verifier *auth.Verifier
	// Optional, nil when REDIS_URL is unset
	Revocations *auth.RevocationList
	Redis       *goredis.Client
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware([]string{deps.Config.FrontendURL}, deps.Config.IsProduction)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.NewRateLimiter(deps.Redis, middleware.DefaultRateLimitConfig(deps.Config.RateLimitPerMinute)).Middleware())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		if deps.HealthUC == nil {
			response.Success(c, http.StatusOK, "System operational", nil)
			return
		}
		checks, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", checks)
			return
		}
		response.Success(c, http.StatusOK, "System operational", checks)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// A nil *RevocationList must not end up inside a non-nil interface
	var checker auth.RevocationChecker
	var revoker TokenRevoker
	if deps.Revocations != nil {
		checker = deps.Revocations
		revoker = deps.Revocations
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Verifier, checker, deps.AuthUC))
	{
		NewAuthHandler(protected, deps.AuthUC, revoker, deps.Config.IsProduction)
		NewResumeHandler(protected, deps.ResumeUC)
	}

	return r
}

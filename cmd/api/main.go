package main

import (
	"context"
	"go-resume-backend/config"
	_ "go-resume-backend/docs" // Important for Swagger
	v1 "go-resume-backend/internal/delivery/http/v1"
	"go-resume-backend/internal/repository/postgres"
	"go-resume-backend/internal/usecase"
	"go-resume-backend/pkg/auth"
	"go-resume-backend/pkg/database"
	"go-resume-backend/pkg/logger"
	redispkg "go-resume-backend/pkg/redis"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	goredis "github.com/redis/go-redis/v9"
)

// @title           Resume Backend API
// @version         1.0
// @description     Resume records with recruiter review and an audited status history.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting resume backend", "port", cfg.Port, "statuses", cfg.ResumeStatuses)

	ctx := context.Background()

	// 3. Migrations (optional, `migrate up` does the same out of band)
	if cfg.RunMigrations {
		applied, err := database.MigrateUp(ctx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Log.Info("Migrations complete", "applied", len(applied))
	}

	// 4. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, database.PoolOptions{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 5. Setup Redis (optional)
	var redisClient *goredis.Client
	var revocations *auth.RevocationList
	if cfg.RedisURL != "" {
		redisClient, err = redispkg.NewClient(ctx, redispkg.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
		if err != nil {
			// Degrade: rate limiting falls back to memory, revocation is skipped
			logger.Log.Warn("Redis unavailable", "error", err)
		} else {
			defer redisClient.Close()
			revocations = auth.NewRevocationList(redisClient)
		}
	}

	// 6. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	resumeRepo := postgres.NewResumeRepository(dbPool)
	resumeLogRepo := postgres.NewResumeLogRepository(dbPool)
	transactor := postgres.NewTransactor(dbPool)

	// 7. Setup UseCases
	validate := validator.New()
	authUC := usecase.NewAuthUsecase(userRepo)
	resumeUC := usecase.NewResumeUsecase(resumeRepo, resumeLogRepo, transactor, cfg.ResumeStatuses, validate)

	healthChecks := map[string]usecase.HealthCheck{
		"database": dbPool.Ping,
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	healthUC := usecase.NewHealthUsecase(healthChecks)

	// 8. Setup Token Verification
	var jwksProvider *auth.Provider
	if cfg.JWKSURL != "" {
		jwksProvider = auth.NewProvider(cfg.JWKSURL)
	}
	verifier := auth.NewVerifier(cfg.JWTAccessSecret, jwksProvider)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:      authUC,
		ResumeUC:    resumeUC,
		HealthUC:    healthUC,
		Verifier:    verifier,
		Revocations: revocations,
		Redis:       redisClient,
		Config:      cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"go-resume-backend/internal/domain"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBUrl       string
	DBMaxConns  int
	DBMinConns  int
	FrontendURL string
	LogLevel    string
	// Token verification (issuance lives in the auth service)
	JWTAccessSecret string
	JWKSURL         string
	// Redis, used for the revoked token list
	RedisURL      string
	RedisPassword string
	// Resume configuration
	ResumeStatuses domain.StatusSet
	RunMigrations  bool
	// Requests per minute per client IP, 0 disables limiting
	RateLimitPerMinute int
	IsProduction       bool
}

func LoadConfig() (*Config, error) {
	// Load .env file (only effective locally, ignored when the file is absent)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBUrl:           getEnv("DATABASE_URL", ""),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", 25),
		DBMinConns:      getEnvInt("DB_MIN_CONNS", 5),
		FrontendURL:     strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		JWKSURL:         getEnv("JWKS_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		ResumeStatuses:  domain.StatusSet(getEnvList("RESUME_STATUSES", domain.DefaultStatusSet())),
		RunMigrations:   getEnvBool("RUN_MIGRATIONS", false),
		// Rate limiting
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		IsProduction:       getEnv("GIN_MODE", "") == "release",
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.JWTAccessSecret == "" && cfg.JWKSURL == "" {
		log.Println("WARNING: neither JWT_ACCESS_SECRET nor JWKS_URL is set. Every request will be rejected.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Revoked tokens will not be checked.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks.
// An unset or all-blank variable yields fallback.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

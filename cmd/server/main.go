// Package main is the entry point for the Procura API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"procura/internal/core/security"
	"procura/internal/domain/auth"
	"procura/internal/domain/dashboard"
	"procura/internal/infrastructure/cache"
	v1 "procura/internal/infrastructure/http/v1"
	"procura/internal/infrastructure/numerator"
	"procura/internal/infrastructure/storage/postgres"
	"procura/internal/infrastructure/storage/postgres/auth_repo"
	"procura/internal/infrastructure/storage/postgres/catalog_repo"
	"procura/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting procura server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional, dashboard cache) ---
	var redisClient *redis.Client
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unavailable, dashboard caching disabled", "error", err)
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
			log.Info("redis connection established")
		}
	}

	// Subscribe to dashboard version bumps published by the worker so
	// multiple API instances converge on the same cache version.
	if redisClient != nil {
		dashCache := dashboard.NewCache(redisClient, getEnvDuration("DASHBOARD_CACHE_TTL", time.Minute))
		if err := dashCache.ListenForInvalidation(ctx, ""); err != nil {
			log.Warnw("dashboard bump subscription failed", "error", err)
		}
	}

	// --- Feature flags ---
	flagCache := cache.NewFlagCache(pool.Unwrap())
	if err := flagCache.Start(ctx); err != nil {
		log.Fatalw("failed to start feature flag cache", "error", err)
	}
	defer flagCache.Stop()
	flags := cache.NewCacheBackedFlags(flagCache)

	// --- JWT Service ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtConfig := auth.DefaultJWTConfig(jwtSecret)
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Auth Service ---
	userRepo := auth_repo.NewUserRepo(txManager)
	roleRepo := auth_repo.NewRoleRepo(txManager)
	permRepo := auth_repo.NewPermissionRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)

	authConfig := auth.DefaultServiceConfig()
	authService := auth.NewService(
		userRepo,
		roleRepo,
		permRepo,
		tokenRepo,
		customerRepo, // binds self-signup users to matching customer records
		txManager,
		jwtService,
		authConfig,
	)

	// --- Audit Service ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Numerator Service ---
	numeratorService := numerator.New(pool)

	// --- Metadata Registry ---
	metadataRegistry := setupMetadataRegistry()
	log.Info("metadata registry initialized")

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		TxManager:          txManager,
		Redis:              redisClient,
		Logger:             log,
		JWTValidator:       jwtService,
		AuthService:        authService,
		Numerator:          numeratorService,
		Audit:              auditService,
		Flags:              flags,
		DeliveryPolicy:     deliveryPolicyFromEnv(),
		DashboardTTL:       getEnvDuration("DASHBOARD_CACHE_TTL", time.Minute),
		IdempotencyEnabled: getEnv("IDEMPOTENCY_ENABLED", "true") == "true",
		MetadataRegistry:   metadataRegistry,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// deliveryPolicyFromEnv selects the supplier delivery date policy.
// Deployments with strict contract delivery keep the default; a grace
// window is opt-in via DELIVERY_POLICY=flexible and DELIVERY_GRACE_DAYS.
func deliveryPolicyFromEnv() security.DeliveryPolicy {
	switch getEnv("DELIVERY_POLICY", "strict") {
	case "flexible":
		return security.NewFlexibleDeliveryPolicy(getEnvInt("DELIVERY_GRACE_DAYS", 7))
	case "open":
		return security.OpenDeliveryPolicy{}
	default:
		return security.StrictDeliveryPolicy{}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Package main is the entry point for the Procura background worker.
// It relays outbox events to the notification fan-out and the dashboard
// cache, runs the delivery task queue, and performs hourly maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"procura/internal/domain/dashboard"
	"procura/internal/domain/notification"
	"procura/internal/infrastructure/cache"
	"procura/internal/infrastructure/jobs"
	"procura/internal/infrastructure/mail"
	"procura/internal/infrastructure/storage/postgres"
	"procura/internal/infrastructure/storage/postgres/auth_repo"
	"procura/internal/infrastructure/storage/postgres/catalog_repo"
	"procura/internal/infrastructure/storage/postgres/notification_repo"
	"procura/internal/infrastructure/storage/postgres/report_repo"
	"procura/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting procura worker")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	// --- Redis (required: task queue and dashboard cache) ---
	redisAddr := mustEnv("REDIS_ADDR")
	redisOpts := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	})
	defer func() { _ = redisClient.Close() }()

	// --- Feature flags ---
	flagCache := cache.NewFlagCache(pool.Unwrap())
	if err := flagCache.Start(ctx); err != nil {
		log.Fatalw("failed to start feature flag cache", "error", err)
	}
	defer flagCache.Stop()
	flags := cache.NewCacheBackedFlags(flagCache)

	// --- Notification service ---
	directory := notification.NewCatalogDirectory(
		catalog_repo.NewSupplierRepo(txManager),
		catalog_repo.NewCustomerRepo(txManager),
		notification_repo.NewPlannerDirectory(txManager),
	)
	enqueuer := jobs.NewClient(redisOpts)
	defer func() { _ = enqueuer.Close() }()

	notifService := notification.NewService(notification.Config{
		Repository: notification_repo.NewNotificationRepo(txManager),
		Directory:  directory,
		Enqueuer:   enqueuer,
		Email: mail.NewSMTPSender(mail.SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@procura.local"),
		}),
		SMS:   mail.LogSMSSender{},
		Flags: flags,
	})

	// --- Dashboard cache (bumped when relayed events change the data) ---
	dashCache := dashboard.NewCache(redisClient, getEnvDuration("DASHBOARD_CACHE_TTL", time.Minute))
	dashService := dashboard.NewService(report_repo.NewDashboardRepo(txManager), dashCache)

	// --- Outbox relay ---
	dispatcher := jobs.NewDispatcher(notifService, dashService)
	relay := postgres.NewOutboxRelay(pool.Unwrap(), getEnvInt("OUTBOX_BATCH_SIZE", 100), dispatcher)

	// --- Delivery task worker ---
	worker := jobs.NewWorker(redisOpts, notifService)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorw("task worker stopped", "error", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, log.WithComponent("outbox"))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runMaintenance(ctx, maintenanceDeps{
			relay:       relay,
			idempotency: postgres.NewIdempotencyStore(txManager, 10*time.Minute),
			tokens:      auth_repo.NewTokenRepo(txManager),
		}, log.WithComponent("maintenance"))
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// runRelay polls the outbox and hands batches to the dispatcher.
func runRelay(ctx context.Context, relay *postgres.OutboxRelay, log *logger.Logger) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debugw("relayed outbox batch", "count", n)
			}
		}
	}
}

type maintenanceDeps struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	tokens      *auth_repo.TokenRepo
}

// runMaintenance performs hourly cleanup: exhausted outbox messages move
// to the DLQ, expired idempotency keys and refresh tokens are purged.
func runMaintenance(ctx context.Context, deps maintenanceDeps, log *logger.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if moved, err := deps.relay.MoveToDLQ(ctx); err != nil {
				log.Errorw("move to DLQ failed", "error", err)
			} else if moved > 0 {
				log.Infow("moved exhausted outbox messages to DLQ", "count", moved)
			}

			if removed, err := deps.idempotency.CleanupExpired(ctx); err != nil {
				log.Errorw("idempotency cleanup failed", "error", err)
			} else if removed > 0 {
				log.Infow("cleaned up idempotency keys", "count", removed)
			}

			if removed, err := deps.tokens.CleanupExpiredTokens(ctx); err != nil {
				log.Errorw("token cleanup failed", "error", err)
			} else if removed > 0 {
				log.Infow("cleaned up refresh tokens", "count", removed)
			}
		}
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

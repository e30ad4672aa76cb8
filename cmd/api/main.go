package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"teeshop/internal/config"
	"teeshop/internal/database"
	"teeshop/internal/logger"
	"teeshop/internal/repository"
	"teeshop/internal/server"
	"teeshop/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

// requireSecrets fills missing development secrets and refuses to start production without them
func requireSecrets(cfg *config.Config, log *zap.Logger) {
	if cfg.JWT.Secret != "" && len(cfg.Security.CSRFKey) == 32 {
		return
	}
	if cfg.IsProduction() {
		log.Fatal("JWT_SECRET and a 32 byte CSRF_KEY are required in production")
	}

	log.Warn("Using generated development secrets, admin sessions will not survive a restart")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = randomSecret(32)
	}
	if len(cfg.Security.CSRFKey) != 32 {
		cfg.Security.CSRFKey = randomSecret(16)
	}
}

func randomSecret(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate secret: %v", err))
	}
	return hex.EncodeToString(b)
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting tee shop API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)
	requireSecrets(cfg, log)

	ctx := context.Background()

	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

	if err := database.RunMigrations(ctx, dbService.DB(), cfg.Database.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	settings := service.NewSettingsService(repository.NewSettingsRepository(dbService.DB()), log)
	if _, err := settings.EnsureDefaults(ctx, cfg.Admin.InitialPassword, cfg.Admin.AlertEmail); err != nil {
		log.Fatal("Failed to initialize settings", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, order rate limiting is disabled until it returns", zap.Error(err))
	}

	blobs, files, err := server.NewBlobStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	srv := server.NewServer(cfg, log, server.Deps{
		Database:  dbService,
		Redis:     redisClient,
		Blobs:     blobs,
		Files:     files,
		Publisher: server.NewPublisher(cfg.AMQP, log),
		Renderer:  server.NewRenderer(cfg.Invoice),
		Archive:   server.NewArchive(cfg.Storage),
		Settings:  settings,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"teeshop/internal/config"
	"teeshop/internal/database"
	"teeshop/internal/events"
	"teeshop/internal/invoice"
	custommiddleware "teeshop/internal/middleware"
	"teeshop/internal/notify"
	"teeshop/internal/repository"
	"teeshop/internal/service"
	"teeshop/internal/storage"
	"teeshop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// maxImageDimension bounds the longest side of stored design images
const maxImageDimension = 1600

// Deps are the long-lived clients the server is built on
type Deps struct {
	Database  database.Service
	Redis     *redis.Client
	Blobs     storage.BlobStore
	Files     http.Handler
	Publisher events.Publisher
	Renderer  invoice.Renderer
	Archive   service.InvoiceArchive
	Settings  service.SettingsService
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Security.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := deps.Database.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	db := deps.Database.DB()
	designRepo := repository.NewDesignRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	txManager := repository.NewTxManager(db)

	sender := notify.NewAPISender(cfg.Email.APIURL, cfg.Email.Timeout, deps.Settings)
	notifier := notify.NewNotifier(sender, deps.Settings, logger.Named("notify"))

	catalogService := service.NewCatalogService(designRepo, txManager, deps.Blobs, logger)
	orderService := service.NewOrderService(service.OrderDeps{
		Designs:   designRepo,
		Orders:    orderRepo,
		Tx:        txManager,
		Blobs:     deps.Blobs,
		Notifier:  notifier,
		Publisher: deps.Publisher,
		Renderer:  deps.Renderer,
		Archive:   deps.Archive,
		Settings:  deps.Settings,
		Logger:    logger,
	})
	authService := service.NewAdminAuthService(deps.Settings, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)

	designHandler := transport.NewDesignHandler(catalogService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	adminHandler := transport.NewAdminHandler(authService, deps.Settings, cfg.Security.SecureCookies, logger)

	submitLimiter := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.OrderSubmissions,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:orders",
	}, logger)

	designHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router, submitLimiter)
	adminHandler.RegisterRoutes(router)

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(authService, logger))
		r.Use(custommiddleware.RequireAdmin(logger))
		r.Use(custommiddleware.CSRFMiddleware([]byte(cfg.Security.CSRFKey), cfg.Security.SecureCookies, cfg.Security.AllowedOrigins, logger))

		adminHandler.RegisterAdminRoutes(r)
		designHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
	})

	if deps.Files != nil {
		router.Handle(cfg.Storage.PublicBaseURL+"/*", http.StripPrefix(cfg.Storage.PublicBaseURL, deps.Files))
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.Invoice.Timeout + 30*time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// NewBlobStore selects the storage backend named in cfg. The returned handler
// serves local files and is nil for remote backends.
func NewBlobStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.BlobStore, http.Handler, error) {
	var (
		store storage.BlobStore
		files http.Handler
	)

	switch cfg.Driver {
	case "drive":
		drive, err := storage.NewDriveStore(ctx, cfg.DriveCredentials, cfg.DriveFolderID)
		if err != nil {
			return nil, nil, err
		}
		store = drive
	case "local", "":
		local := storage.NewLocalStore(afero.NewOsFs(), cfg.LocalDir, cfg.PublicBaseURL)
		store = local
		files = local.Handler()
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	return storage.NewOptimizingStore(store, maxImageDimension, logger, storage.CategoryDesigns), files, nil
}

// NewPublisher connects to the broker when one is configured
func NewPublisher(cfg config.AMQPConfig, logger *zap.Logger) events.Publisher {
	if cfg.URL == "" {
		logger.Info("AMQP_URL not set, order events are not published")
		return events.NewNopPublisher()
	}
	publisher, err := events.DialAMQP(cfg.URL, cfg.Queue)
	if err != nil {
		logger.Warn("Could not connect to broker, order events are not published", zap.Error(err))
		return events.NewNopPublisher()
	}
	return publisher
}

// NewRenderer prints invoices to PDF through Chrome when a browser is configured
func NewRenderer(cfg config.InvoiceConfig) invoice.Renderer {
	if cfg.ChromePath == "" {
		return invoice.HTMLRenderer{}
	}
	return invoice.NewChromeRenderer(cfg.ChromePath, cfg.Timeout)
}

// NewArchive keeps rendered invoices next to the local uploads
func NewArchive(cfg config.StorageConfig) *invoice.Archive {
	return invoice.NewArchive(afero.NewOsFs(), cfg.InvoiceDir)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.deps.Publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if err := s.deps.Database.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}

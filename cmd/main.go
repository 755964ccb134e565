package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/domcourse/backend/docs"
	"github.com/domcourse/backend/internal/config"
	"github.com/domcourse/backend/internal/handlers"
	"github.com/domcourse/backend/internal/logger"
	"github.com/domcourse/backend/internal/middleware"
	"github.com/domcourse/backend/internal/repositories"
	"github.com/domcourse/backend/internal/services"
	"github.com/domcourse/backend/internal/session"
	"github.com/domcourse/backend/internal/storage"
	"github.com/domcourse/backend/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// maxRequestSize bounds every body except image uploads, which the upload handler limits itself
const maxRequestSize = 2 << 20

// @title Domcourse API
// @version 1.0
// @description JSON endpoints of the DOM course site. Pages are rendered as HTML and are not listed here.
// @description Admin endpoints require the session cookie issued by POST /bod/login.

// @contact.name Domcourse maintainers

// @host localhost:8080
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting DOM course site")

	// Connect to database. Without one the site serves empty content.
	var (
		levelRepo   services.LevelRepository
		sectionRepo services.SectionRepository
		lessonRepo  services.LessonRepository
	)
	if db := openDatabase(cfg); db != nil {
		defer db.Close()
		levelRepo = repositories.NewLevelRepository(db)
		sectionRepo = repositories.NewSectionRepository(db)
		lessonRepo = repositories.NewLessonRepository(db)
	}

	// Initialize services
	contentStore := services.NewContentStore(levelRepo, sectionRepo, lessonRepo, logger.Logger)
	catalogService := services.NewCatalogService(contentStore, services.NewOrderingManager(), logger.Logger)
	hierarchyService := services.NewHierarchyService(contentStore)
	bootstrapper := services.NewBootstrapper(contentStore, logger.Logger)
	authService := services.NewAuthService(cfg.Admin.Login, cfg.Admin.Password, logger.Logger)

	// Initialize sessions
	sessionStore, closeSessions := newSessionStore(cfg)
	defer closeSessions()
	sessionManager := session.NewManager(sessionStore, cfg.Session.SecureCookie, logger.Logger)

	// Initialize storage
	fileStorage, localFiles := newFileStorage(cfg)
	mediaService := services.NewMediaService(fileStorage, logger.Logger)

	// Initialize handlers
	renderer, err := handlers.NewRenderer(web.FS)
	if err != nil {
		logger.Logger.Fatal("Failed to parse templates", zap.Error(err))
	}
	assets, err := fs.Sub(web.FS, "static")
	if err != nil {
		logger.Logger.Fatal("Failed to load static assets", zap.Error(err))
	}

	healthHandler := handlers.NewHealthHandler(contentStore, logger.Logger)
	staticHandler := handlers.NewStaticHandler(assets, localFiles, cfg.Storage.BaseURL, logger.Logger)
	siteHandler := handlers.NewSiteHandler(hierarchyService, bootstrapper, renderer, logger.Logger)
	uploadHandler := handlers.NewUploadHandler(mediaService, sessionManager, logger.Logger)
	adminHandler := handlers.NewAdminHandler(catalogService, hierarchyService, authService, sessionManager, renderer, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSizeLimitMiddleware(maxRequestSize))

		// Swagger documentation
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))

		healthHandler.RegisterRoutes(r)
		staticHandler.RegisterRoutes(r)
		siteHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r)
	})
	uploadHandler.RegisterRoutes(r)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // Longer timeout for image uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// openDatabase connects to Postgres and applies migrations.
// It returns nil when no database is configured or the pool cannot be created.
// An unreachable database is kept: the content store recovers once it answers.
func openDatabase(cfg *config.Config) *sql.DB {
	if !cfg.HasDatabase() {
		logger.Logger.Warn("Database is not configured, serving without content")
		return nil
	}

	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Error("Failed to open database", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Logger.Error("Database is unreachable, content stays empty until it answers", zap.Error(err))
		return db
	}

	if err := runMigrations(db, cfg.Migrations.Path); err != nil {
		logger.Logger.Error("Failed to run migrations", zap.Error(err))
	}

	return db
}

// connectDB creates the connection pool
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, migrationPath string) error {
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	if migrationPath == "file://migrations" {
		if _, err := os.Stat("migrations"); os.IsNotExist(err) {
			// Try parent directory if running from cmd
			if _, err := os.Stat("../migrations"); err == nil {
				migrationPath = "file://../migrations"
			}
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"pgx5",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// newSessionStore picks Redis-backed sessions when REDIS_URL is set, signed cookies otherwise
func newSessionStore(cfg *config.Config) (session.Store, func()) {
	if cfg.Session.RedisURL != "" {
		store, err := session.NewRedisStore(cfg.Session.RedisURL)
		if err == nil {
			logger.Logger.Info("Using Redis session store")
			return store, func() {
				if err := store.Close(); err != nil {
					logger.Logger.Error("Failed to close Redis client", zap.Error(err))
				}
			}
		}
		logger.Logger.Error("Failed to connect to Redis, falling back to signed cookies", zap.Error(err))
	}
	return session.NewTokenStore(cfg.Session.Secret), func() {}
}

// newFileStorage creates the upload backend. The second value is set only for local storage,
// whose files are served by this process.
func newFileStorage(cfg *config.Config) (services.Storage, handlers.FileOpener) {
	if cfg.Storage.Driver == "s3" {
		s3, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Bucket:    cfg.Storage.S3Bucket,
			UseSSL:    cfg.Storage.S3UseSSL,
			PublicURL: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to create S3 client", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3.EnsureBucket(ctx); err != nil {
			logger.Logger.Error("Failed to prepare bucket", zap.String("bucket", cfg.Storage.S3Bucket), zap.Error(err))
		}
		return s3, nil
	}

	local := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if !strings.HasPrefix(cfg.Storage.BaseURL, "/") {
		logger.Logger.Warn("MEDIA_BASE_URL is not a local path, uploads are not served by this process",
			zap.String("baseURL", cfg.Storage.BaseURL))
	}
	return local, local
}

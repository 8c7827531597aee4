// @title           Registration Form Designer API
// @version         1.0
// @description     Designs the registration form attached to each upcoming event

// @BasePath  /api/forms

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

//go:generate swag init -g cmd/api/main.go -d ../.. -o ../../docs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"registration-form-api/internal/client"
	"registration-form-api/internal/config"
	"registration-form-api/internal/database"
	"registration-form-api/internal/editor"
	"registration-form-api/internal/job"
	"registration-form-api/internal/metrics"
	"registration-form-api/internal/repository"
	"registration-form-api/internal/router"
	"registration-form-api/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Registration Form Designer",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("event_api_url", cfg.EventAPI.BaseURL),
	)

	m := metrics.NewWithLogger(logger)

	// The service starts without a database and keeps retrying in the background
	dbConfig := database.Config{
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	var (
		statsMu     sync.Mutex
		stopDBStats chan struct{}
	)
	onConnect := func(db *gorm.DB) {
		database.RegisterMetricsCallbacks(db, m)
		statsMu.Lock()
		stopDBStats = database.StartDBStatsCollector(db, m, 15*time.Second)
		statsMu.Unlock()
		if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
			logger.Warn("Failed to run database migrations", zap.Error(err))
		} else {
			logger.Info("Database migrations completed")
		}
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, will retry in background", zap.Error(err))
		database.NewAsync(dbConfig, 5*time.Second, logger, onConnect)
	} else {
		logger.Info("Database connected successfully")
		onConnect(db)
		database.SetDB(db)
	}

	// Redis mirrors saved schemas; without it every load goes to the database
	var redisClient *redis.Client
	redisClient, err = database.NewRedis(cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, schema mirror disabled", zap.Error(err))
		redisClient = nil
	} else if redisClient == nil {
		logger.Info("Redis not configured, schema mirror disabled")
	}

	// S3 stores payment QR images and export archives; without it QR images are inlined
	var files client.S3ClientInterface
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		s3Client, err := client.NewS3Client(&cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, QR images will be inlined", zap.Error(err))
		} else {
			files = s3Client
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Info("S3 configuration incomplete, QR images will be inlined")
	}

	var events client.EventSource
	if cfg.EventAPI.BaseURL != "" {
		events = client.NewHTTPEventSource(cfg.EventAPI.BaseURL, cfg.EventAPI.Timeout, logger, m)
	} else {
		events = client.NewStaticEventSource(cfg.Events)
		logger.Info("Event API not configured, using static events", zap.Int("count", len(cfg.Events)))
	}

	sessions := session.NewRegistry(cfg.Session.TTL,
		session.WithEditorOptions(editor.WithNoticeTTL(cfg.Session.NoticeTTL)),
	)

	// Background jobs
	scheduler := job.NewScheduler(logger)
	if err := scheduler.Add("session-sweep", cfg.Session.SweepSchedule, job.NewSessionSweepJob(sessions, m, logger)); err != nil {
		logger.Warn("Session sweep disabled", zap.Error(err))
	}
	collector := metrics.NewBusinessMetricsCollector(
		repository.NewSchemaRepositoryWithProvider(database.GetDB),
		sessions,
		m,
		logger,
	)
	if err := scheduler.Add("business-metrics", cfg.Session.MetricsSchedule, collector); err != nil {
		logger.Warn("Business metrics refresh disabled", zap.Error(err))
	}
	scheduler.Start()

	r := router.Setup(router.Config{
		Redis:          redisClient,
		Logger:         logger,
		Metrics:        m,
		JWTSecret:      cfg.JWT.Secret,
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Sessions:       sessions,
		Events:         events,
		Files:          files,
		KeyPrefix:      cfg.Storage.KeyPrefix,
		CacheTTL:       cfg.Redis.CacheTTL,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: preview streams are long-lived
	}

	go func() {
		logger.Info("Registration Form Designer started", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)

	statsMu.Lock()
	if stopDBStats != nil {
		close(stopDBStats)
	}
	statsMu.Unlock()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if db := database.GetDB(); db != nil {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

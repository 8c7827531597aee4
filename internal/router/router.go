package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	commonmw "github.com/OrangesCloud/wealist-advanced-go-pkg/middleware"
	"registration-form-api/internal/client"
	"registration-form-api/internal/database"
	"registration-form-api/internal/handler"
	"registration-form-api/internal/metrics"
	"registration-form-api/internal/middleware"
	"registration-form-api/internal/repository"
	"registration-form-api/internal/service"
	"registration-form-api/internal/session"
)

// Config holds router configuration
type Config struct {
	// DB is used directly when set; otherwise the connection is resolved
	// through database.GetDB on every query.
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	JWTSecret      string
	BasePath       string
	AllowedOrigins []string
	Sessions       *session.Registry
	Events         client.EventSource
	Files          client.S3ClientInterface
	KeyPrefix      string
	CacheTTL       time.Duration
}

// Setup sets up the router with all routes
func Setup(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewRegistry(0)
	}
	if cfg.Events == nil {
		cfg.Events = client.NewStaticEventSource(nil)
	}

	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(commonmw.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	healthHandler := handler.NewHealthHandler(cfg.Redis)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	// Initialize repositories
	var schemaRepo repository.SchemaRepository
	if cfg.DB != nil {
		schemaRepo = repository.NewSchemaRepository(cfg.DB)
	} else {
		schemaRepo = repository.NewSchemaRepositoryWithProvider(database.GetDB)
	}
	schemaCache := repository.NewNoopSchemaCache()
	if cfg.Redis != nil {
		schemaCache = repository.NewRedisSchemaCache(cfg.Redis, cfg.CacheTTL)
	}

	// Initialize services
	picker := service.NewEventPicker(cfg.Events)
	store := service.NewSchemaStore(schemaRepo, schemaCache, cfg.KeyPrefix, cfg.Logger, cfg.Metrics)
	designerService := service.NewDesignerService(cfg.Sessions, picker, store, cfg.Files, cfg.Logger, cfg.Metrics)

	// Initialize handlers
	catalogHandler := handler.NewCatalogHandler(picker)
	designerHandler := handler.NewDesignerHandler(designerService)
	streamHandler := handler.NewPreviewStreamHandler(designerService, cfg.Logger)

	api := r.Group(cfg.BasePath)
	if cfg.JWTSecret != "" {
		api.Use(middleware.Auth(cfg.JWTSecret))
	} else {
		cfg.Logger.Warn("JWT secret not configured, designer routes are unauthenticated")
	}

	api.GET("/catalog", catalogHandler.GetFieldTypes)
	api.GET("/events", catalogHandler.GetEvents)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", designerHandler.OpenSession)
		sessions.GET("/:sessionId", designerHandler.GetSession)
		sessions.DELETE("/:sessionId", designerHandler.CloseSession)
		sessions.PUT("/:sessionId/event", designerHandler.SelectEvent)
		sessions.PATCH("/:sessionId/meta", designerHandler.UpdateMeta)
		sessions.POST("/:sessionId/save", designerHandler.Save)
		sessions.GET("/:sessionId/export", designerHandler.Export)
		sessions.POST("/:sessionId/import", designerHandler.Import)
		sessions.GET("/:sessionId/preview", designerHandler.GetPreview)
		sessions.GET("/:sessionId/preview/stream", streamHandler.Stream)

		fields := sessions.Group("/:sessionId/fields")
		{
			fields.POST("", designerHandler.AddField)
			fields.PATCH("/:fieldId", designerHandler.UpdateField)
			fields.DELETE("/:fieldId", designerHandler.RemoveField)
			fields.POST("/:fieldId/move", designerHandler.MoveField)
			fields.POST("/:fieldId/select", designerHandler.SelectField)
			fields.POST("/:fieldId/qr", designerHandler.UploadQR)
		}
	}

	return r
}

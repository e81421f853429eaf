// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plc-assistant/backend/internal/analysis"
	"github.com/plc-assistant/backend/internal/importer"
	"github.com/plc-assistant/backend/internal/search"
	"github.com/plc-assistant/backend/internal/storage"
	"github.com/plc-assistant/backend/internal/store"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             *store.PlcDataStore
	Files             storage.Store
	Imports           *importer.Manager
	Gateway           DeviceReader
	Version           string
	DefaultMaxResults int
	ContextLines      int
	AllowedExtensions []string
	EnableMetrics     bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health         HealthHandler
	Device         DeviceHandler
	Analysis       AnalysisHandler
	FunctionBlock  FunctionBlockHandler
	Gateway        GatewayHandler
	Import         ImportHandler
	MetricsEnabled bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	analyzer := analysis.NewProgramAnalyzer(deps.Store)
	return &Handlers{
		Health:        NewHealthHandler(deps.Version, deps.Store),
		Device:        NewDeviceHandler(analyzer, deps.ContextLines),
		Analysis:      NewAnalysisHandler(analysis.NewFaultTracer(deps.Store), search.NewCommentSearchService(deps.Store), deps.DefaultMaxResults),
		FunctionBlock: NewFunctionBlockHandler(deps.Store),
		Gateway:       NewGatewayHandler(deps.Gateway),
		Import:        NewImportHandler(deps.Files, deps.Imports, deps.AllowedExtensions),

		MetricsEnabled: deps.EnableMetrics,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health and store status
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/store/stats", handlers.Health.HandleStoreStats)

	// Device tools
	deviceGroup := apiGroup.Group("/devices")
	deviceGroup.GET("/parse", handlers.Device.HandleParseAddress)
	deviceGroup.GET("/:device/comment", handlers.Device.HandleGetComment)
	deviceGroup.GET("/:device/blocks", handlers.Device.HandleGetBlocks)
	deviceGroup.GET("/:device/related", handlers.Device.HandleGetRelated)
	deviceGroup.GET("/:device/datatype", handlers.Device.HandleGetDataType)

	// Whole-program analyses
	apiGroup.GET("/faults/trace", handlers.Analysis.HandleTraceFaults)
	apiGroup.GET("/search", handlers.Analysis.HandleSearchComments)
	apiGroup.GET("/reason", handlers.Analysis.HandleReason)

	// Function blocks
	apiGroup.GET("/function-blocks", handlers.FunctionBlock.HandleListFunctionBlocks)
	apiGroup.GET("/function-blocks/:name", handlers.FunctionBlock.HandleGetFunctionBlock)

	// Live values
	apiGroup.POST("/gateway/read", handlers.Gateway.HandleRead)
	apiGroup.POST("/gateway/read-batch", handlers.Gateway.HandleReadBatch)

	// Uploads and import jobs
	apiGroup.POST("/import", handlers.Import.HandleStartImport)
	apiGroup.GET("/import", handlers.Import.HandleListImports)
	apiGroup.GET("/import/:jobId", handlers.Import.HandleGetImport)
	apiGroup.DELETE("/import/:jobId", handlers.Import.HandleCancelImport)
	apiGroup.GET("/files", handlers.Import.HandleListFiles)

	if handlers.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// MiddlewareConfig selects the optional middleware
type MiddlewareConfig struct {
	Logger           *slog.Logger
	RequestLogging   bool
	RequestTimeout   time.Duration
	BodyLimit        string
	EnableCORS       bool
	AllowOrigins     []string
	ShowErrorDetails bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	e.HTTPErrorHandler = ErrorHandler(cfg.ShowErrorDetails)
	e.Validator = NewRequestValidator()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Request logging, skipping polling endpoints
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				path == "/metrics" ||
				(strings.HasPrefix(path, "/api/import/") && c.Request().Method == http.MethodGet)
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.RequestTimeout,
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/api/import" && c.Request().Method == http.MethodPost
			},
			ErrorMessage: "Request timeout - query took too long",
		}))
	}

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/metrics"
		},
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
}

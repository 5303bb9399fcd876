package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/health"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/middleware"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/ratelimit"
)

// NewRouter 는 HTTP 라우터를 구성한다.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	counter ratelimit.Counter,
	oracleHandler *OracleHandler,
	usageHandler *UsageHandler,
	healthDeps health.Dependencies,
	metricsStore *metrics.Store,
) *gin.Engine {
	setGinMode(cfg.Logging.Level)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger, "/health", "/health/ready", "/health/models", "/metrics"),
		gin.Recovery(),
	)

	if cfg.Telemetry.Enabled {
		router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
		logger.Info("otel_http_middleware_enabled", slog.String("service", cfg.Telemetry.ServiceName))
	}
	if cfg.HTTP.GzipEnabled {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/health", "/metrics"})))
	}

	router.Use(
		middleware.RequireAPIKey(cfg.HTTPAuth.APIKey, "/api/"),
		middleware.RateLimit(cfg, counter, logger),
	)

	RegisterHealthRoutes(router, cfg, healthDeps, metricsStore)
	oracleHandler.RegisterRoutes(router)
	usageHandler.RegisterRoutes(router)

	return router
}

func setGinMode(level string) {
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

package di

import (
	"context"
	"fmt"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/gemini"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/handler"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/health"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/oracle"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/ratelimit"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/server"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/telemetry"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/usage"
)

// InitializeApp 은 애플리케이션 의존성을 초기화하고 App 인스턴스를 반환한다.
// Gemini API 키가 없으면 시작 단계에서 실패한다.
func InitializeApp(ctx context.Context) (*App, error) {
	cfg, err := config.ProvideConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	app := &App{Config: cfg, Logger: logger}

	app.Telemetry, err = telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	metricsStore := metrics.NewStore()

	var usageStore usage.Store
	if cfg.Database.UsageEnabled {
		app.UsageRepository = usage.NewRepository(cfg, logger)
		usageStore = app.UsageRepository
		app.UsageRecorder = usage.NewRecorder(cfg, app.UsageRepository, logger)
	}

	geminiClient, err := gemini.NewClient(ctx, cfg, app.UsageRecorder)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	prompts, err := oracle.NewPrompts()
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("oracle prompts: %w", err)
	}

	app.RateLimiter, err = ratelimit.NewCounter(cfg.HTTPRateLimit)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("rate limit counter: %w", err)
	}

	invoker := oracle.NewInvoker(geminiClient, cfg.Gemini.PrimaryModel, cfg.Gemini.FallbackModel, metricsStore, logger)
	oracleHandler := handler.NewOracleHandler(oracle.NewService(prompts, invoker, metricsStore, logger), logger)
	usageHandler := handler.NewUsageHandler(cfg, usageStore, metricsStore, logger)

	healthDeps := health.Dependencies{RateLimitBackend: app.RateLimiter.Backend()}
	if usageStore != nil {
		healthDeps.UsageStore = usageStore
	}
	if cfg.HTTPRateLimit.UsesStore() {
		healthDeps.RateLimitStore = app.RateLimiter
	}

	router := handler.NewRouter(cfg, logger, app.RateLimiter, oracleHandler, usageHandler, healthDeps, metricsStore)
	app.Server = server.NewHTTPServer(cfg, router)

	logger.Info("oracle_ready",
		"primary_model", cfg.Gemini.PrimaryModel,
		"fallback_model", cfg.Gemini.FallbackModel,
		"api_keys", geminiClient.KeyCount(),
		"rate_limit_backend", app.RateLimiter.Backend(),
		"usage_db", cfg.Database.UsageEnabled,
	)

	return app, nil
}

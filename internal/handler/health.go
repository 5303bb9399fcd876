package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/health"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
)

// ModelConfigResponse: 모델 설정 응답입니다.
type ModelConfigResponse struct {
	PrimaryModel          string  `json:"primary_model"`
	FallbackModel         string  `json:"fallback_model"`
	Temperature           float64 `json:"temperature"`
	ConfiguredTemperature float64 `json:"configured_temperature"`
	MaxOutputTokens       int     `json:"max_output_tokens"`
	TimeoutSeconds        int     `json:"timeout_seconds"`
	HTTP2Enabled          bool    `json:"http2_enabled"`
	TransportMode         string  `json:"transport_mode"`
}

// RegisterHealthRoutes: 상태 확인 라우트를 등록합니다.
func RegisterHealthRoutes(router *gin.Engine, cfg *config.Config, deps health.Dependencies, metricsStore *metrics.Store) {
	router.GET("/health", func(c *gin.Context) {
		// Liveness: 외부 의존성(Valkey/DB 등) 상태로 인해 다운 판정되지 않도록 shallow로 유지합니다.
		payload := health.Collect(c.Request.Context(), cfg, deps, false)
		c.JSON(http.StatusOK, payload)
	})

	router.GET("/health/ready", func(c *gin.Context) {
		payload := health.Collect(c.Request.Context(), cfg, deps, true)
		status := http.StatusOK
		if payload.Status != health.StatusOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, payload)
	})

	if metricsStore != nil {
		router.GET("/metrics", gin.WrapH(metricsStore.Handler()))
	}

	router.GET("/health/models", func(c *gin.Context) {
		c.JSON(http.StatusOK, buildModelConfig(cfg))
	})
}

func buildModelConfig(cfg *config.Config) ModelConfigResponse {
	transportMode := "h1"
	if cfg.HTTP.HTTP2Enabled {
		transportMode = "h2c"
	}

	return ModelConfigResponse{
		PrimaryModel:          cfg.Gemini.PrimaryModel,
		FallbackModel:         cfg.Gemini.FallbackModel,
		Temperature:           cfg.Gemini.TemperatureForModel(cfg.Gemini.PrimaryModel),
		ConfiguredTemperature: cfg.Gemini.Temperature,
		MaxOutputTokens:       cfg.Gemini.MaxOutputTokens,
		TimeoutSeconds:        cfg.Gemini.TimeoutSeconds,
		HTTP2Enabled:          cfg.HTTP.HTTP2Enabled,
		TransportMode:         transportMode,
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/health"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthTestConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{
			APIKeys:         []string{"key"},
			PrimaryModel:    "gemini-2.5-flash",
			FallbackModel:   "gemini-2.5-pro",
			Temperature:     0.7,
			MaxOutputTokens: 8192,
			TimeoutSeconds:  60,
		},
		HTTP: config.HTTPConfig{HTTP2Enabled: true},
	}
}

func serve(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterHealthRoutes(router, healthTestConfig(), health.Dependencies{}, metrics.NewStore())

	if resp := serve(router, "/health"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := serve(router, "/health/ready"); resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200, got %d: %s", resp.Code, resp.Body.String())
	}

	modelResp := serve(router, "/health/models")
	if modelResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", modelResp.Code)
	}
	var payload ModelConfigResponse
	if err := json.Unmarshal(modelResp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.PrimaryModel != "gemini-2.5-flash" || payload.FallbackModel != "gemini-2.5-pro" {
		t.Fatalf("unexpected models: %+v", payload)
	}
	if payload.TransportMode != "h2c" {
		t.Fatalf("expected h2c, got %s", payload.TransportMode)
	}
	if payload.Temperature != 0.7 {
		t.Fatalf("unexpected temperature: %v", payload.Temperature)
	}
}

func TestHealthReadyDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := healthTestConfig()
	cfg.Gemini.APIKeys = nil
	router := gin.New()
	RegisterHealthRoutes(router, cfg, health.Dependencies{}, nil)
	if resp := serve(router, "/health/ready"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without api key, got %d", resp.Code)
	}
	if resp := serve(router, "/health"); resp.Code != http.StatusOK {
		t.Fatalf("liveness must stay 200, got %d", resp.Code)
	}

	deps := health.Dependencies{
		UsageStore: pingerFunc(func(context.Context) error { return errors.New("db down") }),
	}
	router = gin.New()
	RegisterHealthRoutes(router, healthTestConfig(), deps, nil)
	resp := serve(router, "/health/ready")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when usage db is down, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "db down") {
		t.Fatalf("expected ping error in body: %s", resp.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := metrics.NewStore()
	store.RecordFallback()

	router := gin.New()
	RegisterHealthRoutes(router, healthTestConfig(), health.Dependencies{}, store)

	resp := serve(router, "/metrics")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "market_oracle_model_fallbacks_total 1") {
		t.Fatalf("fallback counter missing from exposition")
	}
}

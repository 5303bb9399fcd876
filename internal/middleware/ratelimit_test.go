package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/ratelimit"
)

type failingCounter struct{}

func (failingCounter) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}
func (failingCounter) Ping(context.Context) error { return nil }
func (failingCounter) Backend() string { return "failing" }
func (failingCounter) Close() {}

func newRateLimitRouter(cfg *config.Config, counter ratelimit.Counter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(cfg, counter, nil))
	router.POST("/api/oracle/generate-options", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/generate-options", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func doRateLimitedRequest(router http.Handler, path string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = "1.2.3.4:1234"
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp.Code
}

func rateLimitConfig(limit int) *config.Config {
	return &config.Config{HTTPRateLimit: config.HTTPRateLimitConfig{
		RequestsPerMinute: limit,
		CacheSize:         10,
		CacheTTLSeconds:   int(time.Minute.Seconds()),
	}}
}

func TestRateLimit(t *testing.T) {
	cfg := rateLimitConfig(1)
	router := newRateLimitRouter(cfg, ratelimit.NewMemoryCounter(10, time.Minute))

	if code := doRateLimitedRequest(router, "/api/oracle/generate-options"); code != http.StatusOK {
		t.Fatalf("expected ok, got %d", code)
	}
	if code := doRateLimitedRequest(router, "/api/oracle/generate-options"); code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %d", code)
	}
	if code := doRateLimitedRequest(router, "/generate-options"); code != http.StatusOK {
		t.Fatalf("expected unprotected path to pass, got %d", code)
	}
}

func TestRateLimitWithValkeyCounter(t *testing.T) {
	mini := miniredis.RunT(t)
	counter, err := ratelimit.NewValkeyCounter("redis://" + mini.Addr())
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	defer counter.Close()

	router := newRateLimitRouter(rateLimitConfig(2), counter)
	for i := 0; i < 2; i++ {
		if code := doRateLimitedRequest(router, "/api/oracle/generate-options"); code != http.StatusOK {
			t.Fatalf("request %d: expected ok, got %d", i, code)
		}
	}
	if code := doRateLimitedRequest(router, "/api/oracle/generate-options"); code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %d", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	router := newRateLimitRouter(rateLimitConfig(0), ratelimit.NewMemoryCounter(10, time.Minute))
	for i := 0; i < 3; i++ {
		if code := doRateLimitedRequest(router, "/api/oracle/generate-options"); code != http.StatusOK {
			t.Fatalf("expected ok when disabled, got %d", code)
		}
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	router := newRateLimitRouter(rateLimitConfig(1), failingCounter{})
	for i := 0; i < 2; i++ {
		if code := doRateLimitedRequest(router, "/api/oracle/generate-options"); code != http.StatusOK {
			t.Fatalf("expected counter errors to fail open, got %d", code)
		}
	}
}

func TestRateLimitIdentityPrefersAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/oracle/generate-options", nil)
	c.Request.Header.Set("X-API-Key", "secret")
	c.Request.Header.Set("X-Forwarded-For", "9.9.9.9")

	identity := rateLimitIdentity(c)
	if identity != "key:"+hashKey("secret") {
		t.Fatalf("unexpected identity: %s", identity)
	}

	c.Request.Header.Del("X-API-Key")
	if identity := rateLimitIdentity(c); identity != "ip:9.9.9.9" {
		t.Fatalf("unexpected forwarded identity: %s", identity)
	}
}

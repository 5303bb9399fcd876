package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/ratelimit"
)

const rateLimitWindow = time.Minute

// RateLimit 는 분당 요청 제한 미들웨어다.
// 카운터 오류 시에는 요청을 막지 않고 경고만 남긴다.
func RateLimit(cfg *config.Config, counter ratelimit.Counter, logger *slog.Logger) gin.HandlerFunc {
	limit := 0
	if cfg != nil {
		limit = cfg.HTTPRateLimit.RequestsPerMinute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		if limit <= 0 || counter == nil {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodOptions || !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}

		identity := rateLimitIdentity(c)
		window := time.Now().Unix() / int64(rateLimitWindow/time.Second)
		key := fmt.Sprintf("%s:%d", identity, window)

		count, err := counter.Increment(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			logger.Warn("http_rate_limit_counter_failed", "backend", counter.Backend(), "err", err)
			c.Next()
			return
		}

		if count > int64(limit) {
			details := map[string]any{
				"path":             c.Request.URL.Path,
				"identity":         identity,
				"limit_per_minute": limit,
			}
			status, payload := httperror.Response(httperror.NewRateLimitExceeded(details), GetRequestID(c))
			c.AbortWithStatusJSON(status, payload)
			return
		}

		c.Next()
	}
}

func rateLimitIdentity(c *gin.Context) string {
	if key := credential(c.Request); key != "" {
		return "key:" + hashKey(key)
	}

	forwarded := strings.TrimSpace(c.GetHeader("X-Forwarded-For"))
	if forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip != "" {
			return "ip:" + ip
		}
	}

	if c.ClientIP() != "" {
		return "ip:" + c.ClientIP()
	}

	return "ip:unknown"
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	encoded := hex.EncodeToString(sum[:])
	if len(encoded) <= 16 {
		return encoded
	}
	return encoded[:16]
}

package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/httperror"
)

// RequireAPIKey 는 prefixes 로 시작하는 경로에 API 키를 요구한다.
// apiKey 가 비어 있으면 아무것도 검사하지 않는다.
// 키는 X-API-Key 또는 "Authorization: Bearer <key>" 로 받는다.
func RequireAPIKey(apiKey string, prefixes ...string) gin.HandlerFunc {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := sha256.Sum256([]byte(apiKey))

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !hasAnyPrefix(path, prefixes) {
			c.Next()
			return
		}

		got := sha256.Sum256([]byte(credential(c.Request)))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			status, payload := httperror.Response(httperror.NewUnauthorized(map[string]any{"path": path}), GetRequestID(c))
			c.AbortWithStatusJSON(status, payload)
			return
		}
		c.Next()
	}
}

func credential(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

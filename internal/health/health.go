package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

var startTime = time.Now()

const deepCheckTimeout = 2 * time.Second

// 상태 값
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Pinger 는 연결 상태를 확인할 수 있는 의존성이다.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies 는 deep check 대상이다. nil 이면 비활성화로 본다.
type Dependencies struct {
	UsageStore       Pinger
	RateLimitStore   Pinger
	RateLimitBackend string
}

// Component 는 상태 구성 요소다.
type Component struct {
	Status string         `json:"status"`
	Detail map[string]any `json:"detail"`
}

// Response 는 상태 응답 본문이다.
type Response struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Collect 는 헬스 상태를 수집한다. deepChecks 가 true 면 외부 의존성을 병렬로 확인한다.
func Collect(ctx context.Context, cfg *config.Config, deps Dependencies, deepChecks bool) Response {
	if ctx == nil {
		ctx = context.Background()
	}

	components := map[string]Component{
		"app":    buildAppStatus(),
		"gemini": buildGeminiStatus(cfg),
	}

	var mu sync.Mutex
	set := func(name string, component Component) {
		mu.Lock()
		components[name] = component
		mu.Unlock()
	}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deepCheckTimeout)
	defer cancel()

	var group errgroup.Group
	group.Go(func() error {
		set("usage_db", checkDependency(checkCtx, deps.UsageStore, deepChecks, map[string]any{
			"enabled": deps.UsageStore != nil,
		}))
		return nil
	})
	group.Go(func() error {
		backend := deps.RateLimitBackend
		if backend == "" {
			backend = "memory"
		}
		set("rate_limit_store", checkDependency(checkCtx, deps.RateLimitStore, deepChecks, map[string]any{
			"enabled": deps.RateLimitStore != nil,
			"backend": backend,
		}))
		return nil
	})
	_ = group.Wait()

	overall := StatusOK
	for _, component := range components {
		if component.Status != StatusOK {
			overall = StatusDegraded
			break
		}
	}

	return Response{
		Status:     overall,
		Components: components,
	}
}

func buildAppStatus() Component {
	uptimeSeconds := int(time.Since(startTime).Seconds())
	return Component{
		Status: StatusOK,
		Detail: map[string]any{
			"uptime_seconds": uptimeSeconds,
		},
	}
}

func buildGeminiStatus(cfg *config.Config) Component {
	apiKeyPresent := false
	keyCount := 0
	primaryModel := ""
	fallbackModel := ""
	timeoutSeconds := 0

	if cfg != nil {
		apiKeyPresent = cfg.Gemini.PrimaryKey() != ""
		keyCount = len(cfg.Gemini.APIKeys)
		primaryModel = cfg.Gemini.PrimaryModel
		fallbackModel = cfg.Gemini.FallbackModel
		timeoutSeconds = cfg.Gemini.TimeoutSeconds
	}
	status := StatusOK
	if !apiKeyPresent {
		status = StatusDegraded
	}

	return Component{
		Status: status,
		Detail: map[string]any{
			"api_key_present": apiKeyPresent,
			"api_key_count":   keyCount,
			"primary_model":   primaryModel,
			"fallback_model":  fallbackModel,
			"timeout_seconds": timeoutSeconds,
		},
	}
}

func checkDependency(ctx context.Context, dep Pinger, deepChecks bool, detail map[string]any) Component {
	detail["deep_checked"] = deepChecks
	if dep == nil || !deepChecks {
		return Component{Status: StatusOK, Detail: detail}
	}

	if err := dep.Ping(ctx); err != nil {
		detail["connected"] = false
		detail["error"] = err.Error()
		return Component{Status: StatusDegraded, Detail: detail}
	}
	detail["connected"] = true
	return Component{Status: StatusOK, Detail: detail}
}

package di

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/ratelimit"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/telemetry"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/usage"
)

// App: 애플리케이션 구성 요소를 묶는다.
type App struct {
	Server          *http.Server
	Logger          *slog.Logger
	Config          *config.Config
	Telemetry       *telemetry.Provider
	RateLimiter     ratelimit.Counter
	UsageRepository *usage.Repository // DB_USAGE_ENABLED=false 면 nil
	UsageRecorder   *usage.Recorder
}

// Close: 앱 리소스를 정리합니다. 사용량 배치는 저장소를 닫기 전에 flush 한다.
func (a *App) Close(ctx context.Context) {
	if a.UsageRecorder != nil {
		a.UsageRecorder.Close()
	}
	if a.UsageRepository != nil {
		a.UsageRepository.Close()
	}
	if a.RateLimiter != nil {
		a.RateLimiter.Close()
	}
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil && a.Logger != nil {
			a.Logger.Warn("otel_shutdown_failed", "err", err)
		}
	}
}

package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/llm"
)

// Recorder 는 모델 호출별 토큰 사용량을 저장하거나 배치로 적재한다.
// nil Recorder 는 아무것도 기록하지 않는다.
type Recorder struct {
	repo    Store
	batcher *batcher
	logger  *slog.Logger
}

// NewRecorder 는 설정에 따라 배치 사용 여부를 결정해 Recorder를 생성한다.
func NewRecorder(cfg *config.Config, repo Store, logger *slog.Logger) *Recorder {
	recorder := &Recorder{
		repo:   repo,
		logger: logger,
	}

	if cfg != nil && cfg.Database.UsageBatchEnabled {
		policy := policyFromConfig(cfg.Database)
		recorder.batcher = newBatcher(policy, repo, logger)
		recorder.batcher.start()
		if logger != nil {
			logger.Info("usage_batch_enabled",
				"interval", policy.interval,
				"timeout", policy.timeout,
				"max_pending_requests", policy.maxPending,
				"max_backoff", policy.maxBackoff,
			)
		}
	}

	return recorder
}

// Record 는 1회 모델 호출의 토큰 사용량을 기록한다.
func (r *Recorder) Record(ctx context.Context, model string, usage llm.Usage) {
	if r == nil || r.repo == nil {
		return
	}
	delta := Delta{
		InputTokens:     int64(usage.InputTokens),
		OutputTokens:    int64(usage.OutputTokens),
		ReasoningTokens: int64(usage.ReasoningTokens),
		RequestCount:    1,
	}
	if delta.InputTokens <= 0 && delta.OutputTokens <= 0 {
		return
	}

	if r.batcher != nil {
		r.batcher.add(model, delta)
		return
	}

	if err := r.repo.RecordUsage(context.WithoutCancel(ctx), time.Time{}, model, delta); err != nil {
		if r.logger != nil {
			r.logger.Warn("usage_db_save_failed", "model", model, "err", err)
		}
	}
}

// Close 는 배치 플러셔를 중지하고 남은 사용량을 플러시한다.
func (r *Recorder) Close() {
	if r == nil || r.batcher == nil {
		return
	}
	r.batcher.stop()
}

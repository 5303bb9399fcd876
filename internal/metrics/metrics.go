package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/llm"
)

const namespace = "market_oracle"

// 호출 결과 라벨 값
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Store 는 모델 호출 통계를 저장한다.
// 누적값은 atomic 으로 유지하고, 같은 이벤트를 Prometheus 컬렉터에도 반영한다.
type Store struct {
	totalCalls           int64
	totalErrors          int64
	totalFallbacks       int64
	totalInputTokens     int64
	totalOutputTokens    int64
	totalReasoningTokens int64
	totalCachedTokens    int64
	totalDurationMs      int64

	registry       *prometheus.Registry
	modelCalls     *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	modelTokens    *prometheus.CounterVec
	fallbacks      prometheus.Counter
	oracleRequests *prometheus.CounterVec
}

// NewStore 는 전용 레지스트리를 가진 통계 저장소를 생성한다.
func NewStore() *Store {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Store{
		registry: registry,
		modelCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of generative model calls",
			},
			[]string{"model", "outcome"},
		),
		modelLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Duration of generative model calls in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"model"},
		),
		modelTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_total",
				Help:      "Total number of tokens consumed by generative model calls",
			},
			[]string{"model", "kind"},
		),
		fallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_fallbacks_total",
				Help:      "Total number of fallback model activations",
			},
		),
		oracleRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of oracle requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// RecordSuccess 는 성공 호출 통계를 기록한다.
func (s *Store) RecordSuccess(model string, duration time.Duration, usage llm.Usage) {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.totalCalls, 1)
	atomic.AddInt64(&s.totalInputTokens, int64(usage.InputTokens))
	atomic.AddInt64(&s.totalOutputTokens, int64(usage.OutputTokens))
	atomic.AddInt64(&s.totalReasoningTokens, int64(usage.ReasoningTokens))
	atomic.AddInt64(&s.totalCachedTokens, int64(usage.CachedTokens))
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())

	s.modelCalls.WithLabelValues(model, OutcomeSuccess).Inc()
	s.modelLatency.WithLabelValues(model).Observe(duration.Seconds())
	s.modelTokens.WithLabelValues(model, "input").Add(float64(usage.InputTokens))
	s.modelTokens.WithLabelValues(model, "output").Add(float64(usage.OutputTokens))
	s.modelTokens.WithLabelValues(model, "reasoning").Add(float64(usage.ReasoningTokens))
}

// RecordError 는 실패 호출 통계를 기록한다.
func (s *Store) RecordError(model string, duration time.Duration) {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.totalCalls, 1)
	atomic.AddInt64(&s.totalErrors, 1)
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())

	s.modelCalls.WithLabelValues(model, OutcomeError).Inc()
	s.modelLatency.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordFallback 는 폴백 모델 전환을 기록한다.
func (s *Store) RecordFallback() {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.totalFallbacks, 1)
	s.fallbacks.Inc()
}

// RecordRequest 는 오라클 요청 결과를 기록한다.
func (s *Store) RecordRequest(operation string, err error) {
	if s == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	s.oracleRequests.WithLabelValues(operation, outcome).Inc()
}

// UsageTotals 는 누적 사용량을 반환한다.
func (s *Store) UsageTotals() llm.Usage {
	input := atomic.LoadInt64(&s.totalInputTokens)
	output := atomic.LoadInt64(&s.totalOutputTokens)
	reasoning := atomic.LoadInt64(&s.totalReasoningTokens)
	cached := atomic.LoadInt64(&s.totalCachedTokens)
	return llm.Usage{
		InputTokens:     int(input),
		OutputTokens:    int(output),
		TotalTokens:     int(input + output),
		ReasoningTokens: int(reasoning),
		CachedTokens:    int(cached),
	}
}

// Snapshot 는 통계 스냅샷을 반환한다.
func (s *Store) Snapshot() map[string]float64 {
	totalCalls := atomic.LoadInt64(&s.totalCalls)
	totalErrors := atomic.LoadInt64(&s.totalErrors)
	fallbacks := atomic.LoadInt64(&s.totalFallbacks)
	input := atomic.LoadInt64(&s.totalInputTokens)
	output := atomic.LoadInt64(&s.totalOutputTokens)
	reasoning := atomic.LoadInt64(&s.totalReasoningTokens)
	cached := atomic.LoadInt64(&s.totalCachedTokens)
	durationMs := atomic.LoadInt64(&s.totalDurationMs)

	avgDuration := 0.0
	if totalCalls > 0 {
		avgDuration = float64(durationMs) / float64(totalCalls)
	}

	return map[string]float64{
		"total_calls":            float64(totalCalls),
		"total_errors":           float64(totalErrors),
		"total_fallbacks":        float64(fallbacks),
		"total_input_tokens":     float64(input),
		"total_output_tokens":    float64(output),
		"total_reasoning_tokens": float64(reasoning),
		"total_cached_tokens":    float64(cached),
		"total_tokens":           float64(input + output),
		"total_duration_ms":      float64(durationMs),
		"avg_duration_ms":        avgDuration,
	}
}

// Handler 는 Prometheus exposition 핸들러를 반환한다.
func (s *Store) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

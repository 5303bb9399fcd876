package oracle

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/llm"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
)

const tracerName = "market-oracle/oracle"

// Backend 는 모델 이름과 프롬프트로 텍스트를 생성하는 외부 모델 백엔드다.
// 실패는 panic 이나 별도 에러가 아니라 Result.Err 로 표현한다.
type Backend interface {
	Generate(ctx context.Context, model string, prompt string) llm.Result
}

// Completion: 최종 생성 결과입니다.
type Completion struct {
	Text     string
	Model    string
	Usage    llm.Usage
	Fallback bool
}

// Invoker: 기본 모델 호출 후 실패 시 폴백 모델을 정확히 한 번 호출합니다.
type Invoker struct {
	backend       Backend
	primaryModel  string
	fallbackModel string
	metrics       *metrics.Store
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewInvoker 는 Invoker 를 생성한다.
func NewInvoker(backend Backend, primaryModel string, fallbackModel string, metricsStore *metrics.Store, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		backend:       backend,
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
		metrics:       metricsStore,
		logger:        logger,
		tracer:        otel.Tracer(tracerName),
	}
}

// Generate 는 프롬프트로 텍스트를 생성한다.
// 재시도, 백오프, 요청 간 상태 기억은 없다.
func (i *Invoker) Generate(ctx context.Context, prompt string) (Completion, error) {
	ctx, span := i.tracer.Start(ctx, "oracle.generate")
	defer span.End()

	primary := i.call(ctx, i.primaryModel, prompt)
	if primary.OK() {
		span.SetAttributes(attribute.String("oracle.model", primary.Model))
		return Completion{Text: primary.Text, Model: primary.Model, Usage: primary.Usage}, nil
	}

	i.metrics.RecordFallback()
	i.logger.WarnContext(ctx, "oracle_model_fallback",
		"primary_model", i.primaryModel,
		"fallback_model", i.fallbackModel,
		"err", primary.Err,
	)

	fallback := i.call(ctx, i.fallbackModel, prompt)
	if fallback.OK() {
		span.SetAttributes(
			attribute.String("oracle.model", fallback.Model),
			attribute.Bool("oracle.fallback", true),
		)
		return Completion{Text: fallback.Text, Model: fallback.Model, Usage: fallback.Usage, Fallback: true}, nil
	}

	err := &BackendUnavailableError{
		PrimaryModel:  i.primaryModel,
		FallbackModel: i.fallbackModel,
		PrimaryErr:    primary.Err,
		FallbackErr:   fallback.Err,
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "backend unavailable")
	return Completion{}, err
}

func (i *Invoker) call(ctx context.Context, model string, prompt string) llm.Result {
	ctx, span := i.tracer.Start(ctx, "oracle.model_call", trace.WithAttributes(attribute.String("oracle.model", model)))
	defer span.End()

	started := time.Now()
	result := i.backend.Generate(ctx, model, prompt)
	if result.Model == "" {
		result.Model = model
	}
	elapsed := time.Since(started)

	if !result.OK() {
		i.metrics.RecordError(model, elapsed)
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "model call failed")
		return result
	}

	i.metrics.RecordSuccess(model, elapsed, result.Usage)
	span.SetAttributes(
		attribute.Int("oracle.tokens.input", result.Usage.InputTokens),
		attribute.Int("oracle.tokens.output", result.Usage.OutputTokens),
	)
	return result
}

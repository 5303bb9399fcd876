package oracle

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
)

// 요청 종류 라벨
const (
	OperationGenerateOptions      = "generate_options"
	OperationPredictProbabilities = "predict_probabilities"
)

// Service 는 프롬프트 생성, 모델 호출, JSON 추출을 순서대로 수행한다.
type Service struct {
	prompts *Prompts
	invoker *Invoker
	metrics *metrics.Store
	logger  *slog.Logger
}

// NewService 는 Service 를 생성한다.
func NewService(prompts *Prompts, invoker *Invoker, metricsStore *metrics.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{prompts: prompts, invoker: invoker, metrics: metricsStore, logger: logger}
}

// GenerateOptions 는 질문에 대한 상호 배타적 선택지를 생성한다.
func (s *Service) GenerateOptions(ctx context.Context, question string) (json.RawMessage, error) {
	text, err := s.prompts.Options(question)
	if err != nil {
		s.metrics.RecordRequest(OperationGenerateOptions, err)
		return nil, fmt.Errorf("build options prompt: %w", err)
	}
	result, err := s.run(ctx, text)
	s.metrics.RecordRequest(OperationGenerateOptions, err)
	return result, err
}

// PredictProbabilities 는 주어진 선택지별 확률을 예측한다.
func (s *Service) PredictProbabilities(ctx context.Context, question string, options []string) (json.RawMessage, error) {
	text, err := s.prompts.Probabilities(question, options)
	if err != nil {
		s.metrics.RecordRequest(OperationPredictProbabilities, err)
		return nil, fmt.Errorf("build probabilities prompt: %w", err)
	}
	result, err := s.run(ctx, text)
	s.metrics.RecordRequest(OperationPredictProbabilities, err)
	return result, err
}

func (s *Service) run(ctx context.Context, prompt string) (json.RawMessage, error) {
	completion, err := s.invoker.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "oracle_completion",
		"model", completion.Model,
		"fallback", completion.Fallback,
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
	)
	return ExtractJSON(completion.Text)
}

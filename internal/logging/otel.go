package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

// NewLoggerWithOTel: 로거를 생성하고, OTel이 활성화되어 있으면 trace_id/span_id 를 레코드에 붙입니다.
func NewLoggerWithOTel(cfg config.LoggingConfig, otelEnabled bool) (*slog.Logger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	if !otelEnabled {
		return logger, nil
	}

	traced := slog.New(&traceHandler{next: logger.Handler()})
	slog.SetDefault(traced)
	return traced, nil
}

type traceHandler struct {
	next slog.Handler
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, record slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		record = record.Clone()
		record.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, record)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{next: h.next.WithGroup(name)}
}

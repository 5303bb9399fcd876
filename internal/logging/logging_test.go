package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

func TestNewLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LoggingConfig{
		LogDir:     dir,
		Level:      "info",
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
		Compress:   true,
	}
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("oracle_ready", "model", "gemini-2.5-flash")
	logger.Debug("hidden_below_level")

	data, err := os.ReadFile(filepath.Join(dir, "oracle.log"))
	if err != nil {
		t.Fatalf("expected log file, got error: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"oracle_ready"`) || !strings.Contains(out, `"model":"gemini-2.5-flash"`) {
		t.Fatalf("expected JSON record in log file: %s", out)
	}
	if strings.Contains(out, "hidden_below_level") {
		t.Fatalf("debug record must be filtered at info level: %s", out)
	}
}

func TestFanoutRespectsEachLevel(t *testing.T) {
	var verbose, quiet bytes.Buffer
	logger := slog.New(fanout{
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}).With("component", "oracle")

	logger.Debug("detail")
	logger.Warn("slow")

	if !strings.Contains(verbose.String(), "msg=detail") || !strings.Contains(verbose.String(), "msg=slow") {
		t.Fatalf("verbose handler missing records: %s", verbose.String())
	}
	if strings.Contains(quiet.String(), "detail") || !strings.Contains(quiet.String(), "component=oracle") {
		t.Fatalf("unexpected quiet handler output: %s", quiet.String())
	}
}

func TestNewLoggerRejectsInvalidRotation(t *testing.T) {
	cfg := config.LoggingConfig{LogDir: t.TempDir(), MaxSizeMB: 0, MaxBackups: 1, MaxAgeDays: 1}
	if _, err := NewLogger(cfg); err == nil {
		t.Fatalf("expected error for invalid rotation config")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		" info ":  slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestTraceHandlerAddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceHandler{next: slog.NewTextHandler(&buf, nil)})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced")
	out := buf.String()
	if !strings.Contains(out, "trace_id=0102030405060708090a0b0c0d0e0f10") {
		t.Fatalf("expected trace_id in output: %s", out)
	}
	if !strings.Contains(out, "span_id=0102030405060708") {
		t.Fatalf("expected span_id in output: %s", out)
	}

	buf.Reset()
	logger.Info("untraced")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("did not expect trace_id without span: %s", buf.String())
	}
}

package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.IsEnabled() {
		t.Fatalf("expected disabled provider")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	var nilProvider *Provider
	if nilProvider.IsEnabled() || nilProvider.Shutdown(context.Background()) != nil {
		t.Fatalf("nil provider must behave as disabled")
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased"},
	}

	for _, tc := range tests {
		desc := newSampler(tc.rate).Description()
		if !strings.HasPrefix(desc, "ParentBased") || !strings.Contains(desc, tc.want) {
			t.Fatalf("rate %v: unexpected sampler %q", tc.rate, desc)
		}
	}
}

package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

func TestClampDays(t *testing.T) {
	tests := []struct {
		days, fallback, want int
	}{
		{0, 7, 7},
		{-3, 30, 30},
		{3, 7, 3},
		{1000, 7, maxDays},
	}
	for _, tc := range tests {
		if got := clampDays(tc.days, tc.fallback); got != tc.want {
			t.Fatalf("clampDays(%d, %d): expected %d, got %d", tc.days, tc.fallback, tc.want, got)
		}
	}
}

func TestWindowStart(t *testing.T) {
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if got := windowStart(today, 1); !got.Equal(today) {
		t.Fatalf("one-day window must start today, got %v", got)
	}
	if got := windowStart(today, 7); !got.Equal(time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected seven-day window start: %v", got)
	}
}

func TestRepositoryWithoutHost(t *testing.T) {
	repo := NewRepository(&config.Config{}, nil)
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatalf("expected error without database host")
	}
	if err := repo.RecordUsage(context.Background(), time.Time{}, "m", Delta{}); err != nil {
		t.Fatalf("empty delta must be a no-op, got %v", err)
	}
}

func TestRepositoryClosed(t *testing.T) {
	repo := NewRepository(nil, nil)
	repo.Close()
	if _, err := repo.GetRecentUsage(context.Background(), 7); !errors.Is(err, errRepositoryClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

package usage

import (
	"testing"
	"time"
)

func TestDailyUsageTotals(t *testing.T) {
	row := DailyUsage{InputTokens: 2, OutputTokens: 3}
	if row.TotalTokens() != 5 {
		t.Fatalf("unexpected total tokens")
	}
}

func TestFromRow(t *testing.T) {
	date := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	usage := fromRow(TokenUsage{
		ID:              9,
		UsageDate:       date,
		Model:           "gemini-2.5-flash",
		InputTokens:     1,
		OutputTokens:    2,
		ReasoningTokens: 3,
		RequestCount:    4,
		Version:         5,
	})
	if usage.Model != "gemini-2.5-flash" || !usage.UsageDate.Equal(date) {
		t.Fatalf("unexpected usage: %+v", usage)
	}
	if usage.InputTokens != 1 || usage.OutputTokens != 2 || usage.ReasoningTokens != 3 || usage.RequestCount != 4 {
		t.Fatalf("unexpected counters: %+v", usage)
	}
}

package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/llm"
)

type recordedUsage struct {
	date  time.Time
	model string
	delta Delta
}

type fakeStore struct {
	mu       sync.Mutex
	records  []recordedUsage
	recordFn func() error
}

func (f *fakeStore) RecordUsage(_ context.Context, usageDate time.Time, model string, delta Delta) error {
	if f.recordFn != nil {
		if err := f.recordFn(); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedUsage{date: usageDate, model: model, delta: delta})
	return nil
}

func (f *fakeStore) GetRecentUsage(context.Context, int) ([]DailyUsage, error) { return nil, nil }

func (f *fakeStore) GetTotalUsage(context.Context, int) (DailyUsage, error) {
	return DailyUsage{}, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) Close() {}

func (f *fakeStore) snapshot() []recordedUsage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedUsage(nil), f.records...)
}

func TestRecorderNilSafe(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), "m", llm.Usage{InputTokens: 1})
	recorder.Close()
}

func TestRecorderDirectWrite(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(&config.Config{}, store, nil)

	recorder.Record(context.Background(), "gemini-2.5-flash", llm.Usage{InputTokens: 5, OutputTokens: 7, ReasoningTokens: 2})
	recorder.Record(context.Background(), "gemini-2.5-flash", llm.Usage{})

	records := store.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	got := records[0]
	if got.model != "gemini-2.5-flash" || !got.date.IsZero() {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.delta != (Delta{InputTokens: 5, OutputTokens: 7, ReasoningTokens: 2, RequestCount: 1}) {
		t.Fatalf("unexpected delta: %+v", got.delta)
	}
}

func TestRecorderBatchesPerModel(t *testing.T) {
	store := &fakeStore{}
	cfg := &config.Config{Database: config.DatabaseConfig{
		UsageBatchEnabled:              true,
		UsageBatchFlushIntervalSeconds: 3600,
		UsageBatchMaxPendingRequests:   100,
		UsageBatchMaxBackoffSeconds:    3600,
	}}
	recorder := NewRecorder(cfg, store, nil)

	recorder.Record(context.Background(), "flash", llm.Usage{InputTokens: 1, OutputTokens: 1})
	recorder.Record(context.Background(), "flash", llm.Usage{InputTokens: 2, OutputTokens: 2})
	recorder.Record(context.Background(), "pro", llm.Usage{InputTokens: 3, OutputTokens: 3})
	recorder.Close()

	records := store.snapshot()
	if len(records) != 2 {
		t.Fatalf("expected one row per model, got %d", len(records))
	}
	byModel := make(map[string]Delta)
	for _, record := range records {
		byModel[record.model] = record.delta
	}
	if byModel["flash"] != (Delta{InputTokens: 3, OutputTokens: 3, RequestCount: 2}) {
		t.Fatalf("unexpected flash delta: %+v", byModel["flash"])
	}
	if byModel["pro"] != (Delta{InputTokens: 3, OutputTokens: 3, RequestCount: 1}) {
		t.Fatalf("unexpected pro delta: %+v", byModel["pro"])
	}
}

func TestBatcherRequeuesOnFailure(t *testing.T) {
	store := &fakeStore{recordFn: func() error { return errors.New("db down") }}
	b := newBatcher(batchPolicy{interval: time.Second, timeout: time.Second, maxPending: 100, maxBackoff: time.Second}, store, nil)

	b.add("flash", Delta{InputTokens: 1, RequestCount: 1})
	if dropped := b.flush(false); dropped != 0 {
		t.Fatalf("expected nothing dropped before shutdown, got %d", dropped)
	}
	if len(b.pending) != 1 || b.requests != 1 {
		t.Fatalf("expected failed delta to be requeued, got %d rows", len(b.pending))
	}
	if b.backoff.failures != 1 || !b.backoff.blocked(time.Now()) {
		t.Fatalf("expected failure backoff to be registered")
	}

	b.add("flash", Delta{InputTokens: 2, RequestCount: 1})
	if dropped := b.flush(false); dropped != 0 || len(b.pending) != 1 {
		t.Fatalf("expected flush to be skipped during backoff")
	}

	if dropped := b.flush(true); dropped != 1 {
		t.Fatalf("expected shutdown flush to drop failed row, got %d", dropped)
	}
	if len(b.pending) != 0 {
		t.Fatalf("expected empty queue after shutdown flush")
	}
}

func TestBatcherFlushesOnThreshold(t *testing.T) {
	store := &fakeStore{}
	b := newBatcher(batchPolicy{interval: time.Hour, timeout: time.Second, maxPending: 2, maxBackoff: time.Hour}, store, nil)
	b.start()
	defer b.stop()

	b.add("flash", Delta{InputTokens: 1, RequestCount: 1})
	b.add("flash", Delta{InputTokens: 1, RequestCount: 1})

	deadline := time.Now().Add(2 * time.Second)
	for len(store.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected threshold to trigger a flush")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := store.snapshot()[0].delta; got != (Delta{InputTokens: 2, RequestCount: 2}) {
		t.Fatalf("unexpected flushed delta: %+v", got)
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 4 * time.Second},
		{40, 4 * time.Second},
	}
	for _, tc := range tests {
		if got := backoffDelay(time.Second, 4*time.Second, tc.failures); got != tc.want {
			t.Fatalf("failures=%d: expected %v, got %v", tc.failures, tc.want, got)
		}
	}
}

func TestFlushBackoffReporting(t *testing.T) {
	policy := batchPolicy{interval: time.Second, maxBackoff: time.Minute, logEvery: time.Hour}
	var backoff flushBackoff
	now := time.Now()

	reports := make([]bool, 0, 5)
	for range 5 {
		_, report := backoff.fail(now, policy)
		reports = append(reports, report)
	}
	want := []bool{true, true, false, true, false}
	for i := range want {
		if reports[i] != want[i] {
			t.Fatalf("failure %d: expected report=%v, got %v", i+1, want[i], reports[i])
		}
	}

	if _, report := backoff.fail(now.Add(2*time.Hour), policy); !report {
		t.Fatalf("expected report once log interval elapsed")
	}

	backoff.reset()
	if backoff.blocked(now) || backoff.failures != 0 {
		t.Fatalf("expected reset backoff")
	}
}

func TestPolicyFromConfigDefaults(t *testing.T) {
	policy := policyFromConfig(config.DatabaseConfig{})
	if policy.interval != time.Second || policy.timeout != 5*time.Second {
		t.Fatalf("unexpected timing defaults: %+v", policy)
	}
	if policy.maxPending != 1 || policy.maxBackoff != time.Second {
		t.Fatalf("unexpected limit defaults: %+v", policy)
	}
}

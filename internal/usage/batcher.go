package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

// usageKey 는 배치 집계 단위(일자, 모델)다.
type usageKey struct {
	date  time.Time
	model string
}

// batchPolicy 는 배치 적재 주기와 한도다.
type batchPolicy struct {
	interval   time.Duration
	timeout    time.Duration
	maxPending int64
	maxBackoff time.Duration
	logEvery   time.Duration
}

func policyFromConfig(db config.DatabaseConfig) batchPolicy {
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }

	p := batchPolicy{
		interval:   seconds(db.UsageBatchFlushIntervalSeconds),
		timeout:    seconds(db.UsageBatchFlushTimeoutSeconds),
		maxPending: int64(db.UsageBatchMaxPendingRequests),
		maxBackoff: seconds(db.UsageBatchMaxBackoffSeconds),
		logEvery:   seconds(db.UsageBatchErrorLogMaxIntervalSeconds),
	}
	if p.interval <= 0 {
		p.interval = time.Second
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	if p.maxPending <= 0 {
		p.maxPending = 1
	}
	if p.maxBackoff <= 0 {
		p.maxBackoff = p.interval
	}
	return p
}

// flushBackoff 는 연속 실패 횟수로 다음 적재 가능 시각을 정한다.
type flushBackoff struct {
	failures int
	until    time.Time
	loggedAt time.Time
}

func (f *flushBackoff) blocked(now time.Time) bool {
	return now.Before(f.until)
}

// fail 은 실패를 기록하고 대기 시간과 로그 출력 여부를 돌려준다.
// 로그는 실패 횟수가 1, 2, 4, 8... 일 때와 logEvery 가 지났을 때만 남긴다.
func (f *flushBackoff) fail(now time.Time, p batchPolicy) (time.Duration, bool) {
	f.failures++
	delay := backoffDelay(p.interval, p.maxBackoff, f.failures)
	f.until = now.Add(delay)

	report := f.failures&(f.failures-1) == 0
	if !report && p.logEvery > 0 {
		report = now.Sub(f.loggedAt) >= p.logEvery
	}
	if report {
		f.loggedAt = now
	}
	return delay, report
}

func (f *flushBackoff) reset() {
	f.failures = 0
	f.until = time.Time{}
}

func backoffDelay(interval time.Duration, limit time.Duration, failures int) time.Duration {
	delay := interval
	for i := 1; i < failures && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}

// batcher 는 사용량을 메모리에 모았다가 주기적으로 Store 에 적재한다.
type batcher struct {
	store  Store
	policy batchPolicy
	logger *slog.Logger

	mu       sync.Mutex
	pending  map[usageKey]Delta
	requests int64
	backoff  flushBackoff

	wakeup chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

func newBatcher(policy batchPolicy, store Store, logger *slog.Logger) *batcher {
	return &batcher{
		store:   store,
		policy:  policy,
		logger:  logger,
		pending: make(map[usageKey]Delta),
		wakeup:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (b *batcher) start() {
	go b.run()
}

// stop 은 루프를 멈추고 마지막으로 한 번 적재한다.
func (b *batcher) stop() {
	close(b.quit)
	<-b.done
}

func (b *batcher) add(model string, delta Delta) {
	if delta.empty() {
		return
	}
	if b.merge(usageKey{date: todayDate(), model: model}, delta) {
		select {
		case b.wakeup <- struct{}{}:
		default:
		}
	}
}

// merge 는 delta 를 대기열에 합치고 적재 임계치 도달 여부를 반환한다.
func (b *batcher) merge(key usageKey, delta Delta) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.pending[key]
	current.add(delta)
	b.pending[key] = current
	b.requests += delta.RequestCount
	return b.requests >= b.policy.maxPending
}

func (b *batcher) run() {
	defer close(b.done)

	ticker := time.NewTicker(b.policy.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-b.wakeup:
		case <-b.quit:
			b.flush(true)
			return
		}
		b.flush(false)
	}
}

// flush 는 대기열을 Store 에 적재하고 버린 행 수를 반환한다.
// 평소에는 실패한 행을 대기열로 되돌리고, final 이면 버린다.
func (b *batcher) flush(final bool) int {
	now := time.Now()
	if !final && b.backoff.blocked(now) {
		return 0
	}

	batch := b.drain()
	var firstErr error
	dropped := 0
	for key, delta := range batch {
		if err := b.write(key, delta); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if final {
				dropped++
				continue
			}
			b.merge(key, delta)
		}
	}

	if firstErr == nil {
		b.backoff.reset()
		return dropped
	}

	delay, report := b.backoff.fail(now, b.policy)
	if report && b.logger != nil {
		b.logger.Warn("usage_flush_failed",
			"failures", b.backoff.failures,
			"retry_in", delay,
			"dropped", dropped,
			"err", firstErr,
		)
	}
	return dropped
}

func (b *batcher) drain() map[usageKey]Delta {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.pending
	b.pending = make(map[usageKey]Delta, len(batch))
	b.requests = 0
	return batch
}

func (b *batcher) write(key usageKey, delta Delta) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.policy.timeout)
	defer cancel()
	return b.store.RecordUsage(ctx, key.date, key.model, delta)
}

package ratelimit

import (
	"context"
	"time"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/cache"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

// Counter 는 고정 윈도우 요청 카운터다.
type Counter interface {
	// Increment 는 key 의 카운트를 1 올리고 현재 값을 반환한다. key 는 window 이후 만료된다.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Ping 은 백엔드 연결 상태를 확인한다.
	Ping(ctx context.Context) error
	// Backend 는 백엔드 이름을 반환한다.
	Backend() string
	Close()
}

// MemoryCounter 는 프로세스 내 TTL 캐시 기반 카운터다.
type MemoryCounter struct {
	counts *cache.TTLCache[string, int64]
}

// NewMemoryCounter 는 메모리 카운터를 생성한다.
func NewMemoryCounter(maxSize int, ttl time.Duration) *MemoryCounter {
	return &MemoryCounter{counts: cache.NewTTLCache[string, int64](maxSize, ttl)}
}

// Increment 는 카운트를 증가시킨다. 만료는 생성 시 TTL 을 따른다.
func (m *MemoryCounter) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	return m.counts.Modify(key, func(current int64, _ bool) int64 { return current + 1 }), nil
}

// Ping 은 항상 성공한다.
func (m *MemoryCounter) Ping(context.Context) error { return nil }

// Backend 는 "memory" 를 반환한다.
func (m *MemoryCounter) Backend() string { return "memory" }

// Close 는 아무것도 하지 않는다.
func (m *MemoryCounter) Close() {}

// NewCounter 는 설정에 맞는 카운터를 생성한다. 저장소 URL 이 없으면 메모리 카운터를 쓴다.
func NewCounter(cfg config.HTTPRateLimitConfig) (Counter, error) {
	if cfg.UsesStore() {
		return NewValkeyCounter(cfg.StoreURL)
	}
	return NewMemoryCounter(cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second), nil
}

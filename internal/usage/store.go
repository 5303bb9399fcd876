package usage

import (
	"context"
	"time"
)

// Store: 사용량 저장소 인터페이스입니다.
// 테스트에서 mock 구현을 주입할 수 있도록 합니다.
type Store interface {
	// RecordUsage 일자/모델별 토큰 사용량 누적
	RecordUsage(ctx context.Context, usageDate time.Time, model string, delta Delta) error

	// GetRecentUsage 최근 N일 일자/모델별 사용량 조회
	GetRecentUsage(ctx context.Context, days int) ([]DailyUsage, error)

	// GetTotalUsage 최근 N일 합계 조회
	GetTotalUsage(ctx context.Context, days int) (DailyUsage, error)

	// Ping 연결 확인
	Ping(ctx context.Context) error

	// Close 리소스 정리
	Close()
}

// Delta 는 한 번에 누적할 토큰/요청 수다.
type Delta struct {
	InputTokens     int64
	OutputTokens    int64
	ReasoningTokens int64
	RequestCount    int64
}

func (d Delta) empty() bool {
	return d.RequestCount <= 0 && d.InputTokens <= 0 && d.OutputTokens <= 0
}

func (d *Delta) add(other Delta) {
	d.InputTokens += other.InputTokens
	d.OutputTokens += other.OutputTokens
	d.ReasoningTokens += other.ReasoningTokens
	d.RequestCount += other.RequestCount
}

// Repository가 Store 인터페이스를 구현하는지 컴파일 타임 확인
var _ Store = (*Repository)(nil)

package usage

import "time"

// TokenUsage 는 일자/모델별 토큰 사용량 집계를 저장하는 DB 모델이다.
type TokenUsage struct {
	ID              int64     `gorm:"column:id;primaryKey"`
	UsageDate       time.Time `gorm:"column:usage_date;type:date;not null;uniqueIndex:idx_oracle_token_usage_date_model,priority:1"`
	Model           string    `gorm:"column:model;not null;uniqueIndex:idx_oracle_token_usage_date_model,priority:2"`
	InputTokens     int64     `gorm:"column:input_tokens;not null;default:0"`
	OutputTokens    int64     `gorm:"column:output_tokens;not null;default:0"`
	ReasoningTokens int64     `gorm:"column:reasoning_tokens;not null;default:0"`
	RequestCount    int64     `gorm:"column:request_count;not null;default:0"`
	Version         int64     `gorm:"column:version;not null;default:0"`
}

// TableName 은 GORM에서 사용할 테이블명을 반환한다.
func (TokenUsage) TableName() string {
	return "oracle_token_usage"
}

// DailyUsage 는 API/집계용 일자별 사용량 뷰 모델이다.
// Model 이 비어 있으면 모든 모델의 합계다.
type DailyUsage struct {
	UsageDate       time.Time `json:"usage_date"`
	Model           string    `json:"model,omitempty"`
	InputTokens     int64     `json:"input_tokens"`
	OutputTokens    int64     `json:"output_tokens"`
	ReasoningTokens int64     `json:"reasoning_tokens"`
	RequestCount    int64     `json:"request_count"`
}

// TotalTokens 는 입력+출력 토큰 합계를 반환한다.
func (d DailyUsage) TotalTokens() int64 {
	return d.InputTokens + d.OutputTokens
}

func fromRow(row TokenUsage) DailyUsage {
	return DailyUsage{
		UsageDate:       row.UsageDate,
		Model:           row.Model,
		InputTokens:     row.InputTokens,
		OutputTokens:    row.OutputTokens,
		ReasoningTokens: row.ReasoningTokens,
		RequestCount:    row.RequestCount,
	}
}

package llm

// Usage: 토큰 사용량 정보를 담습니다.
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	TotalTokens     int `json:"total_tokens"`
	ReasoningTokens int `json:"reasoning_tokens"`
	CachedTokens    int `json:"cached_tokens"` // 암시적 캐싱된 토큰 수 (CachedContentTokenCount)
}

// Result: 단일 모델 호출 결과입니다. Err 가 nil 이 아니면 Text 는 의미가 없습니다.
type Result struct {
	Text  string
	Model string
	Usage Usage
	Err   error
}

// OK: 호출 성공 여부를 반환합니다.
func (r Result) OK() bool {
	return r.Err == nil
}

// Success: 성공 결과를 생성합니다.
func Success(model string, text string, usage Usage) Result {
	return Result{Text: text, Model: model, Usage: usage}
}

// Failure: 실패 결과를 생성합니다.
func Failure(model string, err error) Result {
	return Result{Model: model, Err: err}
}

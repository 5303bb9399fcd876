package oracle

import (
	"errors"
	"fmt"
)

// ErrNoJSON 는 모델 출력에 JSON 리터럴이 없을 때의 sentinel 이다.
var ErrNoJSON = errors.New("No JSON found in model output")

// ExtractionError: 모델 출력에서 JSON 형태의 구간을 찾지 못했습니다.
type ExtractionError struct {
	Text string
}

func (e *ExtractionError) Error() string {
	return ErrNoJSON.Error()
}

// Is: errors.Is(err, ErrNoJSON) 를 지원합니다.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrNoJSON
}

// ParseError: 찾은 구간이 올바른 JSON 이 아닙니다.
type ParseError struct {
	Fragment string
	Err      error
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// BackendUnavailableError 는 기본 모델과 폴백 모델이 모두 실패했음을 나타낸다.
// 메시지와 Unwrap 은 폴백 쪽 에러를 따른다.
type BackendUnavailableError struct {
	PrimaryModel  string
	FallbackModel string
	PrimaryErr    error
	FallbackErr   error
}

func (e *BackendUnavailableError) Error() string {
	if e.FallbackErr == nil {
		return fmt.Sprintf("model %s unavailable", e.FallbackModel)
	}
	return e.FallbackErr.Error()
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.FallbackErr
}

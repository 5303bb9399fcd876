package oracle

import (
	"bytes"
	"regexp"

	json "github.com/goccy/go-json"
)

// 가장 앞에서 시작할 수 있는 객체/배열 리터럴을 마지막 닫는 괄호까지 탐욕적으로 매칭한다.
// 괄호 짝은 맞추지 않는다.
var jsonLiteralPattern = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

// ExtractJSON 는 자유 형식 텍스트에서 첫 JSON 객체/배열 리터럴을 찾아 파싱한다.
// 반환값은 모델이 쓴 키 순서와 숫자 표기를 그대로 유지한 compact JSON 이다.
// 중복 키는 마지막 값만 남기고, 키 위치는 처음 나온 자리를 따른다.
func ExtractJSON(text string) (json.RawMessage, error) {
	fragment := jsonLiteralPattern.FindString(text)
	if fragment == "" {
		return nil, &ExtractionError{Text: text}
	}
	data := []byte(fragment)

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &ParseError{Fragment: fragment, Err: err}
	}

	// goccy 의 숫자 스캐너는 01, 1. 같은 표기도 통과시킨다. 표준 문법으로 한 번 더 읽는다.
	tree, duplicated, err := decodeStrict(data)
	if err != nil {
		return nil, &ParseError{Fragment: fragment, Err: err}
	}

	var buf bytes.Buffer
	if duplicated {
		if err := tree.encode(&buf); err != nil {
			return nil, &ParseError{Fragment: fragment, Err: err}
		}
		return json.RawMessage(buf.Bytes()), nil
	}
	if err := json.Compact(&buf, data); err != nil {
		return nil, &ParseError{Fragment: fragment, Err: err}
	}
	return json.RawMessage(buf.Bytes()), nil
}

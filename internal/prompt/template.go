package prompt

import (
	"fmt"
	"strings"
)

// segment 은 템플릿의 리터럴 조각 또는 {key} 자리다.
type segment struct {
	text        string
	placeholder bool
}

// parseTemplate 은 템플릿을 조각으로 나눈다. {{ 와 }} 는 중괄호 리터럴이다.
func parseTemplate(template string) ([]segment, error) {
	var (
		segments []segment
		literal  strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{text: literal.String()})
			literal.Reset()
		}
	}

	rest := template
	for rest != "" {
		open := strings.IndexAny(rest, "{}")
		if open < 0 {
			literal.WriteString(rest)
			break
		}
		literal.WriteString(rest[:open])
		brace, tail := rest[open], rest[open+1:]

		if strings.HasPrefix(tail, string(brace)) {
			literal.WriteByte(brace)
			rest = tail[1:]
			continue
		}
		if brace == '}' {
			return nil, fmt.Errorf("unexpected '}' at offset %d", len(template)-len(rest)+open)
		}

		key, after, ok := strings.Cut(tail, "}")
		if !ok {
			return nil, fmt.Errorf("unclosed '{' at offset %d", len(template)-len(rest)+open)
		}
		flush()
		segments = append(segments, segment{text: key, placeholder: true})
		rest = after
	}
	flush()
	return segments, nil
}

// FormatTemplate 은 {key} 자리를 values 로 치환한다.
// 치환된 값은 다시 해석하지 않으므로 값 안의 중괄호는 그대로 남는다.
func FormatTemplate(template string, values map[string]string) (string, error) {
	segments, err := parseTemplate(template)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var out strings.Builder
	out.Grow(len(template))
	for _, seg := range segments {
		if !seg.placeholder {
			out.WriteString(seg.text)
			continue
		}
		value, ok := values[seg.text]
		if !ok {
			return "", fmt.Errorf("missing template value for %q", seg.text)
		}
		out.WriteString(value)
	}
	return out.String(), nil
}

// requireStatic 은 치환 자리가 없는 텍스트인지 검사한다. system 필드에 쓴다.
func requireStatic(name string, text string) error {
	segments, err := parseTemplate(text)
	if err != nil {
		return fmt.Errorf("%s: invalid system prompt: %w", name, err)
	}
	for _, seg := range segments {
		if seg.placeholder {
			return fmt.Errorf("%s: system prompt must not contain template variables %q", name, seg.text)
		}
	}
	return nil
}

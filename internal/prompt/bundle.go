package prompt

import (
	"fmt"
	"io/fs"
)

// Bundle: 한 도메인의 YAML 프롬프트 모음입니다. label 은 에러 메시지에 쓰입니다.
type Bundle struct {
	label   string
	prompts map[string]map[string]string
}

// LoadBundle: fs 내 dir 디렉터리의 YAML 프롬프트들을 로드하여 Bundle로 반환합니다.
// 프롬프트 파일이 하나도 없으면 에러입니다.
func LoadBundle(fsys fs.FS, dir string, label string) (*Bundle, error) {
	loaded, err := loadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("%s prompts: no yaml files in %s", label, dir)
	}
	return &Bundle{label: label, prompts: loaded}, nil
}

// Field: name 프롬프트의 key 필드를 조회합니다.
func (b *Bundle) Field(name string, key string) (string, error) {
	if b == nil || b.prompts == nil {
		return "", fmt.Errorf("prompts not initialized")
	}
	data, ok := b.prompts[name]
	if !ok {
		return "", fmt.Errorf("%s prompt not found: %s", b.label, name)
	}
	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%s prompt field missing: %s.%s", b.label, name, key)
	}
	return value, nil
}

// Render: name 프롬프트의 key 필드를 템플릿으로 보고 values 로 치환합니다.
func (b *Bundle) Render(name string, key string, values map[string]string) (string, error) {
	template, err := b.Field(name, key)
	if err != nil {
		return "", err
	}
	rendered, err := FormatTemplate(template, values)
	if err != nil {
		return "", fmt.Errorf("format %s.%s: %w", name, key, err)
	}
	return rendered, nil
}

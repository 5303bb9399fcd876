package oracle

import (
	"embed"
	"fmt"
	"strings"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/prompt"
)

//go:embed prompts/*.yml
var promptsFS embed.FS

// Prompts 는 오라클 프롬프트 모음이다.
type Prompts struct {
	bundle *prompt.Bundle
}

// NewPrompts 는 내장된 오라클 프롬프트를 로드한다.
func NewPrompts() (*Prompts, error) {
	bundle, err := prompt.LoadBundle(promptsFS, "prompts", "oracle")
	if err != nil {
		return nil, fmt.Errorf("load oracle prompts: %w", err)
	}
	return &Prompts{bundle: bundle}, nil
}

// Options 는 선택지 생성 프롬프트를 반환한다.
func (p *Prompts) Options(question string) (string, error) {
	return p.bundle.Render("options", "user", map[string]string{"question": question})
}

// Probabilities 는 확률 예측 프롬프트를 반환한다.
// 선택지는 한 줄에 하나씩 원문 그대로 나열한다.
func (p *Prompts) Probabilities(question string, options []string) (string, error) {
	rendered, err := p.bundle.Field("probabilities", "empty_options")
	if err != nil {
		return "", err
	}
	if len(options) > 0 {
		lines := make([]string, 0, len(options))
		for _, option := range options {
			lines = append(lines, `- "`+option+`"`)
		}
		rendered = strings.Join(lines, "\n")
	}

	return p.bundle.Render("probabilities", "user", map[string]string{
		"question": question,
		"options":  rendered,
	})
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/llm"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/oracle"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/usage"
)

// Client가 oracle.Backend 를 구현하는지 컴파일 타임 확인
var _ oracle.Backend = (*Client)(nil)

var (
	// ErrMissingAPIKey 는 Gemini API 키가 없을 때 반환된다.
	ErrMissingAPIKey = errors.New("missing gemini api key")
	// ErrInvalidModel 는 모델 이름이 비어 있을 때 반환된다.
	ErrInvalidModel = errors.New("invalid model")
)

// Client 는 Gemini 호출을 담당한다.
// API 키마다 genai.Client 를 하나씩 만들어 라운드 로빈으로 사용한다.
type Client struct {
	cfg           config.GeminiConfig
	usageRecorder *usage.Recorder
	mu            sync.Mutex
	clients       []*genai.Client
	next          int
}

// NewClient 는 Gemini 클라이언트를 생성한다. 키가 없으면 ErrMissingAPIKey 를 반환한다.
func NewClient(ctx context.Context, cfg *config.Config, usageRecorder *usage.Recorder) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if len(cfg.Gemini.APIKeys) == 0 {
		return nil, ErrMissingAPIKey
	}

	timeout := time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second
	clients := make([]*genai.Client, 0, len(cfg.Gemini.APIKeys))
	for _, key := range cfg.Gemini.APIKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{
				Timeout: genai.Ptr(timeout),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		clients = append(clients, client)
	}

	return &Client{
		cfg:           cfg.Gemini,
		usageRecorder: usageRecorder,
		clients:       clients,
	}, nil
}

// Generate 는 지정한 모델로 프롬프트를 한 번 호출한다.
func (c *Client) Generate(ctx context.Context, model string, prompt string) llm.Result {
	if strings.TrimSpace(model) == "" {
		return llm.Failure(model, ErrInvalidModel)
	}
	client, err := c.selectClient()
	if err != nil {
		return llm.Failure(model, err)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	response, err := client.Models.GenerateContent(ctx, model, contents, c.buildGenerateConfig(model))
	if err != nil {
		return llm.Failure(model, fmt.Errorf("generate content: %w", err))
	}

	textParts, _ := extractParts(response)
	usage := extractUsage(response)
	c.usageRecorder.Record(ctx, model, usage)
	return llm.Success(model, strings.Join(textParts, ""), usage)
}

// KeyCount 는 구성된 API 키 수를 반환한다.
func (c *Client) KeyCount() int {
	return len(c.clients)
}

func (c *Client) selectClient() (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.clients) == 0 {
		return nil, ErrMissingAPIKey
	}
	client := c.clients[c.next%len(c.clients)]
	c.next++
	return client, nil
}

func (c *Client) buildGenerateConfig(model string) *genai.GenerateContentConfig {
	temperature := float32(c.cfg.TemperatureForModel(model))
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(c.cfg.MaxOutputTokens),
	}

	if !c.cfg.SupportsThinkingLevel(model) {
		return config
	}
	if thinkingLevel, ok := normalizeThinkingLevel(c.cfg.ThinkingLevel); ok {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: thinkingLevel,
		}
	}
	return config
}

func normalizeThinkingLevel(level string) (genai.ThinkingLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return genai.ThinkingLevelLow, true
	case "medium":
		return genai.ThinkingLevelMedium, true
	case "high":
		return genai.ThinkingLevelHigh, true
	case "minimal":
		return genai.ThinkingLevelMinimal, true
	default:
		return "", false
	}
}

func extractParts(response *genai.GenerateContentResponse) ([]string, []string) {
	if response == nil || len(response.Candidates) == 0 {
		return nil, nil
	}
	content := response.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return nil, nil
	}

	texts := make([]string, 0)
	thoughts := make([]string, 0)
	for _, part := range content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			thoughts = append(thoughts, part.Text)
			continue
		}
		texts = append(texts, part.Text)
	}
	return texts, thoughts
}

func extractUsage(response *genai.GenerateContentResponse) llm.Usage {
	if response == nil || response.UsageMetadata == nil {
		return llm.Usage{}
	}
	usage := response.UsageMetadata
	return llm.Usage{
		InputTokens:     int(usage.PromptTokenCount),
		OutputTokens:    int(usage.CandidatesTokenCount) + int(usage.ThoughtsTokenCount),
		TotalTokens:     int(usage.TotalTokenCount),
		ReasoningTokens: int(usage.ThoughtsTokenCount),
		CachedTokens:    int(usage.CachedContentTokenCount),
	}
}

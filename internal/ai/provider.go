package ai

import (
	"context"
	"fmt"
	"net/http"
)

// Message 表示一条对话消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage 记录一次调用消耗的 token 数。
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Response 是一次补全调用的结果。
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// StreamChunk 是流式回复的一个增量片段。
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// Options 控制单次调用的模型参数，零值走 provider 默认。
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider 抽象 LLM 补全调用，便于测试注入 mock。
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (Response, error)
	Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, error)
}

// Config 选择具体 provider 及其参数。
type Config struct {
	Provider string       `yaml:"provider" json:"provider"`
	OpenAI   OpenAIConfig `yaml:"openai" json:"openai"`
}

// New 按配置构造 Provider，未知取值视为配置错误。
func New(cfg Config, httpClient *http.Client) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg.OpenAI, httpClient), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

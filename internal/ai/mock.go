package ai

import (
	"context"
	"encoding/json"
	"strings"
)

// MockProvider 返回确定性回复，用于本地开发与测试环境。
// 当系统提示要求 JSON 输出时返回固定的诊断 JSON，否则返回固定文案。
type MockProvider struct{}

// NewMockProvider 创建 mock。
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Complete(_ context.Context, messages []Message, opts Options) (Response, error) {
	content := "Continue acompanhando suas aplicações e mantenha o ritmo de follow-ups."
	if wantsJSON(messages) {
		payload, _ := json.Marshal(map[string]string{
			"diagnosis": "Você está em um momento de decisão e os dados que informou apontam um padrão claro.",
			"pattern":   "Os sinais informados se conectam entre si e indicam onde está o verdadeiro gargalo.",
			"risk":      "Adiar a decisão tende a custar mais que tomá-la com critério.",
			"nextStep":  "Reserve uma hora esta semana para listar critérios objetivos e agir sobre o primeiro deles.",
		})
		content = string(payload)
	}
	model := opts.Model
	if model == "" {
		model = "mock"
	}
	return Response{
		Content: content,
		Model:   model,
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 20},
	}, nil
}

func (m *MockProvider) Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, error) {
	resp, err := m.Complete(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan StreamChunk, 2)
	out <- StreamChunk{Content: resp.Content}
	out <- StreamChunk{Done: true}
	close(out)
	return out, nil
}

func wantsJSON(messages []Message) bool {
	for _, msg := range messages {
		if msg.Role == "system" && strings.Contains(msg.Content, "JSON") {
			return true
		}
	}
	return false
}

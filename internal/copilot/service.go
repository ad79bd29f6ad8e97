package copilot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"career-copilot/internal/ai"
	"career-copilot/internal/application"
	"career-copilot/internal/model"
	"career-copilot/internal/subscription"
)

// ErrQuotaExceeded 表示当天免费提问额度已用完。
var ErrQuotaExceeded = errors.New("copilot quota exceeded")

// Store 定义会话所需的数据访问。
type Store interface {
	ListApplications(ctx context.Context, userID string) ([]model.Application, error)
	ListInsights(ctx context.Context, userID string) ([]model.Insight, error)
	RecordAIUsage(ctx context.Context, usage model.AIUsage) error
}

// Quota 定义配额判定接口。
type Quota interface {
	CanUseCopilot(ctx context.Context, userID string) (subscription.QuotaResult, error)
	RecordCopilot(ctx context.Context, userID string) error
}

// Reply 是一次提问的结果。
type Reply struct {
	Answer string `json:"answer"`
	Source string `json:"source"` // guard | redirect | direct | ai
}

// Service 实现职业话题限定的问答：安全校验、话题检查、配额、
// 指标类问题直答，其余走 LLM。
type Service struct {
	provider ai.Provider
	store    Store
	quota    Quota
}

// NewService 创建 copilot 服务。
func NewService(provider ai.Provider, store Store, quota Quota) *Service {
	return &Service{provider: provider, store: store, quota: quota}
}

// Ask 处理一条用户消息。安全拦截与跑题重定向不消耗配额，
// 直答与 LLM 回答都计数。
func (s *Service) Ask(ctx context.Context, userID, message string) (Reply, error) {
	validation := ai.ValidateInput(message)
	if validation.Blocked {
		return Reply{Answer: validation.Reason, Source: "guard"}, nil
	}

	topic := ai.CheckTopic(validation.Sanitized)
	if !topic.OnTopic {
		return Reply{Answer: topic.SuggestedResponse, Source: "redirect"}, nil
	}

	quota, err := s.quota.CanUseCopilot(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if !quota.Allowed {
		return Reply{}, ErrQuotaExceeded
	}

	apps, err := s.store.ListApplications(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("load applications: %w", err)
	}
	metrics := application.ComputeMetrics(apps)

	if answer, ok := directAnswer(validation.Sanitized, metrics); ok {
		if err := s.quota.RecordCopilot(ctx, userID); err != nil {
			return Reply{}, err
		}
		return Reply{Answer: answer, Source: "direct"}, nil
	}

	insights, err := s.store.ListInsights(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("load insights: %w", err)
	}

	uc := UserContext{Metrics: metrics, Apps: apps, Insights: insights}
	resp, err := s.provider.Complete(ctx, []ai.Message{
		{Role: "system", Content: BuildSystemPrompt(uc)},
		{Role: "user", Content: validation.Sanitized},
	}, ai.Options{Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		return Reply{}, fmt.Errorf("copilot completion: %w", err)
	}
	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return Reply{}, fmt.Errorf("copilot completion: empty reply")
	}

	if err := s.quota.RecordCopilot(ctx, userID); err != nil {
		return Reply{}, err
	}
	if err := s.store.RecordAIUsage(ctx, model.AIUsage{
		UserID:           userID,
		Feature:          "copilot",
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}); err != nil {
		// 台账失败不影响回答
		log.Printf("record copilot usage: %v", err)
	}

	return Reply{Answer: answer, Source: "ai"}, nil
}

package hero

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"career-copilot/internal/ai"
	"career-copilot/internal/model"
)

// Message 是英雄区最终展示的文案。
type Message struct {
	Type   ContextType `json:"type"`
	Text   string      `json:"text"`
	Source string      `json:"source"` // static | ai | tip
}

// UsageRecorder 记录成功的 AI 调用，供用量台账使用。
type UsageRecorder interface {
	RecordAIUsage(ctx context.Context, usage model.AIUsage) error
}

// Builder 将检测到的上下文渲染成消息。需要 AI 的上下文走缓存与
// LLM，失败时回落到静态模板，因此 Build 永不返回错误。
type Builder struct {
	provider ai.Provider
	cache    *Cache
	usage    UsageRecorder
	now      func() time.Time
}

// NewBuilder 创建消息构建器，usage 可为 nil（不记台账）。
func NewBuilder(provider ai.Provider, cache *Cache, usage UsageRecorder) *Builder {
	return &Builder{provider: provider, cache: cache, usage: usage, now: time.Now}
}

// 需要 AI 生成文案的上下文及各自的静态兜底模板。
var fallbackTemplates = map[ContextType]string{
	ContextProposalReceived:  "Você recebeu uma proposta de %s! Vale analisar com calma antes de decidir.",
	ContextInterviewSoon:     "Você tem entrevista em andamento com %s. Reserve um tempo para se preparar.",
	ContextInterviewFeedback: "Sua simulação de entrevista para %s foi concluída. Confira o feedback e pratique os pontos fracos.",
	ContextNeedsFollowup:     "Sua candidatura na %s está sem resposta há %d dias. Que tal um follow-up?",
}

func staticMessage(hc Context) (string, bool) {
	switch hc.Type {
	case ContextPendingInsight:
		return "Seu diagnóstico de carreira está pronto. Veja o que os seus dados revelam.", true
	case ContextStaleApps:
		return fmt.Sprintf("Você tem %d candidaturas paradas há mais de 2 semanas. Hora de revisar ou arquivar.", hc.StaleCount), true
	case ContextLowActivity:
		return "Nenhuma candidatura nova na última semana. Consistência é o que mais move processos.", true
	case ContextNewUser:
		return "Bem-vindo! Registre sua primeira candidatura ou responda o diagnóstico para começar.", true
	}
	return "", false
}

func fallbackMessage(hc Context) string {
	tpl := fallbackTemplates[hc.Type]
	switch hc.Type {
	case ContextNeedsFollowup:
		return fmt.Sprintf(tpl, hc.Company, hc.DaysSinceUpdate)
	case ContextInterviewFeedback:
		return fmt.Sprintf(tpl, hc.Cargo)
	default:
		return fmt.Sprintf(tpl, hc.Company)
	}
}

func aiPrompt(hc Context) string {
	switch hc.Type {
	case ContextProposalReceived:
		return fmt.Sprintf("O usuário recebeu uma proposta da empresa %s para a vaga %s. Escreva uma mensagem curta (máximo 2 frases) parabenizando e sugerindo avaliar a proposta com critérios claros.", hc.Company, hc.Title)
	case ContextInterviewSoon:
		return fmt.Sprintf("O usuário tem uma entrevista em andamento na empresa %s para a vaga %s. Escreva uma mensagem curta (máximo 2 frases) motivando e sugerindo um ponto de preparação.", hc.Company, hc.Title)
	case ContextInterviewFeedback:
		return fmt.Sprintf("O usuário concluiu uma simulação de entrevista para o cargo %s. Escreva uma mensagem curta (máximo 2 frases) convidando a revisar o feedback recebido.", hc.Cargo)
	case ContextNeedsFollowup:
		return fmt.Sprintf("A candidatura do usuário na empresa %s está sem atualização há %d dias. Escreva uma mensagem curta (máximo 2 frases) sugerindo um follow-up educado.", hc.Company, hc.DaysSinceUpdate)
	}
	return ""
}

const messageSystemPrompt = "Você escreve mensagens curtas e motivadoras para um painel de busca de emprego. Responda em português brasileiro, tom próximo e direto, sem emojis, sem markdown, no máximo 2 frases."

func cacheKey(hc Context) string {
	parts := []string{string(hc.Type)}
	if hc.Company != "" {
		parts = append(parts, hc.Company)
	}
	if hc.Cargo != "" {
		parts = append(parts, hc.Cargo)
	}
	return strings.Join(parts, "|")
}

// Build 渲染上下文对应的消息。
func (b *Builder) Build(ctx context.Context, userID string, hc Context) Message {
	if text, ok := staticMessage(hc); ok {
		return Message{Type: hc.Type, Text: text, Source: "static"}
	}

	if hc.Type == ContextActiveSummary {
		text := fmt.Sprintf("Você acompanha %d candidaturas (%d ativas). Dica: %s",
			hc.TotalApps, hc.ActiveApps, TipFor(b.now()))
		return Message{Type: hc.Type, Text: text, Source: "tip"}
	}

	key := cacheKey(hc)
	if cached, ok := b.cache.Get(key); ok {
		return Message{Type: hc.Type, Text: cached, Source: "ai"}
	}

	text, err := b.generate(ctx, userID, hc)
	if err != nil {
		log.Printf("hero message generation failed, using fallback: %v", err)
		return Message{Type: hc.Type, Text: fallbackMessage(hc), Source: "static"}
	}

	b.cache.Set(key, text)
	return Message{Type: hc.Type, Text: text, Source: "ai"}
}

func (b *Builder) generate(ctx context.Context, userID string, hc Context) (string, error) {
	resp, err := b.provider.Complete(ctx, []ai.Message{
		{Role: "system", Content: messageSystemPrompt},
		{Role: "user", Content: aiPrompt(hc)},
	}, ai.Options{Temperature: 0.8, MaxTokens: 150})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}

	if b.usage != nil {
		record := model.AIUsage{
			UserID:           userID,
			Feature:          "hero_message",
			Model:            resp.Model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
		if err := b.usage.RecordAIUsage(ctx, record); err != nil {
			log.Printf("record hero ai usage: %v", err)
		}
	}
	return text, nil
}

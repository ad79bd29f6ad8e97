package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"career-copilot/internal/ai"
	"career-copilot/internal/questionnaire"
)

// ErrParse 表示 LLM 回复不是合法 JSON。该错误不重试、不静默降级，
// 由路由层转为 502 提示用户重新提交。
var ErrParse = errors.New("parse llm response")

// 各类别给 LLM 的分析方向（是待验证的模式，不是结论）。
var categoryDescriptions = map[Category]string{
	CategoryMovementVsProgress:  "Padrão a investigar: possível desconexão entre o tempo/esforço investido e os resultados obtidos. Analise os dados para entender se há sinais de estagnação apesar de atividade.",
	CategoryWrongBottleneck:     "Padrão a investigar: o problema que o usuário acredita ter pode não ser o real gargalo. Use os dados informados para identificar onde está a real dificuldade.",
	CategoryLevelMismatch:       "Padrão a investigar: possível incompatibilidade entre o nível das vagas buscadas e a experiência atual. Analise senioridade e fase onde trava para entender.",
	CategoryInvisibleStagnation: "Padrão a investigar: situação de conforto que pode estar impedindo crescimento. Analise tempo na situação, urgência e objetivo para entender o cenário.",
	CategoryMisallocatedEffort:  "Padrão a investigar: energia sendo direcionada para uma mudança que pode precisar de mais planejamento. Considere urgência e tipo de transição desejada.",
}

// BuildUserContext 把问卷序列化成给 LLM 的上下文文本。纯函数，便于单测。
func BuildUserContext(a questionnaire.Answer) string {
	parts := []string{
		"Cargo: " + a.Cargo,
		"Senioridade: " + questionnaire.Label(questionnaire.SenioridadeLabels, a.Senioridade),
		"Área: " + questionnaire.Label(questionnaire.AreaLabels, a.Area),
		"Status: " + questionnaire.Label(questionnaire.StatusLabels, a.Status),
	}
	if a.TempoSituacao != "" {
		parts = append(parts, "Tempo nessa situação: "+questionnaire.Label(questionnaire.TempoLabels, a.TempoSituacao))
	}
	if a.Urgencia > 0 {
		parts = append(parts, fmt.Sprintf("Urgência para resolver: %d/5", a.Urgencia))
	}
	parts = append(parts, "Objetivo principal: "+questionnaire.ObjetivoLabels[a.Objetivo])

	if a.BloqueioDecisao != "" {
		parts = append(parts, "O que trava a decisão: "+questionnaire.Label(questionnaire.BloqueioDecisaoLabels, a.BloqueioDecisao))
	}
	if a.GargaloEntrevistas != "" {
		parts = append(parts, "Onde trava nas entrevistas: "+questionnaire.Label(questionnaire.GargaloLabels, a.GargaloEntrevistas))
	}
	if a.FaseMaxima != "" {
		parts = append(parts, "Fase máxima que costuma chegar: "+questionnaire.Label(questionnaire.FaseMaximaLabels, a.FaseMaxima))
	}
	if a.SinaisAlavanca != "" {
		parts = append(parts, "Sinal de alavanca: "+questionnaire.Label(questionnaire.SinaisAlavancaLabels, a.SinaisAlavanca))
	}
	if a.TipoPivot != "" {
		parts = append(parts, "Tipo de mudança desejada: "+questionnaire.Label(questionnaire.TipoPivotLabels, a.TipoPivot))
	}
	if a.ForcasTransferiveis != "" {
		parts = append(parts, "Forças transferíveis: "+a.ForcasTransferiveis)
	}
	if a.DecisaoEvitando != "" {
		parts = append(parts, "Decisão que está evitando: "+a.DecisaoEvitando)
	}
	return strings.Join(parts, "\n")
}

// BuildSystemPrompt 构造按类别限定的系统提示。纯函数。
func BuildSystemPrompt(category Category) string {
	return fmt.Sprintf(`Você é um analista de carreira experiente. Você está dando feedback DIRETO para o usuário que preencheu o formulário — fale com ele em segunda pessoa ("você").

CATEGORIA DO INSIGHT: %s
DIREÇÃO DA ANÁLISE: %s

REGRAS FUNDAMENTAIS:
- Fale diretamente com o usuário usando "você" (não "o profissional", "o candidato", etc.)
- Use APENAS as informações que ele forneceu — não assuma comportamentos ou ações não mencionados
- Seja específico ao contexto dele (cargo, área, senioridade, situação)
- Evite frases genéricas de coaching ("você é capaz", "acredite em si")
- Se algo não foi informado, não invente — foque no que você sabe

TOM:
- Direto e respeitoso
- Honesto sobre riscos, sem ser alarmista
- Prático, não motivacional

FORMATO DE RESPOSTA (JSON):
{
  "diagnosis": "Descreva a situação atual em 2-3 frases, falando diretamente com o usuário (ex: 'Você está...')",
  "pattern": "Explique o padrão que você observa, conectando os pontos de forma lógica",
  "risk": "Aponte um risco real e específico, em 1-2 frases diretas",
  "nextStep": "Sugira 1-2 ações concretas para as próximas 1-2 semanas"
}

IMPORTANTE:
- Português brasileiro
- Sem emojis
- SEMPRE use "você", nunca terceira pessoa`,
		CategoryLabels[category], categoryDescriptions[category])
}

// 允许 LLM 把 JSON 包在 markdown 代码块里，取第一个对象字面量。
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type llmDiagnostic struct {
	Diagnosis string `json:"diagnosis"`
	Pattern   string `json:"pattern"`
	Risk      string `json:"risk"`
	NextStep  string `json:"nextStep"`
}

// GenerateLLM 走 LLM 路径生成诊断洞察，连同原始应答（模型名、
// token 用量）一起返回供台账记录。回复必须是符合约定的 JSON，
// 解析失败返回包装了 ErrParse 的错误。
func GenerateLLM(ctx context.Context, provider ai.Provider, a questionnaire.Answer) (Diagnostic, ai.Response, error) {
	category := Classify(a)

	resp, err := provider.Complete(ctx, []ai.Message{
		{Role: "system", Content: BuildSystemPrompt(category)},
		{Role: "user", Content: "Analise este profissional e gere o insight:\n\n" + BuildUserContext(a)},
	}, ai.Options{Temperature: 0.7, MaxTokens: 800})
	if err != nil {
		return Diagnostic{}, ai.Response{}, fmt.Errorf("llm complete: %w", err)
	}

	raw := jsonObjectPattern.FindString(resp.Content)
	if raw == "" {
		return Diagnostic{}, resp, fmt.Errorf("%w: no JSON object in reply", ErrParse)
	}

	var parsed llmDiagnostic
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Diagnostic{}, resp, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if parsed.Diagnosis == "" || parsed.NextStep == "" {
		return Diagnostic{}, resp, fmt.Errorf("%w: required fields missing", ErrParse)
	}

	return Diagnostic{
		Type:       category,
		TypeLabel:  CategoryLabels[category],
		Diagnosis:  parsed.Diagnosis,
		Pattern:    parsed.Pattern,
		Risk:       parsed.Risk,
		NextStep:   parsed.NextStep,
		InputHash:  InputHash(a),
		Confidence: Confide(a),
	}, resp, nil
}

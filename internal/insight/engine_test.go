package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"career-copilot/internal/ai"
	"career-copilot/internal/questionnaire"
)

func offerAnswer() questionnaire.Answer {
	return questionnaire.Answer{
		Cargo:           "Product Manager",
		Senioridade:     "senior",
		Area:            "produto",
		Status:          "empregado",
		TempoSituacao:   "6_12_meses",
		Urgencia:        5,
		Objetivo:        questionnaire.ObjectiveEvaluateOffer,
		BloqueioDecisao: "salario",
	}
}

func TestClassifyFollowsObjectiveTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		answer questionnaire.Answer
		want   Category
	}{
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveEvaluateOffer}, CategoryMovementVsProgress},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveMoreInterviews}, CategoryWrongBottleneck},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveAdvanceProcess}, CategoryLevelMismatch},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveNegotiateStay, SinaisAlavanca: "nenhum"}, CategoryInvisibleStagnation},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveNegotiateStay, SinaisAlavanca: "mercado"}, CategoryInvisibleStagnation},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveNegotiateStay, SinaisAlavanca: "performance"}, CategoryMovementVsProgress},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveSwitchArea}, CategoryMisallocatedEffort},
		{questionnaire.Answer{Objetivo: questionnaire.ObjectiveOther}, CategoryInvisibleStagnation},
		{questionnaire.Answer{Objetivo: questionnaire.Objective("desconhecido")}, CategoryInvisibleStagnation},
	}
	for _, tc := range cases {
		if got := Classify(tc.answer); got != tc.want {
			t.Fatalf("Classify(%s/%s): got %s, want %s", tc.answer.Objetivo, tc.answer.SinaisAlavanca, got, tc.want)
		}
	}
}

// 对应端到端场景：avaliar_proposta + empregado + urgência 5 + bloqueio salario。
func TestOfferScenarioYieldsMovementHighConfidence(t *testing.T) {
	t.Parallel()

	a := offerAnswer()
	d := GenerateTemplate(a)

	if d.Type != CategoryMovementVsProgress {
		t.Fatalf("expected movimento_vs_progresso, got %s", d.Type)
	}
	if d.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence (urgência ≥4 + sinal secundário), got %s", d.Confidence)
	}

	a.Urgencia = 2
	if got := Confide(a); got != ConfidenceMedium {
		t.Fatalf("expected medium when only secondary signal agrees, got %s", got)
	}
}

func TestConfideTiers(t *testing.T) {
	t.Parallel()

	base := questionnaire.Answer{Objetivo: questionnaire.ObjectiveMoreInterviews, Status: "empregado", TempoSituacao: "menos_3_meses"}

	low := base
	low.Urgencia = 2
	low.GargaloEntrevistas = "nao_sei" // nao_sei 不算一致信号
	if got := Confide(low); got != ConfidenceLow {
		t.Fatalf("expected low, got %s", got)
	}

	mediumUrgent := base
	mediumUrgent.Urgencia = 5
	mediumUrgent.GargaloEntrevistas = "nao_sei"
	if got := Confide(mediumUrgent); got != ConfidenceMedium {
		t.Fatalf("expected medium for urgency without signals, got %s", got)
	}

	high := base
	high.Urgencia = 4
	high.Status = "desempregado"
	if got := Confide(high); got != ConfidenceHigh {
		t.Fatalf("expected high, got %s", got)
	}
}

func TestInputHashDeterministicAndSensitive(t *testing.T) {
	t.Parallel()

	a := offerAnswer()
	h1 := InputHash(a)
	h2 := InputHash(a)
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %s vs %s", h1, h2)
	}

	normalized := a
	normalized.Cargo = "  product manager "
	if InputHash(normalized) != h1 {
		t.Fatal("expected hash to normalize cargo case and spaces")
	}

	changed := a
	changed.Urgencia = 1
	if InputHash(changed) == h1 {
		t.Fatal("expected hash to change with input")
	}
}

func TestGenerateTemplateFillsLabels(t *testing.T) {
	t.Parallel()

	d := GenerateTemplate(offerAnswer())
	if !strings.Contains(d.Diagnosis, "Product Manager") {
		t.Fatalf("expected cargo in diagnosis, got %q", d.Diagnosis)
	}
	if !strings.Contains(d.Pattern, "salário/pacote") {
		t.Fatalf("expected follow-up label in pattern, got %q", d.Pattern)
	}
	if d.InputHash == "" || d.TypeLabel == "" {
		t.Fatal("expected hash and type label to be set")
	}
}

func TestGenerateLegacyAdjustments(t *testing.T) {
	t.Parallel()

	a := offerAnswer()
	a.Senioridade = "pleno"
	out := GenerateLegacy(a)

	if !strings.HasPrefix(out.NextSteps[0], "URGENTE: ") {
		t.Fatalf("expected urgency prefix on first step, got %q", out.NextSteps[0])
	}
	if out.Risks[0] != "Pressão por urgência pode levar a decisões subótimas" {
		t.Fatalf("expected urgency risk prepended, got %q", out.Risks[0])
	}
	last := out.NextSteps[len(out.NextSteps)-1]
	if last != "Busque mentoria de alguém mais senior na área" {
		t.Fatalf("expected mentoria step for pleno, got %q", last)
	}

	lead := offerAnswer()
	lead.Senioridade = "exec"
	lead.Urgencia = 1
	leadOut := GenerateLegacy(lead)
	if leadOut.Why[0] != "Sua posição de liderança traz oportunidades únicas" {
		t.Fatalf("expected leadership why prepended, got %q", leadOut.Why[0])
	}

	unknown := offerAnswer()
	unknown.Objetivo = questionnaire.ObjectiveAdvanceProcess
	if got := GenerateLegacy(unknown).Recommendation; got != legacyTemplates[questionnaire.ObjectiveOther].Recommendation {
		t.Fatalf("expected fallback to outro template, got %q", got)
	}
}

type stubProvider struct {
	response string
	err      error
	calls    int
	lastMsgs []ai.Message
}

func (s *stubProvider) Complete(_ context.Context, messages []ai.Message, _ ai.Options) (ai.Response, error) {
	s.calls++
	s.lastMsgs = messages
	if s.err != nil {
		return ai.Response{}, s.err
	}
	return ai.Response{Content: s.response, Model: "stub", Usage: ai.Usage{PromptTokens: 5, CompletionTokens: 9}}, nil
}

func (s *stubProvider) Stream(context.Context, []ai.Message, ai.Options) (<-chan ai.StreamChunk, error) {
	ch := make(chan ai.StreamChunk)
	close(ch)
	return ch, nil
}

func TestGenerateLLMParsesReply(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		response: "```json\n{\"diagnosis\":\"Você está decidindo sob pressão.\",\"pattern\":\"Sinais apontam critérios difusos.\",\"risk\":\"Decidir só por salário.\",\"nextStep\":\"Defina 3 critérios.\"}\n```",
	}

	d, resp, err := GenerateLLM(context.Background(), provider, offerAnswer())
	if err != nil {
		t.Fatalf("GenerateLLM error: %v", err)
	}
	if d.Type != CategoryMovementVsProgress {
		t.Fatalf("expected category from table, got %s", d.Type)
	}
	if d.Diagnosis != "Você está decidindo sob pressão." {
		t.Fatalf("unexpected diagnosis %q", d.Diagnosis)
	}
	if resp.Usage.CompletionTokens != 9 {
		t.Fatalf("expected usage propagated, got %+v", resp.Usage)
	}
	if resp.Model != "stub" {
		t.Fatalf("expected model name propagated for the usage ledger, got %q", resp.Model)
	}
	if len(provider.lastMsgs) != 2 || provider.lastMsgs[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", provider.lastMsgs)
	}
	if !strings.Contains(provider.lastMsgs[1].Content, "Product Manager") {
		t.Fatal("expected user context in prompt")
	}
}

func TestGenerateLLMParseFailureIsFatal(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{response: "desculpe, não consigo gerar JSON agora"}
	_, _, err := GenerateLLM(context.Background(), provider, offerAnswer())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected no retry, got %d calls", provider.calls)
	}

	provider = &stubProvider{response: `{"diagnosis":"","pattern":"x","risk":"y","nextStep":""}`}
	if _, _, err := GenerateLLM(context.Background(), provider, offerAnswer()); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse on missing fields, got %v", err)
	}
}

func TestBuildUserContextIncludesOnlyPopulatedFollowUp(t *testing.T) {
	t.Parallel()

	ctx := BuildUserContext(offerAnswer())
	if !strings.Contains(ctx, "O que trava a decisão: salário/pacote") {
		t.Fatalf("expected bloqueio line, got %q", ctx)
	}
	if strings.Contains(ctx, "Onde trava nas entrevistas") {
		t.Fatal("did not expect gargalo line for offer objective")
	}
}

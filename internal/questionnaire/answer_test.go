package questionnaire

import "testing"

func validAnswer() Answer {
	return Answer{
		Cargo:           "Engenheiro de Software",
		Senioridade:     "senior",
		Area:            "tech",
		Status:          "empregado",
		TempoSituacao:   "mais_1_ano",
		Urgencia:        3,
		Objetivo:        ObjectiveEvaluateOffer,
		BloqueioDecisao: "salario",
	}
}

func TestValidateAcceptsWellFormedAnswer(t *testing.T) {
	t.Parallel()

	if err := validAnswer().Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidateRequiresExactlyOneFollowUp(t *testing.T) {
	t.Parallel()

	a := validAnswer()
	a.BloqueioDecisao = ""
	if err := a.Validate(); err == nil {
		t.Fatal("expected error when follow-up is missing")
	}

	a = validAnswer()
	a.GargaloEntrevistas = "sem_respostas"
	if err := a.Validate(); err == nil {
		t.Fatal("expected error when two follow-ups are populated")
	}
}

func TestValidateFollowUpMustMatchObjective(t *testing.T) {
	t.Parallel()

	a := validAnswer()
	a.BloqueioDecisao = ""
	a.TipoPivot = "mudanca_total" // 属于 mudar_area，不属于 avaliar_proposta
	if err := a.Validate(); err == nil {
		t.Fatal("expected error when follow-up belongs to another objective")
	}
}

func TestValidateRejectsOutOfRangeUrgencia(t *testing.T) {
	t.Parallel()

	for _, urgencia := range []int{0, 6, -1} {
		a := validAnswer()
		a.Urgencia = urgencia
		if err := a.Validate(); err == nil {
			t.Fatalf("expected error for urgencia %d", urgencia)
		}
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	t.Parallel()

	a := validAnswer()
	a.Senioridade = "principal"
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for unknown senioridade")
	}

	a = validAnswer()
	a.Objetivo = Objective("ficar_rico")
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for unknown objetivo")
	}
}

func TestFollowUpSelectsFieldByObjective(t *testing.T) {
	t.Parallel()

	cases := []struct {
		answer Answer
		want   string
	}{
		{Answer{Objetivo: ObjectiveEvaluateOffer, BloqueioDecisao: "salario"}, "salario"},
		{Answer{Objetivo: ObjectiveMoreInterviews, GargaloEntrevistas: "nao_sei"}, "nao_sei"},
		{Answer{Objetivo: ObjectiveAdvanceProcess, FaseMaxima: "tecnica"}, "tecnica"},
		{Answer{Objetivo: ObjectiveNegotiateStay, SinaisAlavanca: "mercado"}, "mercado"},
		{Answer{Objetivo: ObjectiveSwitchArea, TipoPivot: "mesmo_dominio"}, "mesmo_dominio"},
		{Answer{Objetivo: ObjectiveOther, DecisaoEvitando: "pedir demissão"}, "pedir demissão"},
	}
	for _, tc := range cases {
		if got := tc.answer.FollowUp(); got != tc.want {
			t.Fatalf("FollowUp for %s: got %q, want %q", tc.answer.Objetivo, got, tc.want)
		}
	}
}

func TestLabelFallsBackToKey(t *testing.T) {
	t.Parallel()

	if got := Label(AreaLabels, "tech"); got != "Tecnologia/Engenharia" {
		t.Fatalf("unexpected label: %s", got)
	}
	if got := Label(AreaLabels, "desconhecida"); got != "desconhecida" {
		t.Fatalf("expected fallback to key, got %s", got)
	}
}

package questionnaire

import (
	"fmt"
	"strings"
)

// Objective 表示问卷声明的主要目标，决定第四步的追问字段。
type Objective string

const (
	ObjectiveEvaluateOffer  Objective = "avaliar_proposta"
	ObjectiveMoreInterviews Objective = "mais_entrevistas"
	ObjectiveAdvanceProcess Objective = "avancar_processos"
	ObjectiveNegotiateStay  Objective = "negociar_salario"
	ObjectiveSwitchArea     Objective = "mudar_area"
	ObjectiveOther          Objective = "outro"
)

// Answer 表示一次完整的四步问卷提交。
// 固定映射 objective → 追问字段，校验时强制恰好填一个追问：
//   avaliar_proposta  → BloqueioDecisao
//   mais_entrevistas  → GargaloEntrevistas
//   avancar_processos → FaseMaxima
//   negociar_salario  → SinaisAlavanca
//   mudar_area        → TipoPivot
//   outro             → DecisaoEvitando
type Answer struct {
	Cargo         string    `json:"cargo"`
	Senioridade   string    `json:"senioridade"`
	Area          string    `json:"area"`
	Status        string    `json:"status"`
	TempoSituacao string    `json:"tempo_situacao"`
	Urgencia      int       `json:"urgencia"`
	Objetivo      Objective `json:"objetivo"`

	BloqueioDecisao    string `json:"bloqueio_decisao,omitempty"`
	GargaloEntrevistas string `json:"gargalo_entrevistas,omitempty"`
	FaseMaxima         string `json:"fase_maxima,omitempty"`
	SinaisAlavanca     string `json:"sinais_alavanca,omitempty"`
	TipoPivot          string `json:"tipo_pivot,omitempty"`
	DecisaoEvitando    string `json:"decisao_evitando,omitempty"`

	ForcasTransferiveis string `json:"forcas_transferiveis,omitempty"`
}

var (
	validSenioridade = map[string]struct{}{"junior": {}, "pleno": {}, "senior": {}, "lead": {}, "exec": {}}
	validArea        = map[string]struct{}{"tech": {}, "produto": {}, "design": {}, "negocios": {}, "outro": {}}
	validStatus      = map[string]struct{}{"empregado": {}, "desempregado": {}, "transicao": {}}
	validTempo       = map[string]struct{}{"menos_3_meses": {}, "3_6_meses": {}, "6_12_meses": {}, "mais_1_ano": {}}

	validBloqueio = map[string]struct{}{"salario": {}, "crescimento": {}, "estabilidade": {}, "comparacao": {}}
	validGargalo  = map[string]struct{}{"sem_respostas": {}, "rejeicoes_rapidas": {}, "poucas_respostas": {}, "nao_sei": {}}
	validFase     = map[string]struct{}{"triagem": {}, "tecnica": {}, "final": {}, "oferta": {}}
	validSinais   = map[string]struct{}{"performance": {}, "escopo": {}, "proposta_externa": {}, "mercado": {}, "nenhum": {}}
	validPivot    = map[string]struct{}{"mesmo_dominio": {}, "mudanca_total": {}}

	validObjetivo = map[Objective]struct{}{
		ObjectiveEvaluateOffer:  {},
		ObjectiveMoreInterviews: {},
		ObjectiveAdvanceProcess: {},
		ObjectiveNegotiateStay:  {},
		ObjectiveSwitchArea:     {},
		ObjectiveOther:          {},
	}
)

// FollowUp 返回当前目标对应的追问字段值（可能为空）。
func (a Answer) FollowUp() string {
	switch a.Objetivo {
	case ObjectiveEvaluateOffer:
		return a.BloqueioDecisao
	case ObjectiveMoreInterviews:
		return a.GargaloEntrevistas
	case ObjectiveAdvanceProcess:
		return a.FaseMaxima
	case ObjectiveNegotiateStay:
		return a.SinaisAlavanca
	case ObjectiveSwitchArea:
		return a.TipoPivot
	case ObjectiveOther:
		return a.DecisaoEvitando
	}
	return ""
}

// Validate 校验枚举取值、区间与"恰好一个追问字段"不变量。
func (a Answer) Validate() error {
	if strings.TrimSpace(a.Cargo) == "" || len(strings.TrimSpace(a.Cargo)) < 2 {
		return fmt.Errorf("cargo required")
	}
	if _, ok := validSenioridade[a.Senioridade]; !ok {
		return fmt.Errorf("invalid senioridade %q", a.Senioridade)
	}
	if _, ok := validArea[a.Area]; !ok {
		return fmt.Errorf("invalid area %q", a.Area)
	}
	if _, ok := validStatus[a.Status]; !ok {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	if _, ok := validTempo[a.TempoSituacao]; !ok {
		return fmt.Errorf("invalid tempo_situacao %q", a.TempoSituacao)
	}
	if a.Urgencia < 1 || a.Urgencia > 5 {
		return fmt.Errorf("urgencia must be 1-5, got %d", a.Urgencia)
	}
	if _, ok := validObjetivo[a.Objetivo]; !ok {
		return fmt.Errorf("invalid objetivo %q", a.Objetivo)
	}

	if err := a.validateFollowUps(); err != nil {
		return err
	}

	if len(a.ForcasTransferiveis) > 200 {
		return fmt.Errorf("forcas_transferiveis too long")
	}
	if len(a.DecisaoEvitando) > 300 {
		return fmt.Errorf("decisao_evitando too long")
	}
	return nil
}

func (a Answer) validateFollowUps() error {
	type followUp struct {
		name  string
		value string
		valid map[string]struct{}
		owner Objective
	}
	followUps := []followUp{
		{"bloqueio_decisao", a.BloqueioDecisao, validBloqueio, ObjectiveEvaluateOffer},
		{"gargalo_entrevistas", a.GargaloEntrevistas, validGargalo, ObjectiveMoreInterviews},
		{"fase_maxima", a.FaseMaxima, validFase, ObjectiveAdvanceProcess},
		{"sinais_alavanca", a.SinaisAlavanca, validSinais, ObjectiveNegotiateStay},
		{"tipo_pivot", a.TipoPivot, validPivot, ObjectiveSwitchArea},
		{"decisao_evitando", a.DecisaoEvitando, nil, ObjectiveOther},
	}

	populated := 0
	for _, f := range followUps {
		if f.value == "" {
			continue
		}
		populated++
		if f.owner != a.Objetivo {
			return fmt.Errorf("%s not allowed for objetivo %s", f.name, a.Objetivo)
		}
		if f.valid != nil {
			if _, ok := f.valid[f.value]; !ok {
				return fmt.Errorf("invalid %s %q", f.name, f.value)
			}
		}
	}
	if populated == 0 {
		return fmt.Errorf("follow-up answer required for objetivo %s", a.Objetivo)
	}
	if populated > 1 {
		return fmt.Errorf("exactly one follow-up answer expected, got %d", populated)
	}
	return nil
}

package questionnaire

// 展示标签，用于模板填充与 LLM 上下文构造。键为问卷枚举值。

var SenioridadeLabels = map[string]string{
	"junior": "Júnior",
	"pleno":  "Pleno",
	"senior": "Sênior",
	"lead":   "Lead/Tech Lead",
	"exec":   "Executivo/Diretor",
}

var AreaLabels = map[string]string{
	"tech":     "Tecnologia/Engenharia",
	"produto":  "Produto",
	"design":   "Design/UX",
	"negocios": "Negócios/Vendas",
	"outro":    "Outro",
}

var StatusLabels = map[string]string{
	"empregado":    "Empregado",
	"desempregado": "Desempregado",
	"transicao":    "Em transição",
}

var TempoLabels = map[string]string{
	"menos_3_meses": "menos de 3 meses",
	"3_6_meses":     "3 a 6 meses",
	"6_12_meses":    "6 a 12 meses",
	"mais_1_ano":    "mais de 1 ano",
}

var ObjetivoLabels = map[Objective]string{
	ObjectiveEvaluateOffer:  "Avaliar uma proposta",
	ObjectiveMoreInterviews: "Conseguir mais entrevistas",
	ObjectiveAdvanceProcess: "Avançar em processos",
	ObjectiveNegotiateStay:  "Negociar salário",
	ObjectiveSwitchArea:     "Mudar de área",
	ObjectiveOther:          "Outro objetivo",
}

var BloqueioDecisaoLabels = map[string]string{
	"salario":      "salário/pacote",
	"crescimento":  "escopo e crescimento",
	"estabilidade": "estabilidade vs risco",
	"comparacao":   "comparação com o atual",
}

var GargaloLabels = map[string]string{
	"sem_respostas":     "não recebe respostas",
	"rejeicoes_rapidas": "rejeições rápidas",
	"poucas_respostas":  "poucas oportunidades",
	"nao_sei":           "não sabe onde trava",
}

var FaseMaximaLabels = map[string]string{
	"triagem": "triagem inicial",
	"tecnica": "fase técnica",
	"final":   "fase final",
	"oferta":  "oferta/negociação",
}

var SinaisAlavancaLabels = map[string]string{
	"performance":      "performance comprovada",
	"escopo":           "aumento de escopo",
	"proposta_externa": "proposta externa",
	"mercado":          "defasagem de mercado",
	"nenhum":           "nenhum sinal claro",
}

var TipoPivotLabels = map[string]string{
	"mesmo_dominio": "mesmo domínio (ex: Tech para Produto)",
	"mudanca_total": "mudança total de área",
}

// Label 在映射缺失时回退到原始值，避免模板出现空洞。
func Label(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return key
}

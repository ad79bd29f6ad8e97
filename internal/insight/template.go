package insight

import (
	"fmt"

	"career-copilot/internal/questionnaire"
)

// 模板路径的静态文案，按类别固定，仅做标签替换。

type diagnosticTemplate struct {
	diagnosis string
	pattern   string
	risk      string
	nextStep  string
}

var diagnosticTemplates = map[Category]diagnosticTemplate{
	CategoryMovementVsProgress: {
		diagnosis: "Você está como %s (%s) em %s, avaliando uma decisão importante com urgência %d/5.",
		pattern:   "Há sinais de bastante movimento, mas os dados sugerem que nem todo esse esforço está virando progresso real. O que trava sua decisão — %s — costuma indicar critérios ainda não definidos.",
		risk:      "Decidir no impulso, ou adiar indefinidamente, tende a custar mais do que estruturar a decisão agora.",
		nextStep:  "Liste 3 critérios objetivos (além de salário) e compare suas opções contra eles nesta semana.",
	},
	CategoryWrongBottleneck: {
		diagnosis: "Você atua como %s (%s) em %s e busca mais entrevistas há %s.",
		pattern:   "O gargalo que você percebe — %s — pode não ser o gargalo real. Quando o funil seca nessa etapa, o problema costuma estar um passo antes: posicionamento e alvo das candidaturas.",
		risk:      "Continuar aplicando mais do mesmo tende a repetir o resultado e desgastar sua motivação.",
		nextStep:  "Escolha 3 vagas-alvo, personalize a abordagem para cada uma e meça a taxa de resposta em 2 semanas.",
	},
	CategoryLevelMismatch: {
		diagnosis: "Você é %s (%s) em %s e costuma travar na etapa de %s dos processos.",
		pattern:   "Travar sempre na mesma fase sugere desalinhamento entre o nível das vagas que você busca e o que seu perfil comunica hoje.",
		risk:      "Insistir em processos desalinhados consome suas melhores oportunidades de preparo.",
		nextStep:  "Revise 2 processos recentes e identifique o que foi pedido na fase em que travou; ajuste alvo ou preparo de acordo.",
	},
	CategoryInvisibleStagnation: {
		diagnosis: "Você está como %s (%s) em %s, há %s na mesma situação.",
		pattern:   "O cenário aponta conforto que pode estar travando crescimento: atividade existe, mas sem um movimento deliberado de carreira.",
		risk:      "Estagnação prolongada reduz seu poder de negociação e estreita opções futuras.",
		nextStep:  "Defina em uma frase onde quer estar em 6 meses e escolha 1 ação concreta para esta semana.",
	},
	CategoryMisallocatedEffort: {
		diagnosis: "Você é %s (%s) vindo de %s e quer uma transição (%s).",
		pattern:   "A energia está indo para uma mudança que precisa de mais planejamento: transições bem-sucedidas são graduais e apoiadas em habilidades transferíveis.",
		risk:      "Mudar sem mapear o que se transfere pode significar recomeçar do zero sem necessidade.",
		nextStep:  "Mapeie 5 habilidades transferíveis e converse com 2 pessoas que fizeram transição parecida.",
	},
}

// GenerateTemplate 走确定性模板路径生成诊断洞察。
func GenerateTemplate(a questionnaire.Answer) Diagnostic {
	category := Classify(a)
	tpl := diagnosticTemplates[category]

	senioridade := questionnaire.Label(questionnaire.SenioridadeLabels, a.Senioridade)
	area := questionnaire.Label(questionnaire.AreaLabels, a.Area)
	tempo := questionnaire.Label(questionnaire.TempoLabels, a.TempoSituacao)

	var diagnosis, pattern string
	switch category {
	case CategoryMovementVsProgress:
		diagnosis = fmt.Sprintf(tpl.diagnosis, a.Cargo, senioridade, area, a.Urgencia)
		bloqueio := questionnaire.Label(questionnaire.BloqueioDecisaoLabels, a.BloqueioDecisao)
		if a.BloqueioDecisao == "" {
			bloqueio = "critérios ainda difusos"
		}
		pattern = fmt.Sprintf(tpl.pattern, bloqueio)
	case CategoryWrongBottleneck:
		diagnosis = fmt.Sprintf(tpl.diagnosis, a.Cargo, senioridade, area, tempo)
		gargalo := questionnaire.Label(questionnaire.GargaloLabels, a.GargaloEntrevistas)
		if a.GargaloEntrevistas == "" {
			gargalo = "ainda não identificado"
		}
		pattern = fmt.Sprintf(tpl.pattern, gargalo)
	case CategoryLevelMismatch:
		fase := questionnaire.Label(questionnaire.FaseMaximaLabels, a.FaseMaxima)
		if a.FaseMaxima == "" {
			fase = "triagem inicial"
		}
		diagnosis = fmt.Sprintf(tpl.diagnosis, a.Cargo, senioridade, area, fase)
		pattern = tpl.pattern
	case CategoryInvisibleStagnation:
		diagnosis = fmt.Sprintf(tpl.diagnosis, a.Cargo, senioridade, area, tempo)
		pattern = tpl.pattern
	case CategoryMisallocatedEffort:
		pivot := questionnaire.Label(questionnaire.TipoPivotLabels, a.TipoPivot)
		if a.TipoPivot == "" {
			pivot = "mudança de área"
		}
		diagnosis = fmt.Sprintf(tpl.diagnosis, a.Cargo, senioridade, area, pivot)
		pattern = tpl.pattern
	}

	return Diagnostic{
		Type:       category,
		TypeLabel:  CategoryLabels[category],
		Diagnosis:  diagnosis,
		Pattern:    pattern,
		Risk:       tpl.risk,
		NextStep:   tpl.nextStep,
		InputHash:  InputHash(a),
		Confidence: Confide(a),
	}
}

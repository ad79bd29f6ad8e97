package insight

import "career-copilot/internal/questionnaire"

// Legacy 是旧版洞察形态：推荐 + 理由/风险/后续步骤列表。
type Legacy struct {
	Recommendation string   `json:"recommendation"`
	Why            []string `json:"why"`
	Risks          []string `json:"risks"`
	NextSteps      []string `json:"next_steps"`
}

// 旧版按目标固定的基础模板；avancar_processos 没有专属模板，回落到 outro。
var legacyTemplates = map[questionnaire.Objective]Legacy{
	questionnaire.ObjectiveEvaluateOffer: {
		Recommendation: "Avalie a proposta com calma antes de decidir",
		Why: []string{
			"Decisões apressadas em transição de carreira costumam gerar arrependimento",
			"O mercado atual exige análise cuidadosa de benefícios além do salário",
			"Sua senioridade permite negociar melhores condições",
		},
		Risks: []string{
			"Aceitar sem negociar pode deixar dinheiro na mesa",
			"Focar só no salário pode esconder problemas de cultura",
		},
		NextSteps: []string{
			"Liste seus 3 critérios mais importantes (além de salário)",
			"Pesquise o Glassdoor e LinkedIn da empresa",
			"Prepare 3 perguntas sobre cultura e expectativas",
		},
	},
	questionnaire.ObjectiveMoreInterviews: {
		Recommendation: "Ajuste sua estratégia de posicionamento",
		Why: []string{
			"Candidatos que se posicionam claramente têm 3x mais retorno",
			"Seu perfil tem potencial mas precisa de diferenciação",
			"O mercado valoriza especialistas com clareza de proposta",
		},
		Risks: []string{
			"Aplicar para tudo dilui sua marca pessoal",
			"Currículo genérico compete com milhares de outros",
		},
		NextSteps: []string{
			"Defina 3 empresas-alvo e personalize abordagem",
			"Atualize seu LinkedIn com palavras-chave da área",
			"Pratique seu pitch de 30 segundos",
		},
	},
	questionnaire.ObjectiveSwitchArea: {
		Recommendation: "Planeje sua transição em fases",
		Why: []string{
			"Transições bem-sucedidas são graduais, não radicais",
			"Suas habilidades atuais são transferíveis com o posicionamento certo",
			"O mercado aceita transições quando bem justificadas",
		},
		Risks: []string{
			"Mudar sem preparação pode significar recomeçar do zero",
			"Ansiedade pode levar a decisões precipitadas",
		},
		NextSteps: []string{
			"Mapeie 5 habilidades que se transferem para a nova área",
			"Conecte com 3 pessoas que fizeram transição similar",
			"Comece um projeto paralelo na nova área",
		},
	},
	questionnaire.ObjectiveNegotiateStay: {
		Recommendation: "Prepare sua negociação com dados",
		Why: []string{
			"Negociações baseadas em dados têm 40% mais sucesso",
			"Sua experiência justifica uma revisão salarial",
			"Momento de mercado favorece profissionais posicionados",
		},
		Risks: []string{
			"Negociar sem preparação pode enfraquecer sua posição",
			"Focar só em salário ignora outros benefícios valiosos",
		},
		NextSteps: []string{
			"Pesquise faixas salariais no Glassdoor e Levels.fyi",
			"Liste suas entregas dos últimos 6 meses",
			"Agende conversa com seu gestor com antecedência",
		},
	},
	questionnaire.ObjectiveOther: {
		Recommendation: "Defina seu próximo passo com clareza",
		Why: []string{
			"Clareza de objetivo acelera qualquer processo de carreira",
			"Seu contexto atual permite explorar opções",
			"Decisões conscientes geram melhores resultados",
		},
		Risks: []string{
			"Paralisia por análise pode atrasar seu progresso",
			"Falta de foco dispersa energia e oportunidades",
		},
		NextSteps: []string{
			"Escreva em uma frase o que você quer em 6 meses",
			"Identifique 1 ação que você pode fazer essa semana",
			"Converse com alguém que já chegou onde você quer",
		},
	},
}

// GenerateLegacy 按旧版规则生成洞察：基础模板 + 上下文微调。
func GenerateLegacy(a questionnaire.Answer) Legacy {
	base, ok := legacyTemplates[a.Objetivo]
	if !ok {
		base = legacyTemplates[questionnaire.ObjectiveOther]
	}

	out := Legacy{
		Recommendation: base.Recommendation,
		Why:            append([]string(nil), base.Why...),
		Risks:          append([]string(nil), base.Risks...),
		NextSteps:      append([]string(nil), base.NextSteps...),
	}

	if a.Status == "desempregado" {
		out.Why = append(out.Why[:min(2, len(out.Why))],
			"Em período de transição, foco e estratégia são ainda mais importantes")
	}

	if a.Urgencia >= 4 {
		if len(out.NextSteps) > 0 {
			out.NextSteps[0] = "URGENTE: " + out.NextSteps[0]
		}
		out.Risks = append([]string{"Pressão por urgência pode levar a decisões subótimas"}, out.Risks...)
	}

	switch a.Senioridade {
	case "junior", "pleno":
		out.NextSteps = append(out.NextSteps, "Busque mentoria de alguém mais senior na área")
	case "lead", "exec":
		out.Why = append([]string{"Sua posição de liderança traz oportunidades únicas"},
			out.Why[:min(2, len(out.Why))]...)
	}

	if a.TempoSituacao == "mais_1_ano" && a.Status == "empregado" {
		out.Why = append(out.Why, "Mais de 1 ano na mesma situação indica momento de reflexão")
	}

	return out
}

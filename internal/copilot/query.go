package copilot

import (
	"fmt"
	"strings"

	"career-copilot/internal/application"
)

// directAnswer 尝试直接用存储数据回答指标类问题，命中则不走 LLM。
func directAnswer(question string, m application.Metrics) (string, bool) {
	lower := strings.ToLower(question)

	switch {
	case containsAny(lower, "taxa de convers", "conversão", "conversao"):
		if m.Total == 0 {
			return "Você ainda não registrou candidaturas, então não há taxa de conversão para calcular.", true
		}
		return fmt.Sprintf("Sua taxa de conversão para entrevista ou além é de %d%% (%d candidaturas no total).",
			m.TaxaConversao, m.Total), true

	case containsAny(lower, "quantas candidatura", "quantas aplica", "total de candidatura"):
		return fmt.Sprintf("Você tem %d candidaturas registradas: %d ativas em entrevista ou proposta e %d aguardando resposta.",
			m.Total, m.ProcessosAtivos, m.AguardandoResposta), true

	case containsAny(lower, "quantas entrevista", "processos ativos", "em entrevista"):
		return fmt.Sprintf("Você tem %d processos ativos (entrevista ou proposta).", m.ProcessosAtivos), true

	case containsAny(lower, "quantas proposta", "quantas oferta", "recebi proposta"):
		if m.Ofertas == 0 {
			return "Você não tem propostas em aberto no momento.", true
		}
		return fmt.Sprintf("Você tem %d proposta(s) em aberto.", m.Ofertas), true

	case containsAny(lower, "aguardando resposta", "sem resposta"):
		return fmt.Sprintf("Você tem %d candidaturas aguardando resposta (aplicado ou em análise).", m.AguardandoResposta), true
	}

	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

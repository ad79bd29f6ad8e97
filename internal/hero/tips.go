package hero

import "time"

// tips 是 active_summary 上下文轮换展示的职业建议。
var tips = []string{
	"Personalize seu currículo para cada vaga: destaque as experiências que mais conversam com a descrição.",
	"Faça follow-up educado após 1 semana sem resposta. Mostra interesse sem parecer insistente.",
	"Pesquise a empresa antes da entrevista: produto, cultura e notícias recentes fazem diferença.",
	"Pratique respostas para perguntas comportamentais usando a estrutura situação, ação e resultado.",
	"Negocie sempre: a primeira proposta raramente é a melhor que a empresa pode fazer.",
	"Mantenha seu LinkedIn atualizado. Recrutadores buscam por palavras-chave do seu cargo.",
	"Qualidade vence quantidade: 5 candidaturas bem feitas rendem mais que 50 genéricas.",
	"Peça feedback após processos que não avançaram. Nem todos respondem, mas quem responde ajuda muito.",
}

const tipWindow = 6 * time.Hour

// TipFor 返回当前时间窗对应的建议，同一窗口内结果固定。
func TipFor(now time.Time) string {
	idx := int(now.Unix()/int64(tipWindow.Seconds())) % len(tips)
	if idx < 0 {
		idx += len(tips)
	}
	return tips[idx]
}

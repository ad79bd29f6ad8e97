package application

import (
	"math"

	"career-copilot/internal/model"
)

// Metrics 是仪表盘用的汇总指标。
type Metrics struct {
	Total              int                             `json:"total"`
	ByStatus           map[model.ApplicationStatus]int `json:"byStatus"`
	TaxaConversao      int                             `json:"taxaConversao"`
	ProcessosAtivos    int                             `json:"processosAtivos"`
	AguardandoResposta int                             `json:"aguardandoResposta"`
	Ofertas            int                             `json:"ofertas"`
}

// ComputeMetrics 从候选列表聚合指标。转化率按
// (entrevista+proposta+aceito)/total 取百分比四舍五入。
func ComputeMetrics(apps []model.Application) Metrics {
	m := Metrics{ByStatus: make(map[model.ApplicationStatus]int)}
	m.Total = len(apps)
	for _, app := range apps {
		m.ByStatus[app.Status]++
	}

	reached := m.ByStatus[model.StatusInterview] + m.ByStatus[model.StatusOffer] + m.ByStatus[model.StatusAccepted]
	if m.Total > 0 {
		m.TaxaConversao = int(math.Round(100 * float64(reached) / float64(m.Total)))
	}
	m.ProcessosAtivos = m.ByStatus[model.StatusInterview] + m.ByStatus[model.StatusOffer]
	m.AguardandoResposta = m.ByStatus[model.StatusApplied] + m.ByStatus[model.StatusUnderReview]
	m.Ofertas = m.ByStatus[model.StatusOffer]
	return m
}

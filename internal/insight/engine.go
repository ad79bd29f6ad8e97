package insight

import (
	"fmt"
	"hash/fnv"
	"strings"

	"career-copilot/internal/questionnaire"
)

// Category 是诊断引擎输出的五个固定模式标签之一。
type Category string

const (
	CategoryMovementVsProgress  Category = "movimento_vs_progresso"
	CategoryWrongBottleneck     Category = "gargalo_errado"
	CategoryLevelMismatch       Category = "desalinhamento_nivel"
	CategoryInvisibleStagnation Category = "estagnacao_invisivel"
	CategoryMisallocatedEffort  Category = "esforco_mal_alocado"
)

// CategoryLabels 是面向用户的类别名称。
var CategoryLabels = map[Category]string{
	CategoryMovementVsProgress:  "Movimento vs. Progresso",
	CategoryWrongBottleneck:     "Gargalo Errado",
	CategoryLevelMismatch:       "Desalinhamento de Nível",
	CategoryInvisibleStagnation: "Estagnação Invisível",
	CategoryMisallocatedEffort:  "Esforço Mal Alocado",
}

// Confidence 表示诊断的置信档位。
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Diagnostic 是新版诊断洞察，对应 model.InsightDiagnostic 形态。
type Diagnostic struct {
	Type       Category   `json:"type"`
	TypeLabel  string     `json:"type_label"`
	Diagnosis  string     `json:"diagnosis"`
	Pattern    string     `json:"pattern"`
	Risk       string     `json:"risk"`
	NextStep   string     `json:"next_step"`
	InputHash  string     `json:"input_hash"`
	Confidence Confidence `json:"confidence"`
}

// Classify 从固定决策表选出诊断类别。
// 主键是 objetivo；negociar_salario 额外看追问信号。追问缺失或未知时
// 落到通用类别（estagnacao_invisivel）。
func Classify(a questionnaire.Answer) Category {
	switch a.Objetivo {
	case questionnaire.ObjectiveEvaluateOffer:
		return CategoryMovementVsProgress
	case questionnaire.ObjectiveMoreInterviews:
		return CategoryWrongBottleneck
	case questionnaire.ObjectiveAdvanceProcess:
		return CategoryLevelMismatch
	case questionnaire.ObjectiveNegotiateStay:
		switch a.SinaisAlavanca {
		case "nenhum", "mercado":
			return CategoryInvisibleStagnation
		default:
			return CategoryMovementVsProgress
		}
	case questionnaire.ObjectiveSwitchArea:
		return CategoryMisallocatedEffort
	}
	return CategoryInvisibleStagnation
}

// Confide 按次级信号的一致程度定档：
// urgencia ≥4 且至少一个次级信号一致 → high；
// 仅满足其一 → medium；都不满足 → low。
// 次级信号：有效追问答案（排除 nao_sei/nenhum）、mais_1_ano、desempregado。
func Confide(a questionnaire.Answer) Confidence {
	signals := 0
	if follow := a.FollowUp(); follow != "" && follow != "nao_sei" && follow != "nenhum" {
		signals++
	}
	if a.TempoSituacao == "mais_1_ano" {
		signals++
	}
	if a.Status == "desempregado" {
		signals++
	}

	urgent := a.Urgencia >= 4
	switch {
	case urgent && signals >= 1:
		return ConfidenceHigh
	case urgent || signals >= 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// InputHash 对归一化后的问卷字段计算确定性哈希，用于去重与缓存。
func InputHash(a questionnaire.Answer) string {
	fields := []string{
		strings.ToLower(strings.TrimSpace(a.Cargo)),
		a.Senioridade,
		a.Area,
		a.Status,
		a.TempoSituacao,
		fmt.Sprintf("%d", a.Urgencia),
		string(a.Objetivo),
		a.BloqueioDecisao,
		a.GargaloEntrevistas,
		a.FaseMaxima,
		a.SinaisAlavanca,
		a.TipoPivot,
	}
	h := fnv.New64a()
	for _, f := range fields {
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum64())
}

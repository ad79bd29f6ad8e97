package application

import (
	"errors"
	"fmt"

	"career-copilot/internal/model"
)

// ErrTransition 标记一次被状态机拒绝的迁移。
var ErrTransition = errors.New("invalid transition")

// transitions 定义候选状态机的合法迁移，终态（rejeitado、
// desistencia）没有出边。
var transitions = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.StatusApplied:     {model.StatusUnderReview, model.StatusInterview, model.StatusRejected},
	model.StatusUnderReview: {model.StatusInterview, model.StatusOffer, model.StatusRejected},
	model.StatusInterview:   {model.StatusOffer, model.StatusRejected},
	model.StatusOffer:       {model.StatusAccepted, model.StatusRejected, model.StatusWithdrawn},
	model.StatusAccepted:    {model.StatusWithdrawn},
	model.StatusRejected:    {},
	model.StatusWithdrawn:   {},
}

// ValidStatus 判断状态值是否属于已知枚举。
func ValidStatus(s model.ApplicationStatus) bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTransitions 返回某状态的所有合法目标状态。
func AllowedTransitions(from model.ApplicationStatus) []model.ApplicationStatus {
	return append([]model.ApplicationStatus(nil), transitions[from]...)
}

// CanTransition 判断 from → to 是否是状态机允许的一步迁移。
func CanTransition(from, to model.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition 校验迁移并返回可读的错误信息。
func CheckTransition(from, to model.ApplicationStatus) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %q -> %q", ErrTransition, from, to)
	}
	return nil
}

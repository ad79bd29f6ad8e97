package hero

import (
	"time"

	"career-copilot/internal/model"
)

// ContextType 表示首屏英雄区的上下文类别。
type ContextType string

const (
	ContextPendingInsight    ContextType = "pending_insight"
	ContextProposalReceived  ContextType = "proposal_received"
	ContextInterviewSoon     ContextType = "interview_soon"
	ContextInterviewFeedback ContextType = "interview_feedback"
	ContextNeedsFollowup     ContextType = "needs_followup"
	ContextStaleApps         ContextType = "stale_apps"
	ContextLowActivity       ContextType = "low_activity"
	ContextNewUser           ContextType = "new_user"
	ContextActiveSummary     ContextType = "active_summary"
)

const (
	followupAfter   = 7 * 24 * time.Hour
	staleAfter      = 14 * 24 * time.Hour
	staleMinCount   = 3
	recentCreation  = 7 * 24 * time.Hour
	feedbackWindow  = 3 * 24 * time.Hour
)

// Context 是检测结果及渲染消息所需的元数据。
type Context struct {
	Type            ContextType `json:"type"`
	Company         string      `json:"company,omitempty"`
	Title           string      `json:"title,omitempty"`
	Cargo           string      `json:"cargo,omitempty"`
	DaysSinceUpdate int         `json:"daysSinceUpdate,omitempty"`
	StaleCount      int         `json:"staleCount,omitempty"`
	TotalApps       int         `json:"totalApps,omitempty"`
	ActiveApps      int         `json:"activeApps,omitempty"`
}

// Snapshot 汇总检测所需的用户状态，由调用方从存储层取出。
type Snapshot struct {
	Applications   []model.Application
	PendingInsight bool
	HasInsights    bool
	LastInterview  *model.InterviewSession
}

func isActive(s model.ApplicationStatus) bool {
	switch s {
	case model.StatusApplied, model.StatusUnderReview, model.StatusInterview, model.StatusOffer:
		return true
	}
	return false
}

// Detect 按固定优先级选出当前最值得展示的上下文，首个命中即返回。
// 所有阈值均为闭区间（达到即触发）。
func Detect(snap Snapshot, now time.Time) Context {
	if snap.PendingInsight {
		return Context{Type: ContextPendingInsight}
	}

	for _, app := range snap.Applications {
		if app.Status == model.StatusOffer {
			return Context{Type: ContextProposalReceived, Company: app.Company, Title: app.Title}
		}
	}

	for _, app := range snap.Applications {
		if app.Status == model.StatusInterview {
			return Context{Type: ContextInterviewSoon, Company: app.Company, Title: app.Title}
		}
	}

	if s := snap.LastInterview; s != nil && s.CompletedAt != nil &&
		now.Sub(*s.CompletedAt) <= feedbackWindow {
		return Context{Type: ContextInterviewFeedback, Cargo: s.Cargo}
	}

	var oldest *model.Application
	for i := range snap.Applications {
		app := &snap.Applications[i]
		if app.Status != model.StatusApplied && app.Status != model.StatusUnderReview {
			continue
		}
		if now.Sub(app.UpdatedAt) < followupAfter {
			continue
		}
		if oldest == nil || app.UpdatedAt.Before(oldest.UpdatedAt) {
			oldest = app
		}
	}
	if oldest != nil {
		days := int(now.Sub(oldest.UpdatedAt).Hours() / 24)
		return Context{Type: ContextNeedsFollowup, Company: oldest.Company, Title: oldest.Title, DaysSinceUpdate: days}
	}

	stale := 0
	for _, app := range snap.Applications {
		if now.Sub(app.UpdatedAt) >= staleAfter {
			stale++
		}
	}
	if stale >= staleMinCount {
		return Context{Type: ContextStaleApps, StaleCount: stale}
	}

	if len(snap.Applications) > 0 {
		recent := false
		for _, app := range snap.Applications {
			if now.Sub(app.CreatedAt) < recentCreation {
				recent = true
				break
			}
		}
		if !recent {
			return Context{Type: ContextLowActivity}
		}
	}

	if len(snap.Applications) == 0 && !snap.HasInsights {
		return Context{Type: ContextNewUser}
	}

	active := 0
	for _, app := range snap.Applications {
		if isActive(app.Status) {
			active++
		}
	}
	return Context{Type: ContextActiveSummary, TotalApps: len(snap.Applications), ActiveApps: active}
}

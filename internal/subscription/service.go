package subscription

import (
	"context"
	"fmt"
	"time"

	"career-copilot/internal/model"
)

// Store 定义持久化接口。
type Store interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *model.UserProfile) error
}

// Config 控制免费档的配额上限。
type Config struct {
	FreeInsightsPerMonth int `yaml:"free_insights_per_month" json:"free_insights_per_month"`
	FreeCopilotPerDay    int `yaml:"free_copilot_per_day" json:"free_copilot_per_day"`
}

// QuotaResult 是一次配额判定的结果。
type QuotaResult struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"` // 0 表示无限制
	Unlimited bool `json:"unlimited"`
}

// Service 负责计划判定与配额计数。配额以服务端数据为准，
// 周期键在读取时滚动，不需要后台重置任务。
type Service struct {
	store           Store
	insightsMonthly int
	copilotDaily    int
	now             func() time.Time
}

// NewService 创建配额服务，上限未配置时取默认值（1 洞察/月，5 问/天）。
func NewService(store Store, cfg Config) *Service {
	insights := cfg.FreeInsightsPerMonth
	if insights <= 0 {
		insights = 1
	}
	copilot := cfg.FreeCopilotPerDay
	if copilot <= 0 {
		copilot = 5
	}
	return &Service{store: store, insightsMonthly: insights, copilotDaily: copilot, now: time.Now}
}

func monthKey(t time.Time) string { return t.Format("2006-01") }
func dayKey(t time.Time) string   { return t.Format("2006-01-02") }

func (s *Service) profile(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// CanGenerateInsight 判定用户本月是否还能生成洞察。
// 读取时发现周期键过期则视作计数清零。
func (s *Service) CanGenerateInsight(ctx context.Context, userID string) (QuotaResult, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return QuotaResult{}, err
	}
	if profile.Plan == model.PlanPro {
		return QuotaResult{Allowed: true, Unlimited: true}, nil
	}

	used := profile.InsightCount
	if profile.InsightPeriod != monthKey(s.now()) {
		used = 0
	}
	return QuotaResult{Allowed: used < s.insightsMonthly, Used: used, Limit: s.insightsMonthly}, nil
}

// RecordInsight 记一次洞察生成，跨月自动滚动周期。
func (s *Service) RecordInsight(ctx context.Context, userID string) error {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return err
	}
	period := monthKey(s.now())
	if profile.InsightPeriod != period {
		profile.InsightPeriod = period
		profile.InsightCount = 0
	}
	profile.InsightCount++
	return s.store.UpsertProfile(ctx, profile)
}

// CanUseCopilot 判定用户今天是否还能向 copilot 提问。
func (s *Service) CanUseCopilot(ctx context.Context, userID string) (QuotaResult, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return QuotaResult{}, err
	}
	if profile.Plan == model.PlanPro {
		return QuotaResult{Allowed: true, Unlimited: true}, nil
	}

	used := profile.CopilotCount
	if profile.CopilotDay != dayKey(s.now()) {
		used = 0
	}
	return QuotaResult{Allowed: used < s.copilotDaily, Used: used, Limit: s.copilotDaily}, nil
}

// RecordCopilot 记一次 copilot 提问，跨天自动滚动周期。
func (s *Service) RecordCopilot(ctx context.Context, userID string) error {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return err
	}
	day := dayKey(s.now())
	if profile.CopilotDay != day {
		profile.CopilotDay = day
		profile.CopilotCount = 0
	}
	profile.CopilotCount++
	return s.store.UpsertProfile(ctx, profile)
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// ApplicationStatus 表示求职申请在流水线中的当前阶段。
// 状态值沿用产品侧的葡语标识，与前端和历史数据保持一致。
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "aplicado"
	StatusUnderReview ApplicationStatus = "em_analise"
	StatusInterview   ApplicationStatus = "entrevista"
	StatusOffer       ApplicationStatus = "proposta"
	StatusAccepted    ApplicationStatus = "aceito"
	StatusRejected    ApplicationStatus = "rejeitado"
	StatusWithdrawn   ApplicationStatus = "desistencia"
)

// Application 表示用户跟踪的一条求职申请。
// - History: 只追加的状态变更日志，归属于该申请
// - UpdatedAt: 由 GORM 自动维护，hero 上下文检测依赖该字段判断停滞
type Application struct {
	ID             string            `gorm:"primaryKey" json:"id"`
	UserID         string            `gorm:"index" json:"user_id"`
	Company        string            `json:"company"`
	Title          string            `json:"title"`
	Status         ApplicationStatus `json:"status"`
	URL            string            `json:"url,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	SalaryRange    string            `json:"salary_range,omitempty"`
	Location       string            `json:"location,omitempty"`
	JobDescription string            `json:"job_description,omitempty"`
	History        []StatusChange    `gorm:"foreignKey:ApplicationID" json:"history,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// StatusChange 记录一次状态迁移，写入后不可修改。
type StatusChange struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ApplicationID string            `gorm:"index" json:"application_id"`
	FromStatus    ApplicationStatus `json:"from_status"`
	ToStatus      ApplicationStatus `json:"to_status"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// InsightKind 区分两代洞察记录的形态。
type InsightKind string

const (
	// InsightLegacy 旧版：recommendation + why/risks/next_steps 列表。
	InsightLegacy InsightKind = "legacy"
	// InsightDiagnostic 新版：诊断类别 + diagnosis/pattern/risk/next_step。
	InsightDiagnostic InsightKind = "diagnostic"
)

// Insight 表示一次问卷提交生成的职业洞察，创建后不可变。
// Kind 为判别字段，legacy 与 diagnostic 两组列互斥填充。
type Insight struct {
	ID     string      `gorm:"primaryKey" json:"id"`
	UserID string      `gorm:"index" json:"user_id"`
	Kind   InsightKind `json:"kind"`

	// 问卷输入快照
	Cargo         string `json:"cargo"`
	Senioridade   string `json:"senioridade"`
	Area          string `json:"area"`
	Status        string `json:"status"`
	TempoSituacao string `json:"tempo_situacao,omitempty"`
	Urgencia      int    `json:"urgencia,omitempty"`
	Objetivo      string `json:"objetivo"`

	// legacy 形态
	Recommendation string         `json:"recommendation,omitempty"`
	Why            datatypes.JSON `json:"why,omitempty"`
	Risks          datatypes.JSON `json:"risks,omitempty"`
	NextSteps      datatypes.JSON `json:"next_steps,omitempty"`

	// diagnostic 形态
	Type      string `json:"type,omitempty"`
	TypeLabel string `json:"type_label,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Risk      string `json:"risk,omitempty"`
	NextStep  string `json:"next_step,omitempty"`

	// 去重哈希与置信档位，两代共用
	InputHash  string `gorm:"index" json:"input_hash"`
	Confidence string `json:"confidence"`

	// 未查看的洞察驱动 hero 的 pending_insight 上下文
	ViewedAt  *time.Time `json:"viewed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Plan 表示订阅档位。
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// UserProfile 保存计费状态与配额计数器。
// 配额周期键在读取时滚动（InsightPeriod 形如 2026-08，CopilotDay 形如 2026-08-31），
// 不依赖后台重置任务。
type UserProfile struct {
	UserID             string     `gorm:"primaryKey" json:"user_id"`
	Email              string     `gorm:"uniqueIndex" json:"email"`
	Name               string     `json:"name,omitempty"`
	Plan               Plan       `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"`
	StripeCustomerID   string     `gorm:"index" json:"stripe_customer_id,omitempty"`
	SubscriptionID     string     `json:"subscription_id,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	UpgradeSource      string     `json:"upgrade_source,omitempty"`

	InsightCount  int    `json:"insight_count"`
	InsightPeriod string `json:"insight_period,omitempty"`
	CopilotCount  int    `json:"copilot_count"`
	CopilotDay    string `json:"copilot_day,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InterviewSession 表示一次模拟面试记录（Pro 功能）。
// Questions 在开场时固定，Feedback 与 OverallScore 在完成时由评分结果填充。
type InterviewSession struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	UserID       string            `gorm:"index" json:"user_id"`
	Cargo        string            `json:"cargo"`
	Area         string            `json:"area"`
	Questions    datatypes.JSON    `json:"questions,omitempty"`
	OverallScore int               `json:"overall_score"`
	Feedback     datatypes.JSONMap `json:"feedback,omitempty"`
	Status       string            `json:"status"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// WaitlistEntry 表示候补名单登记，(email, feature) 唯一。
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex:idx_waitlist_email_feature" json:"email"`
	Feature   string    `gorm:"uniqueIndex:idx_waitlist_email_feature" json:"feature"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AIUsage 是 LLM 调用的用量台账，用于计费与观测。
type AIUsage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"index" json:"user_id"`
	Feature          string    `json:"feature"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

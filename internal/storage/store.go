package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"career-copilot/internal/application"
	"career-copilot/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrDuplicate 表示唯一约束冲突（如重复加入候补名单）。
var ErrDuplicate = errors.New("duplicate record")

// Store 封装数据库访问，负责申请、洞察、用户档案等的增删查。
// DSN 以 postgres:// 开头时走 Postgres，否则当作 SQLite 文件路径。
type Store struct {
	db *gorm.DB
}

// NewStore 打开数据库并自动迁移数据表。
func NewStore(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Application{},
		&model.StatusChange{},
		&model.Insight{},
		&model.UserProfile{},
		&model.InterviewSession{},
		&model.WaitlistEntry{},
		&model.AIUsage{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateApplication 新增一条申请。
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// ListApplications 返回用户的全部申请，按更新时间倒序。
func (s *Store) ListApplications(ctx context.Context, userID string) ([]model.Application, error) {
	var apps []model.Application
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// GetApplication 返回用户的一条申请，含状态历史。
func (s *Store) GetApplication(ctx context.Context, userID, id string) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&app, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &app, nil
}

// UpdateApplication 更新申请的描述性字段，状态不在此处改。
func (s *Store) UpdateApplication(ctx context.Context, app *model.Application) error {
	tx := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND user_id = ?", app.ID, app.UserID).
		Updates(map[string]any{
			"company":         app.Company,
			"title":           app.Title,
			"url":             app.URL,
			"notes":           app.Notes,
			"salary_range":    app.SalaryRange,
			"location":        app.Location,
			"job_description": app.JobDescription,
		})
	if tx.Error != nil {
		return fmt.Errorf("update application: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteApplication 删除申请及其状态历史。
func (s *Store) DeleteApplication(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Application{})
		if res.Error != nil {
			return fmt.Errorf("delete application: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return sql.ErrNoRows
		}
		if err := tx.Where("application_id = ?", id).Delete(&model.StatusChange{}).Error; err != nil {
			return fmt.Errorf("delete status history: %w", err)
		}
		return nil
	})
}

// ChangeStatus 在一个事务内校验状态机、追加变更记录并更新状态。
// 非法迁移在写入前拒绝。
func (s *Store) ChangeStatus(ctx context.Context, userID, id string, to model.ApplicationStatus, note string) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("load application: %w", err)
		}

		if err := application.CheckTransition(app.Status, to); err != nil {
			return err
		}

		change := model.StatusChange{
			ApplicationID: app.ID,
			FromStatus:    app.Status,
			ToStatus:      to,
			Note:          note,
		}
		if err := tx.Create(&change).Error; err != nil {
			return fmt.Errorf("append status change: %w", err)
		}

		if err := tx.Model(&app).Update("status", to).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		app.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateInsight 保存一次洞察结果。
func (s *Store) CreateInsight(ctx context.Context, insight *model.Insight) error {
	if err := s.db.WithContext(ctx).Create(insight).Error; err != nil {
		return fmt.Errorf("create insight: %w", err)
	}
	return nil
}

// ListInsights 返回用户的洞察，按创建时间倒序。
func (s *Store) ListInsights(ctx context.Context, userID string) ([]model.Insight, error) {
	var insights []model.Insight
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&insights).Error; err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return insights, nil
}

// FindInsightByHash 按输入哈希查重，未命中返回 sql.ErrNoRows。
func (s *Store) FindInsightByHash(ctx context.Context, userID, hash string) (*model.Insight, error) {
	var insight model.Insight
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND input_hash = ?", userID, hash).
		Order("created_at DESC").
		First(&insight).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find insight by hash: %w", err)
	}
	return &insight, nil
}

// HasPendingInsight 判断用户是否有未查看的洞察。
func (s *Store) HasPendingInsight(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Insight{}).
		Where("user_id = ? AND viewed_at IS NULL", userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count pending insights: %w", err)
	}
	return count > 0, nil
}

// MarkInsightViewed 标记洞察已被查看，幂等。
func (s *Store) MarkInsightViewed(ctx context.Context, userID, id string) error {
	now := time.Now()
	tx := s.db.WithContext(ctx).Model(&model.Insight{}).
		Where("id = ? AND user_id = ? AND viewed_at IS NULL", id, userID).
		Update("viewed_at", &now)
	if tx.Error != nil {
		return fmt.Errorf("mark insight viewed: %w", tx.Error)
	}
	return nil
}

// GetProfile 返回用户档案，不存在时返回 sql.ErrNoRows。
func (s *Store) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// GetProfileByEmail 按邮箱查找档案。
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return &profile, nil
}

// GetProfileByCustomerID 按支付侧客户 ID 查找档案，webhook 处理用。
func (s *Store) GetProfileByCustomerID(ctx context.Context, customerID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "stripe_customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get profile by customer id: %w", err)
	}
	return &profile, nil
}

// UpsertProfile 创建或整体更新用户档案。
func (s *Store) UpsertProfile(ctx context.Context, profile *model.UserProfile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// CreateInterviewSession 保存一次模拟面试。
func (s *Store) CreateInterviewSession(ctx context.Context, session *model.InterviewSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create interview session: %w", err)
	}
	return nil
}

// GetInterviewSession 按用户取一次面试，不存在时返回 sql.ErrNoRows。
func (s *Store) GetInterviewSession(ctx context.Context, userID, id string) (*model.InterviewSession, error) {
	var session model.InterviewSession
	if err := s.db.WithContext(ctx).First(&session, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get interview session: %w", err)
	}
	return &session, nil
}

// SaveInterviewSession 整体更新一次面试（写入评分结果）。
func (s *Store) SaveInterviewSession(ctx context.Context, session *model.InterviewSession) error {
	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("save interview session: %w", err)
	}
	return nil
}

// LatestInterviewSession 返回用户最近一次已完成的面试，没有则返回 nil。
func (s *Store) LatestInterviewSession(ctx context.Context, userID string) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Order("completed_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest interview session: %w", err)
	}
	return &session, nil
}

// AddWaitlistEntry 登记候补名单，(email, feature) 重复时返回 ErrDuplicate。
func (s *Store) AddWaitlistEntry(ctx context.Context, entry *model.WaitlistEntry) error {
	// 直接插入，靠唯一索引挡重复，避免先查后插的竞争。
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("add waitlist entry: %w", err)
	}
	return nil
}

// RecordAIUsage 追加一条 LLM 用量记录。
func (s *Store) RecordAIUsage(ctx context.Context, usage model.AIUsage) error {
	if err := s.db.WithContext(ctx).Create(&usage).Error; err != nil {
		return fmt.Errorf("record ai usage: %w", err)
	}
	return nil
}

// BenchmarkStats 是跨用户聚合出的对比基准。
type BenchmarkStats struct {
	Users             int     `json:"users"`
	AvgTotal          float64 `json:"avgTotal"`
	AvgTaxaConversao  float64 `json:"avgTaxaConversao"`
	UserTaxaConversao int     `json:"userTaxaConversao"`
	Percentile        int     `json:"percentile"`
}

const benchmarkMinApps = 3
const benchmarkMinUsers = 2

// ComputeBenchmark 聚合有 3 个以上申请的用户群，算出平均转化率
// 与当前用户所处的百分位。样本不足时返回 nil。
func (s *Store) ComputeBenchmark(ctx context.Context, userID string) (*BenchmarkStats, error) {
	var rows []struct {
		UserID  string
		Total   int64
		Reached int64
	}
	err := s.db.WithContext(ctx).Model(&model.Application{}).
		Select("user_id, COUNT(*) AS total, SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END) AS reached",
			[]model.ApplicationStatus{model.StatusInterview, model.StatusOffer, model.StatusAccepted}).
		Group("user_id").
		Having("COUNT(*) >= ?", benchmarkMinApps).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("benchmark aggregate: %w", err)
	}
	if len(rows) < benchmarkMinUsers {
		return nil, nil
	}

	stats := BenchmarkStats{Users: len(rows)}
	userRate := -1
	below := 0
	var sumTotal, sumRate float64
	rates := make([]int, 0, len(rows))
	for _, row := range rows {
		rate := int(100 * float64(row.Reached) / float64(row.Total))
		rates = append(rates, rate)
		sumTotal += float64(row.Total)
		sumRate += float64(rate)
		if row.UserID == userID {
			userRate = rate
		}
	}
	if userRate < 0 {
		// 当前用户不在样本里（申请数不足），只给群体均值。
		stats.AvgTotal = sumTotal / float64(len(rows))
		stats.AvgTaxaConversao = sumRate / float64(len(rows))
		return &stats, nil
	}
	for _, rate := range rates {
		if rate < userRate {
			below++
		}
	}
	stats.AvgTotal = sumTotal / float64(len(rows))
	stats.AvgTaxaConversao = sumRate / float64(len(rows))
	stats.UserTaxaConversao = userRate
	stats.Percentile = int(100 * float64(below) / float64(len(rows)))
	return &stats, nil
}

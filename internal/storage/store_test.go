package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"career-copilot/internal/model"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "copilot.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedApplication(t *testing.T, store *Store, userID string, status model.ApplicationStatus) *model.Application {
	t.Helper()
	app := &model.Application{
		ID:      uuid.NewString(),
		UserID:  userID,
		Company: "Acme",
		Title:   "Backend Engineer",
		Status:  status,
	}
	if err := store.CreateApplication(context.Background(), app); err != nil {
		t.Fatalf("CreateApplication error: %v", err)
	}
	return app
}

func TestChangeStatusAppendsHistory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	app := seedApplication(t, store, "u1", model.StatusApplied)

	updated, err := store.ChangeStatus(ctx, "u1", app.ID, model.StatusInterview, "recruiter reached out")
	if err != nil {
		t.Fatalf("ChangeStatus error: %v", err)
	}
	if updated.Status != model.StatusInterview {
		t.Fatalf("expected status entrevista, got %s", updated.Status)
	}

	fetched, err := store.GetApplication(ctx, "u1", app.ID)
	if err != nil {
		t.Fatalf("GetApplication error: %v", err)
	}
	if fetched.Status != model.StatusInterview {
		t.Fatalf("expected persisted status entrevista, got %s", fetched.Status)
	}
	if len(fetched.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(fetched.History))
	}
	h := fetched.History[0]
	if h.FromStatus != model.StatusApplied || h.ToStatus != model.StatusInterview {
		t.Fatalf("unexpected history entry: %+v", h)
	}
	if h.Note != "recruiter reached out" {
		t.Fatalf("expected note persisted, got %q", h.Note)
	}
}

func TestChangeStatusRejectsIllegalTransition(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	app := seedApplication(t, store, "u1", model.StatusApplied)

	// aplicado → aceito 不是一步合法迁移，必须整体拒绝。
	if _, err := store.ChangeStatus(ctx, "u1", app.ID, model.StatusAccepted, ""); err == nil {
		t.Fatal("expected illegal transition to fail")
	}

	fetched, err := store.GetApplication(ctx, "u1", app.ID)
	if err != nil {
		t.Fatalf("GetApplication error: %v", err)
	}
	if fetched.Status != model.StatusApplied {
		t.Fatalf("expected status unchanged, got %s", fetched.Status)
	}
	if len(fetched.History) != 0 {
		t.Fatalf("expected no history written on rejection, got %d entries", len(fetched.History))
	}
}

func TestChangeStatusScopedToUser(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	app := seedApplication(t, store, "owner", model.StatusApplied)

	if _, err := store.ChangeStatus(context.Background(), "intruder", app.ID, model.StatusInterview, ""); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for foreign user, got %v", err)
	}
}

func TestPendingInsightLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	pending, err := store.HasPendingInsight(ctx, "u1")
	if err != nil {
		t.Fatalf("HasPendingInsight error: %v", err)
	}
	if pending {
		t.Fatal("expected no pending insight for empty user")
	}

	insight := &model.Insight{
		ID:        uuid.NewString(),
		UserID:    "u1",
		Kind:      model.InsightDiagnostic,
		Type:      "movimento_vs_progresso",
		InputHash: "abc123",
	}
	if err := store.CreateInsight(ctx, insight); err != nil {
		t.Fatalf("CreateInsight error: %v", err)
	}

	pending, err = store.HasPendingInsight(ctx, "u1")
	if err != nil {
		t.Fatalf("HasPendingInsight error: %v", err)
	}
	if !pending {
		t.Fatal("expected pending insight after creation")
	}

	if err := store.MarkInsightViewed(ctx, "u1", insight.ID); err != nil {
		t.Fatalf("MarkInsightViewed error: %v", err)
	}
	pending, _ = store.HasPendingInsight(ctx, "u1")
	if pending {
		t.Fatal("expected no pending insight after viewing")
	}

	found, err := store.FindInsightByHash(ctx, "u1", "abc123")
	if err != nil {
		t.Fatalf("FindInsightByHash error: %v", err)
	}
	if found.ID != insight.ID {
		t.Fatalf("expected insight %s, got %s", insight.ID, found.ID)
	}
	if _, err := store.FindInsightByHash(ctx, "u1", "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for unknown hash, got %v", err)
	}
}

func TestWaitlistRejectsDuplicates(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	entry := &model.WaitlistEntry{Email: "dev@example.com", Feature: "mentoria"}

	if err := store.AddWaitlistEntry(ctx, entry); err != nil {
		t.Fatalf("AddWaitlistEntry error: %v", err)
	}
	err := store.AddWaitlistEntry(ctx, &model.WaitlistEntry{Email: "dev@example.com", Feature: "mentoria"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// 同邮箱不同功能可以再次登记。
	if err := store.AddWaitlistEntry(ctx, &model.WaitlistEntry{Email: "dev@example.com", Feature: "simulador"}); err != nil {
		t.Fatalf("expected different feature to register, got %v", err)
	}
}

func TestComputeBenchmark(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// u1: 4 条申请里 2 条到达 entrevista+，转化率 50。
	seedApplication(t, store, "u1", model.StatusInterview)
	seedApplication(t, store, "u1", model.StatusOffer)
	seedApplication(t, store, "u1", model.StatusApplied)
	seedApplication(t, store, "u1", model.StatusRejected)
	// u2: 3 条申请 0 到达，转化率 0。
	seedApplication(t, store, "u2", model.StatusApplied)
	seedApplication(t, store, "u2", model.StatusRejected)
	seedApplication(t, store, "u2", model.StatusUnderReview)
	// u3 不足 3 条，不进样本。
	seedApplication(t, store, "u3", model.StatusApplied)

	stats, err := store.ComputeBenchmark(ctx, "u1")
	if err != nil {
		t.Fatalf("ComputeBenchmark error: %v", err)
	}
	if stats == nil {
		t.Fatal("expected benchmark stats")
	}
	if stats.Users != 2 {
		t.Fatalf("expected 2 users in cohort, got %d", stats.Users)
	}
	if stats.UserTaxaConversao != 50 {
		t.Fatalf("expected user conversion 50, got %d", stats.UserTaxaConversao)
	}
	if stats.Percentile != 50 {
		t.Fatalf("expected percentile 50, got %d", stats.Percentile)
	}
}

func TestComputeBenchmarkNilBelowCohortMinimum(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedApplication(t, store, "u1", model.StatusApplied)
	seedApplication(t, store, "u1", model.StatusApplied)
	seedApplication(t, store, "u1", model.StatusApplied)

	stats, err := store.ComputeBenchmark(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ComputeBenchmark error: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats for single-user cohort, got %+v", stats)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	profile := &model.UserProfile{
		UserID: "u1",
		Email:  "dev@example.com",
		Plan:   model.PlanFree,
	}
	if err := store.UpsertProfile(ctx, profile); err != nil {
		t.Fatalf("UpsertProfile error: %v", err)
	}

	profile.Plan = model.PlanPro
	profile.StripeCustomerID = "cus_123"
	if err := store.UpsertProfile(ctx, profile); err != nil {
		t.Fatalf("UpsertProfile update error: %v", err)
	}

	byID, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if byID.Plan != model.PlanPro {
		t.Fatalf("expected plan pro, got %s", byID.Plan)
	}

	byCustomer, err := store.GetProfileByCustomerID(ctx, "cus_123")
	if err != nil {
		t.Fatalf("GetProfileByCustomerID error: %v", err)
	}
	if byCustomer.UserID != "u1" {
		t.Fatalf("expected u1, got %s", byCustomer.UserID)
	}

	if _, err := store.GetProfileByEmail(ctx, "missing@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

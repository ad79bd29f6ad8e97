package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"career-copilot/internal/model"
)

type profileStore struct {
	byCustomer map[string]*model.UserProfile
	byEmail    map[string]*model.UserProfile
	saved      *model.UserProfile
}

func (s *profileStore) GetProfileByCustomerID(_ context.Context, customerID string) (*model.UserProfile, error) {
	if p, ok := s.byCustomer[customerID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, errors.New("not found")
}

func (s *profileStore) GetProfileByEmail(_ context.Context, email string) (*model.UserProfile, error) {
	if p, ok := s.byEmail[email]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, errors.New("not found")
}

func (s *profileStore) UpsertProfile(_ context.Context, profile *model.UserProfile) error {
	s.saved = profile
	return nil
}

func signPayload(secret string, ts time.Time, payload []byte) string {
	timestamp := fmt.Sprintf("%d", ts.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	h := NewWebhookHandler("whsec_test", &profileStore{}, nil)
	h.now = func() time.Time { return now }
	payload := []byte(`{"id":"evt_1"}`)

	if err := h.VerifySignature(payload, signPayload("whsec_test", now, payload)); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	cases := map[string]string{
		"missing header": "",
		"wrong secret":   signPayload("whsec_other", now, payload),
		"stale":          signPayload("whsec_test", now.Add(-10*time.Minute), payload),
		"future":         signPayload("whsec_test", now.Add(10*time.Minute), payload),
		"garbage":        "t=abc,v1=def",
		"no v1":          fmt.Sprintf("t=%d", now.Unix()),
	}
	for name, header := range cases {
		if err := h.VerifySignature(payload, header); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("case %q: expected ErrInvalidSignature, got %v", name, err)
		}
	}

	// 篡改 payload 也必须失败。
	if err := h.VerifySignature([]byte(`{"id":"evt_2"}`), signPayload("whsec_test", now, payload)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected tampered payload to fail, got %v", err)
	}
}

func event(t *testing.T, eventType string, object any) Event {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal event object: %v", err)
	}
	e := Event{ID: "evt_test", Type: eventType}
	e.Data.Object = raw
	return e
}

func TestCheckoutCompletedUpgradesProfile(t *testing.T) {
	t.Parallel()

	store := &profileStore{byEmail: map[string]*model.UserProfile{
		"dev@example.com": {UserID: "u1", Email: "dev@example.com", Plan: model.PlanFree},
	}}
	h := NewWebhookHandler("whsec_test", store, nil)

	h.HandleEvent(context.Background(), event(t, "checkout.session.completed", map[string]any{
		"customer":       "cus_123",
		"customer_email": "dev@example.com",
		"subscription":   "sub_123",
	}))

	if store.saved == nil {
		t.Fatal("expected profile saved")
	}
	if store.saved.Plan != model.PlanPro {
		t.Fatalf("expected plan pro, got %s", store.saved.Plan)
	}
	if store.saved.StripeCustomerID != "cus_123" || store.saved.SubscriptionID != "sub_123" {
		t.Fatalf("expected gateway ids persisted, got %+v", store.saved)
	}
	if store.saved.UpgradeSource != "stripe" {
		t.Fatalf("expected upgrade source stripe, got %q", store.saved.UpgradeSource)
	}
}

func TestSubscriptionUpdatedFollowsStatus(t *testing.T) {
	t.Parallel()

	store := &profileStore{byCustomer: map[string]*model.UserProfile{
		"cus_123": {UserID: "u1", Plan: model.PlanPro, StripeCustomerID: "cus_123"},
	}}
	h := NewWebhookHandler("whsec_test", store, nil)

	h.HandleEvent(context.Background(), event(t, "customer.subscription.updated", map[string]any{
		"id":       "sub_123",
		"status":   "unpaid",
		"customer": "cus_123",
	}))
	if store.saved.Plan != model.PlanFree || store.saved.SubscriptionStatus != "unpaid" {
		t.Fatalf("expected downgrade on unpaid, got %+v", store.saved)
	}

	h.HandleEvent(context.Background(), event(t, "customer.subscription.updated", map[string]any{
		"id":                 "sub_123",
		"status":             "trialing",
		"customer":           "cus_123",
		"current_period_end": 1750000000,
	}))
	if store.saved.Plan != model.PlanPro {
		t.Fatalf("expected trialing to keep pro, got %+v", store.saved)
	}
	if store.saved.CurrentPeriodEnd == nil {
		t.Fatal("expected period end persisted")
	}
}

func TestSubscriptionDeletedResetsToFree(t *testing.T) {
	t.Parallel()

	store := &profileStore{byCustomer: map[string]*model.UserProfile{
		"cus_123": {
			UserID:             "u1",
			Plan:               model.PlanPro,
			StripeCustomerID:   "cus_123",
			SubscriptionID:     "sub_123",
			SubscriptionStatus: "active",
		},
	}}
	h := NewWebhookHandler("whsec_test", store, nil)

	h.HandleEvent(context.Background(), event(t, "customer.subscription.deleted", map[string]any{
		"id":       "sub_123",
		"customer": "cus_123",
		"status":   "canceled",
	}))

	if store.saved.Plan != model.PlanFree {
		t.Fatalf("expected plan free, got %s", store.saved.Plan)
	}
	if store.saved.SubscriptionID != "" {
		t.Fatalf("expected subscription id cleared, got %q", store.saved.SubscriptionID)
	}
	if store.saved.SubscriptionStatus != "canceled" {
		t.Fatalf("expected status canceled, got %q", store.saved.SubscriptionStatus)
	}
}

func TestPaymentFailedMarksPastDue(t *testing.T) {
	t.Parallel()

	store := &profileStore{byCustomer: map[string]*model.UserProfile{
		"cus_123": {UserID: "u1", Plan: model.PlanPro, StripeCustomerID: "cus_123", SubscriptionStatus: "active"},
	}}
	h := NewWebhookHandler("whsec_test", store, nil)

	h.HandleEvent(context.Background(), event(t, "invoice.payment_failed", map[string]any{"customer": "cus_123"}))

	if store.saved.SubscriptionStatus != "past_due" {
		t.Fatalf("expected past_due, got %q", store.saved.SubscriptionStatus)
	}
	// 支付失败本身不改计划档位。
	if store.saved.Plan != model.PlanPro {
		t.Fatalf("expected plan untouched, got %s", store.saved.Plan)
	}
}

func TestUnknownProfileEventsAreSwallowed(t *testing.T) {
	t.Parallel()

	store := &profileStore{}
	h := NewWebhookHandler("whsec_test", store, nil)

	// 找不到档案只记日志，不 panic，不写库。
	h.HandleEvent(context.Background(), event(t, "customer.subscription.deleted", map[string]any{"customer": "cus_missing"}))
	if store.saved != nil {
		t.Fatalf("expected no save, got %+v", store.saved)
	}
}

func TestIsWhitelisted(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{ProWhitelist: []string{"Founder@Example.com", "beta@example.com"}}, nil)
	if !client.IsWhitelisted("founder@example.com") {
		t.Fatal("expected case-insensitive whitelist hit")
	}
	if client.IsWhitelisted("stranger@example.com") {
		t.Fatal("expected miss for unknown email")
	}
}

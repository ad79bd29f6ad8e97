package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"career-copilot/internal/model"
)

// ErrInvalidSignature 表示 webhook 签名缺失或校验失败。
var ErrInvalidSignature = errors.New("invalid webhook signature")

const signatureTolerance = 5 * time.Minute

// Store 定义 webhook 处理所需的档案访问。
type Store interface {
	GetProfileByCustomerID(ctx context.Context, customerID string) (*model.UserProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *model.UserProfile) error
}

// Event 是网关推送的事件外壳。
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// WebhookHandler 校验签名并把订阅事件同步到用户档案。
// 签名失败是致命错误；单个事件的处理失败只记日志，照常确认。
type WebhookHandler struct {
	secret string
	store  Store
	client *Client
	now    func() time.Time
}

// NewWebhookHandler 创建 webhook 处理器。
func NewWebhookHandler(secret string, store Store, client *Client) *WebhookHandler {
	return &WebhookHandler{secret: secret, store: store, client: client, now: time.Now}
}

// VerifySignature 校验 "t=...,v1=..." 形式的签名头。
// 签名值为 HMAC-SHA256(secret, "<t>.<payload>")，时间戳超出容差拒绝。
func (h *WebhookHandler) VerifySignature(payload []byte, header string) error {
	if header == "" {
		return ErrInvalidSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := h.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// HandleEvent 分发单个事件。未知类型忽略，处理失败记日志但不报错，
// 让网关不要无限重试。
func (h *WebhookHandler) HandleEvent(ctx context.Context, event Event) {
	var err error
	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(ctx, event.Data.Object)
	case "customer.subscription.updated":
		err = h.handleSubscriptionUpdated(ctx, event.Data.Object)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(ctx, event.Data.Object)
	case "invoice.payment_succeeded":
		log.Printf("billing: payment succeeded, event %s", event.ID)
	case "invoice.payment_failed":
		err = h.handlePaymentFailed(ctx, event.Data.Object)
	default:
		log.Printf("billing: ignoring event type %s", event.Type)
	}
	if err != nil {
		log.Printf("billing: handle %s (%s): %v", event.Type, event.ID, err)
	}
}

type checkoutSessionObject struct {
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	Subscription  string `json:"subscription"`
	Metadata      struct {
		UserID string `json:"user_id"`
	} `json:"metadata"`
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session checkoutSessionObject
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	profile, err := h.findProfile(ctx, session.Customer, session.CustomerEmail)
	if err != nil {
		return err
	}

	profile.Plan = model.PlanPro
	profile.StripeCustomerID = session.Customer
	profile.SubscriptionID = session.Subscription
	profile.SubscriptionStatus = "active"
	profile.UpgradeSource = "stripe"

	if h.client != nil && session.Subscription != "" {
		if sub, err := h.client.GetSubscription(ctx, session.Subscription); err != nil {
			log.Printf("billing: fetch subscription %s: %v", session.Subscription, err)
		} else {
			profile.SubscriptionStatus = sub.Status
			periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
			profile.CurrentPeriodEnd = &periodEnd
		}
	}

	return h.store.UpsertProfile(ctx, profile)
}

type subscriptionObject struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Customer         string `json:"customer"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

func (h *WebhookHandler) handleSubscriptionUpdated(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionObject
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	profile, err := h.store.GetProfileByCustomerID(ctx, sub.Customer)
	if err != nil {
		return fmt.Errorf("find profile for customer %s: %w", sub.Customer, err)
	}

	// 只有 active/trialing 保持 Pro，其它状态降回 free。
	if sub.Status == "active" || sub.Status == "trialing" {
		profile.Plan = model.PlanPro
	} else {
		profile.Plan = model.PlanFree
	}
	profile.SubscriptionID = sub.ID
	profile.SubscriptionStatus = sub.Status
	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
		profile.CurrentPeriodEnd = &periodEnd
	}

	return h.store.UpsertProfile(ctx, profile)
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionObject
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	profile, err := h.store.GetProfileByCustomerID(ctx, sub.Customer)
	if err != nil {
		return fmt.Errorf("find profile for customer %s: %w", sub.Customer, err)
	}

	// 取消后无条件回到免费档，清空订阅引用。
	profile.Plan = model.PlanFree
	profile.SubscriptionID = ""
	profile.SubscriptionStatus = "canceled"

	return h.store.UpsertProfile(ctx, profile)
}

type invoiceObject struct {
	Customer string `json:"customer"`
}

func (h *WebhookHandler) handlePaymentFailed(ctx context.Context, raw json.RawMessage) error {
	var invoice invoiceObject
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}

	profile, err := h.store.GetProfileByCustomerID(ctx, invoice.Customer)
	if err != nil {
		return fmt.Errorf("find profile for customer %s: %w", invoice.Customer, err)
	}

	profile.SubscriptionStatus = "past_due"
	return h.store.UpsertProfile(ctx, profile)
}

func (h *WebhookHandler) findProfile(ctx context.Context, customerID, email string) (*model.UserProfile, error) {
	if customerID != "" {
		if profile, err := h.store.GetProfileByCustomerID(ctx, customerID); err == nil {
			return profile, nil
		}
	}
	if email != "" {
		if profile, err := h.store.GetProfileByEmail(ctx, email); err == nil {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("no profile for customer %q / email %q", customerID, email)
}

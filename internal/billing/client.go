package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config 描述支付网关接入参数。
type Config struct {
	APIBase        string   `yaml:"api_base" json:"api_base"`
	SecretKey      string   `yaml:"secret_key" json:"secret_key"`
	WebhookSecret  string   `yaml:"webhook_secret" json:"webhook_secret"`
	PriceID        string   `yaml:"price_id" json:"price_id"`
	SuccessURL     string   `yaml:"success_url" json:"success_url"`
	CancelURL      string   `yaml:"cancel_url" json:"cancel_url"`
	PortalReturn   string   `yaml:"portal_return_url" json:"portal_return_url"`
	ProWhitelist   []string `yaml:"pro_whitelist" json:"pro_whitelist"`
}

const defaultAPIBase = "https://api.stripe.com/v1"

// Client 是支付网关的表单编码 HTTP 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
	whitelist  map[string]struct{}
}

// NewClient 创建支付客户端，httpClient 为 nil 时使用 30 秒超时的默认值。
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	whitelist := make(map[string]struct{}, len(cfg.ProWhitelist))
	for _, email := range cfg.ProWhitelist {
		if trimmed := strings.ToLower(strings.TrimSpace(email)); trimmed != "" {
			whitelist[trimmed] = struct{}{}
		}
	}
	return &Client{cfg: cfg, httpClient: httpClient, whitelist: whitelist}
}

// IsWhitelisted 判断邮箱是否在 Pro 直通名单里。
func (c *Client) IsWhitelisted(email string) bool {
	_, ok := c.whitelist[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Customer 是网关侧的客户记录。
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CheckoutSession 是一次订阅结账会话。
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession 是账单管理门户会话。
type PortalSession struct {
	URL string `json:"url"`
}

// Subscription 是网关侧的订阅对象。
type Subscription struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CustomerID       string `json:"customer"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// CreateCustomer 在网关侧创建客户。
func (c *Client) CreateCustomer(ctx context.Context, email, userID string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("metadata[user_id]", userID)

	var customer Customer
	if err := c.post(ctx, "/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCheckoutSession 创建订阅结账会话，返回跳转地址。
func (c *Client) CreateCheckoutSession(ctx context.Context, customerID, userID string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", c.cfg.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.cfg.SuccessURL)
	form.Set("cancel_url", c.cfg.CancelURL)
	form.Set("metadata[user_id]", userID)

	var session CheckoutSession
	if err := c.post(ctx, "/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreatePortalSession 创建账单门户会话。
func (c *Client) CreatePortalSession(ctx context.Context, customerID string) (*PortalSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", c.cfg.PortalReturn)

	var session PortalSession
	if err := c.post(ctx, "/billing_portal/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSubscription 拉取订阅详情。
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBase+"/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("build subscription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	if c.cfg.SecretKey == "" {
		return fmt.Errorf("billing secret key not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build billing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("billing api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode billing response: %w", err)
	}
	return nil
}

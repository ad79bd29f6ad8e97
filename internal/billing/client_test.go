package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIBase:    server.URL,
		SecretKey:  "sk_test",
		PriceID:    "price_123",
		SuccessURL: "https://app.example.com/sucesso",
		CancelURL:  "https://app.example.com/cancelado",
	}, server.Client())
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("customer") != "cus_123" || r.PostForm.Get("mode") != "subscription" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		if r.PostForm.Get("line_items[0][price]") != "price_123" {
			t.Errorf("expected price id in form, got %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example.com/cs_123"}`))
	})

	session, err := client.CreateCheckoutSession(context.Background(), "cus_123", "u1")
	if err != nil {
		t.Fatalf("CreateCheckoutSession error: %v", err)
	}
	if session.URL != "https://pay.example.com/cs_123" {
		t.Fatalf("unexpected session url %q", session.URL)
	}
}

func TestCreateCustomerPropagatesAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	})

	if _, err := client.CreateCustomer(context.Background(), "dev@example.com", "u1"); err == nil {
		t.Fatal("expected api error to propagate")
	}
}

func TestPostRequiresSecretKey(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, nil)
	if _, err := client.CreateCustomer(context.Background(), "dev@example.com", "u1"); err == nil {
		t.Fatal("expected error when secret key missing")
	}
}

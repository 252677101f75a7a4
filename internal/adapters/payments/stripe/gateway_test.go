package stripe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/shopapi/internal/adapters/payments/stripe"
	"github.com/phenrril/shopapi/internal/domain"
)

func testProduct() *domain.Product {
	return &domain.Product{
		ID:      uuid.New(),
		Name:    "Air Max",
		Slug:    "air-max",
		Price:   decimal.RequireFromString("120.50"),
		InStock: true,
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_123","url":"https://checkout.stripe.com/c/pay/cs_test_123"}`))
	}))
	defer srv.Close()

	gw := stripe.NewGateway("sk_test_key", srv.URL, "https://shop.example")
	sess, err := gw.CreateCheckoutSession(context.Background(), testProduct(), "buyer@example.com", 2)
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", sess.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", sess.URL)

	require.NotNil(t, got)
	assert.Equal(t, "/v1/checkout/sessions", got.URL.Path)
	assert.Equal(t, "Bearer sk_test_key", got.Header.Get("Authorization"))
	assert.Equal(t, "payment", got.PostForm.Get("mode"))
	assert.Equal(t, "buyer@example.com", got.PostForm.Get("customer_email"))
	assert.Equal(t, "2", got.PostForm.Get("line_items[0][quantity]"))
	assert.Equal(t, "Air Max", got.PostForm.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "12050", got.PostForm.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "https://shop.example/products/air-max/", got.PostForm.Get("cancel_url"))
	assert.Contains(t, got.PostForm.Get("success_url"), "{CHECKOUT_SESSION_ID}")
}

func TestCreateCheckoutSessionAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	gw := stripe.NewGateway("sk_test_key", srv.URL, "")
	_, err := gw.CreateCheckoutSession(context.Background(), testProduct(), "buyer@example.com", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestCreateCheckoutSessionMissingKey(t *testing.T) {
	t.Parallel()

	gw := stripe.NewGateway("", "http://unused.invalid", "")
	_, err := gw.CreateCheckoutSession(context.Background(), testProduct(), "buyer@example.com", 1)
	assert.Error(t, err)
}

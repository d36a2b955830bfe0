package hosted

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/jewellery-storefront/internal/payment"
)

func TestClient_CreateCheckoutSession(t *testing.T) {
	var got payment.SessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "order-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"cs_1","url":"https://pay.example.com/cs_1"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "sk_test")
	require.NoError(t, err)

	s, err := c.CreateCheckoutSession(context.Background(), payment.SessionRequest{
		Reference: "order-1",
		Currency:  "gbp",
		Items:     []payment.LineItem{{Label: "Solitaire Ring (Gold / Size 7)", UnitAmount: 120000, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, payment.Session{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, s)
	assert.Equal(t, "gbp", got.Currency)
	assert.Equal(t, int64(120000), got.Items[0].UnitAmount)
}

func TestClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "card declined", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "sk_test")
	require.NoError(t, err)

	_, err = c.CreateCheckoutSession(context.Background(), payment.SessionRequest{Reference: "o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestClient_IncompleteSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cs_1"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "sk_test")
	require.NoError(t, err)
	_, err = c.CreateCheckoutSession(context.Background(), payment.SessionRequest{Reference: "o"})
	assert.Error(t, err)
}

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient("", "k")
	assert.Error(t, err)
	_, err = NewClient("https://pay.example.com", " ")
	assert.Error(t, err)
}

package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntent(t *testing.T) {
	t.Run("posts amount in paise with basic auth", func(t *testing.T) {
		var got razorpayOrderReq
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/orders", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "key_id", user)
			assert.Equal(t, "key_secret", pass)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(razorpayOrderResp{ID: "order_1", Status: "created"})
		}))
		defer srv.Close()

		g := NewRazorpayGateway(srv.URL, "key_id", "key_secret", time.Second)
		intent, err := g.CreateIntent(context.Background(), IntentRequest{
			Amount:   decimal.RequireFromString("499.99"),
			Currency: "INR",
			Receipt:  "txn-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "order_1", intent.ID)
		assert.Equal(t, "created", intent.Status)
		assert.Equal(t, int64(49999), got.Amount)
		assert.Equal(t, "INR", got.Currency)
		assert.Equal(t, "txn-1", got.Receipt)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"description":"bad key"}}`))
		}))
		defer srv.Close()

		g := NewRazorpayGateway(srv.URL, "key_id", "wrong", time.Second)
		_, err := g.CreateIntent(context.Background(), IntentRequest{
			Amount:   decimal.NewFromInt(100),
			Currency: "INR",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestConfirmIntent(t *testing.T) {
	t.Run("captured", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payments/order_1/capture", r.URL.Path)
			json.NewEncoder(w).Encode(razorpayCaptureResp{ID: "pay_1", Status: "captured"})
		}))
		defer srv.Close()

		g := NewRazorpayGateway(srv.URL, "k", "s", time.Second)
		out, err := g.ConfirmIntent(context.Background(), "order_1", "card_1")
		require.NoError(t, err)
		assert.True(t, out.Succeeded)
		assert.Equal(t, "pay_1", out.GatewayTransactionID)
	})

	t.Run("declined is an outcome, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(razorpayCaptureResp{
				ID: "pay_2", Status: "failed",
				ErrorCode: "BAD_REQUEST_ERROR", ErrorDescription: "insufficient funds",
			})
		}))
		defer srv.Close()

		g := NewRazorpayGateway(srv.URL, "k", "s", time.Second)
		out, err := g.ConfirmIntent(context.Background(), "order_2", "card_1")
		require.NoError(t, err)
		assert.False(t, out.Succeeded)
		assert.Equal(t, "insufficient funds", out.FailureReason)
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		g := NewRazorpayGateway("http://127.0.0.1:1", "k", "s", 200*time.Millisecond)
		_, err := g.ConfirmIntent(context.Background(), "order_3", "card_1")
		assert.Error(t, err)
	})
}

func TestStubGateway(t *testing.T) {
	g := &StubGateway{}
	intent, err := g.CreateIntent(context.Background(), IntentRequest{
		Amount: decimal.NewFromInt(100), Currency: "INR",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ID)

	out, err := g.ConfirmIntent(context.Background(), intent.ID, "card_1")
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.NotEmpty(t, out.GatewayTransactionID)
}

package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"nal/config"
	"nal/internal/models"
	"nal/internal/repository"
	"nal/internal/service"
	"nal/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubTxnStore struct{}

func (stubTxnStore) Create(*models.Transaction) error { return nil }
func (stubTxnStore) GetByUUID(string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (stubTxnStore) GetByIntentID(string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (stubTxnStore) ListByUser(uint, string, *uint) ([]models.Transaction, error) { return nil, nil }
func (stubTxnStore) AttachIntent(uint, string) error                              { return nil }
func (stubTxnStore) Finalize(uint, string, map[string]interface{}) (bool, error)  { return true, nil }

type stubEventStore struct {
	seen map[string]bool
}

func (s *stubEventStore) Create(e *models.WebhookEvent) error {
	if s.seen[e.EventID] {
		return repository.ErrDuplicateEvent
	}
	s.seen[e.EventID] = true
	return nil
}

func (s *stubEventStore) MarkProcessed(*models.WebhookEvent, *uint) error { return nil }

type stubPropertyStore struct{}

func (stubPropertyStore) GetByUUID(string) (*models.Property, error) {
	return nil, gorm.ErrRecordNotFound
}
func (stubPropertyStore) GetByID(uint) (*models.Property, error) { return nil, gorm.ErrRecordNotFound }

func newWebhookRig(secret string) (*gin.Engine, *stubEventStore) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Razorpay.WebhookSecret = secret
	events := &stubEventStore{seen: map[string]bool{}}
	svc := service.NewPaymentService(stubTxnStore{}, events, stubPropertyStore{}, &payment.StubGateway{}, nil)
	h := NewPaymentWebhookHandler(svc, cfg)
	r := gin.New()
	r.POST("/webhooks/:provider", h.Handle)
	return r, events
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost,
		"/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","event":"payment.captured","payload":{"payment":{"entity":{"id":"pi_1"}}}}`)

	t.Run("valid signature is acknowledged", func(t *testing.T) {
		r, events := newWebhookRig("whsec_test")
		w := postWebhook(r, body, sign("whsec_test", body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"received":true`)
		assert.True(t, events.seen["evt_1"])
	})

	t.Run("bad signature is rejected before processing", func(t *testing.T) {
		r, events := newWebhookRig("whsec_test")
		w := postWebhook(r, body, "deadbeef")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, events.seen["evt_1"])
	})

	t.Run("missing signature is rejected when a secret is set", func(t *testing.T) {
		r, _ := newWebhookRig("whsec_test")
		w := postWebhook(r, body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no secret configured skips verification", func(t *testing.T) {
		r, _ := newWebhookRig("")
		w := postWebhook(r, body, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWebhookAcknowledgment(t *testing.T) {
	t.Run("redelivery still gets 200", func(t *testing.T) {
		r, _ := newWebhookRig("")
		body := []byte(`{"id":"evt_dup","event":"payment.captured","payload":{"payment":{"entity":{"id":"pi_1"}}}}`)
		require.Equal(t, http.StatusOK, postWebhook(r, body, "").Code)
		require.Equal(t, http.StatusOK, postWebhook(r, body, "").Code)
	})

	t.Run("unknown event type still gets 200", func(t *testing.T) {
		r, _ := newWebhookRig("")
		body := []byte(`{"id":"evt_x","event":"order.paid"}`)
		assert.Equal(t, http.StatusOK, postWebhook(r, body, "").Code)
	})

	t.Run("malformed json is a 400", func(t *testing.T) {
		r, _ := newWebhookRig("")
		assert.Equal(t, http.StatusBadRequest, postWebhook(r, []byte("not json"), "").Code)
	})
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"nal/internal/domain"
	"nal/internal/models"
	"nal/internal/repository"
	"nal/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeTxnStore struct {
	txns   map[uint]*models.Transaction
	nextID uint
}

func newFakeTxnStore() *fakeTxnStore {
	return &fakeTxnStore{txns: map[uint]*models.Transaction{}, nextID: 1}
}

func (f *fakeTxnStore) Create(t *models.Transaction) error {
	t.ID = f.nextID
	f.nextID++
	f.txns[t.ID] = t
	return nil
}

func (f *fakeTxnStore) GetByUUID(uuid string) (*models.Transaction, error) {
	for _, t := range f.txns {
		if t.UUID == uuid {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTxnStore) GetByIntentID(intentID string) (*models.Transaction, error) {
	for _, t := range f.txns {
		if t.PaymentIntentID != nil && *t.PaymentIntentID == intentID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTxnStore) ListByUser(userID uint, status string, propertyID *uint) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range f.txns {
		if t.UserID == userID && (status == "" || t.Status == status) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTxnStore) AttachIntent(id uint, intentID string) error {
	t := f.txns[id]
	if t.PaymentIntentID != nil {
		return repository.ErrIntentAlreadySet
	}
	t.PaymentIntentID = &intentID
	t.Status = domain.TxnStatusProcessing
	return nil
}

// Finalize mirrors the conditional update: terminal rows never change and the
// caller is told whether it won the transition.
func (f *fakeTxnStore) Finalize(id uint, status string, updates map[string]interface{}) (bool, error) {
	t := f.txns[id]
	if domain.IsTerminalTxnStatus(t.Status) {
		return false, nil
	}
	t.Status = status
	if v, ok := updates["gateway_transaction_id"].(string); ok {
		t.GatewayTransactionID = v
	}
	if v, ok := updates["payment_method_id"].(string); ok {
		t.PaymentMethodID = v
	}
	if v, ok := updates["completed_at"].(time.Time); ok {
		t.CompletedAt = &v
	}
	if v, ok := updates["gateway_response"].(datatypes.JSON); ok {
		t.GatewayResponse = v
	}
	return true, nil
}

type fakeEventStore struct {
	seen      map[string]*models.WebhookEvent
	processed []uint
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{seen: map[string]*models.WebhookEvent{}}
}

func (f *fakeEventStore) Create(e *models.WebhookEvent) error {
	if _, ok := f.seen[e.EventID]; ok {
		return repository.ErrDuplicateEvent
	}
	f.seen[e.EventID] = e
	return nil
}

func (f *fakeEventStore) MarkProcessed(e *models.WebhookEvent, txnID *uint) error {
	e.Processed = true
	e.TransactionID = txnID
	if txnID != nil {
		f.processed = append(f.processed, *txnID)
	}
	return nil
}

type fakeGateway struct {
	createCalls  int
	confirmCalls int
	createErr    error
	confirmErr   error
	outcome      *payment.Outcome
	lastIntent   payment.IntentRequest
}

func (f *fakeGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	f.createCalls++
	f.lastIntent = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &payment.Intent{ID: fmt.Sprintf("pi_%d", f.createCalls), Status: "created"}, nil
}

func (f *fakeGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*payment.Outcome, error) {
	f.confirmCalls++
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &payment.Outcome{
		Succeeded:            true,
		GatewayTransactionID: "pay_abc",
		Raw:                  json.RawMessage(`{"status":"captured"}`),
	}, nil
}

func newPaymentFixture() (*PaymentService, *fakeTxnStore, *fakeEventStore, *fakeGateway, *fakeNotifier) {
	txns := newFakeTxnStore()
	events := newFakeEventStore()
	gw := &fakeGateway{}
	notifier := &fakeNotifier{}
	properties := &fakePropertyStore{byUUID: map[string]*models.Property{
		"prop-1": {ID: 7, UUID: "prop-1", OwnerID: 42},
	}}
	svc := NewPaymentService(txns, events, properties, gw, notifier)
	svc.now = func() time.Time { return testNow }
	return svc, txns, events, gw, notifier
}

func validInitiateInput() InitiatePaymentInput {
	return InitiatePaymentInput{
		PropertyUUID: "prop-1",
		Amount:       decimal.NewFromInt(5000),
		Type:         domain.TxnTypeBookingFee,
		Description:  "Booking fee",
	}
}

func TestInitiate(t *testing.T) {
	t.Run("creates intent and moves to processing", func(t *testing.T) {
		svc, txns, _, gw, _ := newPaymentFixture()

		txn, err := svc.Initiate(context.Background(), 1, validInitiateInput())
		require.NoError(t, err)
		assert.Equal(t, domain.TxnStatusProcessing, txn.Status)
		require.NotNil(t, txn.PaymentIntentID)
		assert.Equal(t, "pi_1", *txn.PaymentIntentID)
		assert.Equal(t, "INR", txn.Currency)
		assert.Equal(t, txn.UUID, gw.lastIntent.Receipt)
		assert.True(t, gw.lastIntent.Amount.Equal(decimal.NewFromInt(5000)))
		stored := txns.txns[txn.ID]
		assert.Equal(t, domain.TxnStatusProcessing, stored.Status)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _, _, _, _ := newPaymentFixture()
		in := validInitiateInput()
		in.Amount = decimal.Zero

		_, err := svc.Initiate(context.Background(), 1, in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		svc, _, _, _, _ := newPaymentFixture()
		in := validInitiateInput()
		in.Type = "TIP"

		_, err := svc.Initiate(context.Background(), 1, in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("gateway failure settles the row as failed", func(t *testing.T) {
		svc, txns, _, gw, _ := newPaymentFixture()
		gw.createErr = errors.New("connection refused")

		txn, err := svc.Initiate(context.Background(), 1, validInitiateInput())
		var gerr *GatewayError
		require.ErrorAs(t, err, &gerr)
		require.NotNil(t, txn)
		assert.Equal(t, domain.TxnStatusFailed, txn.Status)
		stored := txns.txns[txn.ID]
		assert.Equal(t, domain.TxnStatusFailed, stored.Status)
		assert.Contains(t, string(stored.GatewayResponse), "connection refused")
	})

	t.Run("unknown property", func(t *testing.T) {
		svc, _, _, _, _ := newPaymentFixture()
		in := validInitiateInput()
		in.PropertyUUID = "nope"

		_, err := svc.Initiate(context.Background(), 1, in)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func seedProcessing(txns *fakeTxnStore) *models.Transaction {
	intent := "pi_seed"
	txn := &models.Transaction{
		UUID:            "txn-1",
		UserID:          1,
		Amount:          decimal.NewFromInt(5000),
		Currency:        "INR",
		Type:            domain.TxnTypeBookingFee,
		Status:          domain.TxnStatusProcessing,
		PaymentIntentID: &intent,
	}
	txns.Create(txn)
	return txn
}

func TestConfirm(t *testing.T) {
	t.Run("captures and completes", func(t *testing.T) {
		svc, txns, _, gw, notifier := newPaymentFixture()
		seedProcessing(txns)

		txn, err := svc.Confirm(context.Background(), 1, "txn-1", "card_1")
		require.NoError(t, err)
		assert.Equal(t, domain.TxnStatusCompleted, txn.Status)
		assert.Equal(t, "pay_abc", txn.GatewayTransactionID)
		assert.Equal(t, "card_1", txn.PaymentMethodID)
		require.NotNil(t, txn.CompletedAt)
		assert.Equal(t, testNow, *txn.CompletedAt)
		assert.Equal(t, 1, gw.confirmCalls)
		require.Len(t, notifier.calls, 1)
		assert.Equal(t, "PAYMENT_COMPLETED", notifier.calls[0].typ)
	})

	t.Run("second confirm is a read, not a second charge", func(t *testing.T) {
		svc, txns, _, gw, _ := newPaymentFixture()
		seedProcessing(txns)

		first, err := svc.Confirm(context.Background(), 1, "txn-1", "card_1")
		require.NoError(t, err)
		second, err := svc.Confirm(context.Background(), 1, "txn-1", "card_1")
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.GatewayTransactionID, second.GatewayTransactionID)
		assert.Equal(t, 1, gw.confirmCalls)
	})

	t.Run("only the payer may confirm", func(t *testing.T) {
		svc, txns, _, _, _ := newPaymentFixture()
		seedProcessing(txns)

		_, err := svc.Confirm(context.Background(), 2, "txn-1", "card_1")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("requires payment method id", func(t *testing.T) {
		svc, txns, _, _, _ := newPaymentFixture()
		seedProcessing(txns)

		_, err := svc.Confirm(context.Background(), 1, "txn-1", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("pending transaction cannot be confirmed", func(t *testing.T) {
		svc, txns, _, _, _ := newPaymentFixture()
		txn := &models.Transaction{UUID: "txn-p", UserID: 1, Status: domain.TxnStatusPending}
		txns.Create(txn)

		_, err := svc.Confirm(context.Background(), 1, "txn-p", "card_1")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("transport failure keeps processing", func(t *testing.T) {
		svc, txns, _, gw, _ := newPaymentFixture()
		seedProcessing(txns)
		gw.confirmErr = errors.New("timeout")

		_, err := svc.Confirm(context.Background(), 1, "txn-1", "card_1")
		var gerr *GatewayError
		require.ErrorAs(t, err, &gerr)
		stored, _ := txns.GetByUUID("txn-1")
		assert.Equal(t, domain.TxnStatusProcessing, stored.Status)
	})

	t.Run("decline settles as failed", func(t *testing.T) {
		svc, txns, _, gw, notifier := newPaymentFixture()
		seedProcessing(txns)
		gw.outcome = &payment.Outcome{
			Succeeded:     false,
			FailureReason: "insufficient funds",
			Raw:           json.RawMessage(`{"error":"insufficient funds"}`),
		}

		txn, err := svc.Confirm(context.Background(), 1, "txn-1", "card_1")
		require.NoError(t, err)
		assert.Equal(t, domain.TxnStatusFailed, txn.Status)
		assert.Contains(t, string(txn.GatewayResponse), "insufficient funds")
		assert.Empty(t, notifier.calls)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc, _, _, _, _ := newPaymentFixture()
		_, err := svc.Confirm(context.Background(), 1, "missing", "card_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func capturedPayload(intentID string) []byte {
	return []byte(fmt.Sprintf(`{"payload":{"payment":{"entity":{"id":"%s","status":"captured"}}}}`, intentID))
}

func TestApplyWebhookEvent(t *testing.T) {
	t.Run("captured event settles the transaction", func(t *testing.T) {
		svc, txns, events, _, notifier := newPaymentFixture()
		txn := seedProcessing(txns)

		err := svc.ApplyWebhookEvent("razorpay", "evt_1", domain.WebhookEventPaymentCaptured, capturedPayload("pi_seed"))
		require.NoError(t, err)
		stored, _ := txns.GetByUUID("txn-1")
		assert.Equal(t, domain.TxnStatusCompleted, stored.Status)
		require.NotNil(t, stored.CompletedAt)
		assert.Equal(t, []uint{txn.ID}, events.processed)
		assert.True(t, events.seen["evt_1"].Processed)
		require.Len(t, notifier.calls, 1)
		assert.Equal(t, "PAYMENT_COMPLETED", notifier.calls[0].typ)
	})

	t.Run("redelivery is absorbed by the event id", func(t *testing.T) {
		svc, txns, events, _, notifier := newPaymentFixture()
		seedProcessing(txns)
		payload := capturedPayload("pi_seed")

		require.NoError(t, svc.ApplyWebhookEvent("razorpay", "evt_1", domain.WebhookEventPaymentCaptured, payload))
		require.NoError(t, svc.ApplyWebhookEvent("razorpay", "evt_1", domain.WebhookEventPaymentCaptured, payload))
		assert.Len(t, events.processed, 1)
		assert.Len(t, notifier.calls, 1)
	})

	t.Run("failed event marks the transaction failed", func(t *testing.T) {
		svc, txns, _, _, notifier := newPaymentFixture()
		seedProcessing(txns)

		err := svc.ApplyWebhookEvent("razorpay", "evt_2", domain.WebhookEventPaymentFailed, capturedPayload("pi_seed"))
		require.NoError(t, err)
		stored, _ := txns.GetByUUID("txn-1")
		assert.Equal(t, domain.TxnStatusFailed, stored.Status)
		assert.Nil(t, stored.CompletedAt)
		assert.Empty(t, notifier.calls)
	})

	t.Run("late event against a terminal transaction is a no-op", func(t *testing.T) {
		svc, txns, events, _, _ := newPaymentFixture()
		txn := seedProcessing(txns)
		txns.txns[txn.ID].Status = domain.TxnStatusCompleted

		err := svc.ApplyWebhookEvent("razorpay", "evt_3", domain.WebhookEventPaymentFailed, capturedPayload("pi_seed"))
		require.NoError(t, err)
		stored, _ := txns.GetByUUID("txn-1")
		assert.Equal(t, domain.TxnStatusCompleted, stored.Status)
		// Still recorded and linked for audit.
		assert.True(t, events.seen["evt_3"].Processed)
	})

	t.Run("unknown event type is recorded and acknowledged", func(t *testing.T) {
		svc, txns, events, _, _ := newPaymentFixture()
		seedProcessing(txns)

		err := svc.ApplyWebhookEvent("razorpay", "evt_4", "refund.created", capturedPayload("pi_seed"))
		require.NoError(t, err)
		stored, _ := txns.GetByUUID("txn-1")
		assert.Equal(t, domain.TxnStatusProcessing, stored.Status)
		assert.False(t, events.seen["evt_4"].Processed)
	})

	t.Run("unmatched intent is acknowledged", func(t *testing.T) {
		svc, _, _, _, _ := newPaymentFixture()
		err := svc.ApplyWebhookEvent("razorpay", "evt_5", domain.WebhookEventPaymentCaptured, capturedPayload("pi_ghost"))
		assert.NoError(t, err)
	})

	t.Run("missing event id is acknowledged without recording", func(t *testing.T) {
		svc, _, events, _, _ := newPaymentFixture()
		err := svc.ApplyWebhookEvent("razorpay", "", domain.WebhookEventPaymentCaptured, capturedPayload("pi_seed"))
		assert.NoError(t, err)
		assert.Empty(t, events.seen)
	})

	t.Run("garbled payload is acknowledged", func(t *testing.T) {
		svc, txns, _, _, _ := newPaymentFixture()
		seedProcessing(txns)
		err := svc.ApplyWebhookEvent("razorpay", "evt_6", domain.WebhookEventPaymentCaptured, []byte("not json"))
		assert.NoError(t, err)
		stored, _ := txns.GetByUUID("txn-1")
		assert.Equal(t, domain.TxnStatusProcessing, stored.Status)
	})
}

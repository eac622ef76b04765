package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nal/internal/domain"
	"nal/internal/models"
	"nal/internal/repository"
	"nal/pkg/logger"
	"nal/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStore interface {
	Create(t *models.Transaction) error
	GetByUUID(uuid string) (*models.Transaction, error)
	GetByIntentID(intentID string) (*models.Transaction, error)
	ListByUser(userID uint, status string, propertyID *uint) ([]models.Transaction, error)
	AttachIntent(id uint, intentID string) error
	Finalize(id uint, status string, updates map[string]interface{}) (bool, error)
}

type WebhookEventStore interface {
	Create(e *models.WebhookEvent) error
	MarkProcessed(e *models.WebhookEvent, txnID *uint) error
}

type PaymentService struct {
	txns       TransactionStore
	events     WebhookEventStore
	properties PropertyStore
	gateway    payment.Gateway
	notifier   Notifier
	now        func() time.Time
}

func NewPaymentService(txns TransactionStore, events WebhookEventStore, properties PropertyStore, gateway payment.Gateway, notifier Notifier) *PaymentService {
	return &PaymentService{
		txns:       txns,
		events:     events,
		properties: properties,
		gateway:    gateway,
		notifier:   notifier,
		now:        time.Now,
	}
}

type InitiatePaymentInput struct {
	PropertyUUID string
	Amount       decimal.Decimal
	Currency     string
	Type         string
	Description  string
	Metadata     map[string]interface{}
}

// Initiate creates a PENDING transaction, asks the gateway for a payment
// intent, and attaches it. The gateway call runs outside any database
// transaction; the row is settled to FAILED before a gateway error is
// surfaced so nothing is left dangling.
func (s *PaymentService) Initiate(ctx context.Context, payer uint, in InitiatePaymentInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, validationErr("amount must be positive")
	}
	if !domain.ValidTxnType(in.Type) {
		return nil, validationErr("invalid transaction_type")
	}
	if in.Currency == "" {
		in.Currency = "INR"
	}
	var propertyID *uint
	if in.PropertyUUID != "" {
		prop, err := s.properties.GetByUUID(in.PropertyUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		propertyID = &prop.ID
	}

	t := &models.Transaction{
		UUID:        uuid.NewString(),
		UserID:      payer,
		PropertyID:  propertyID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Type:        in.Type,
		Status:      domain.TxnStatusPending,
		Provider:    "razorpay",
		Description: in.Description,
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, validationErr("metadata is not serializable")
		}
		t.Metadata = datatypes.JSON(raw)
	}
	if err := s.txns.Create(t); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		Amount:      in.Amount,
		Currency:    in.Currency,
		Receipt:     t.UUID,
		Description: in.Description,
	})
	if err != nil {
		failure, _ := json.Marshal(map[string]string{"error": err.Error()})
		if _, ferr := s.txns.Finalize(t.ID, domain.TxnStatusFailed, map[string]interface{}{
			"gateway_response": datatypes.JSON(failure),
		}); ferr != nil {
			logger.Get().Error("failed to settle transaction after gateway error",
				zap.String("transaction", t.UUID), zap.Error(ferr))
		}
		t.Status = domain.TxnStatusFailed
		return t, &GatewayError{Err: err}
	}

	if err := s.txns.AttachIntent(t.ID, intent.ID); err != nil {
		return nil, err
	}
	t.Status = domain.TxnStatusProcessing
	t.PaymentIntentID = &intent.ID
	logger.Get().Info("payment initiated",
		zap.String("transaction", t.UUID), zap.String("intent", intent.ID))
	return t, nil
}

// Confirm finalizes a PROCESSING transaction through the gateway. Confirming
// a transaction that already reached COMPLETED or FAILED returns the stored
// state without another gateway call.
func (s *PaymentService) Confirm(ctx context.Context, actor uint, txnUUID, paymentMethodID string) (*models.Transaction, error) {
	if paymentMethodID == "" {
		return nil, validationErr("payment_method_id is required")
	}
	t, err := s.txns.GetByUUID(txnUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t.UserID != actor {
		return nil, ErrPermissionDenied
	}
	if domain.IsTerminalTxnStatus(t.Status) {
		return t, nil
	}
	if t.Status != domain.TxnStatusProcessing || t.PaymentIntentID == nil {
		return nil, validationErr("transaction is not awaiting confirmation")
	}

	outcome, err := s.gateway.ConfirmIntent(ctx, *t.PaymentIntentID, paymentMethodID)
	if err != nil {
		// Transport failure: the gateway state is unknown, keep PROCESSING and
		// let the webhook (or a retry) settle it.
		return nil, &GatewayError{Err: err}
	}

	if outcome.Succeeded {
		now := s.now()
		won, err := s.txns.Finalize(t.ID, domain.TxnStatusCompleted, map[string]interface{}{
			"gateway_transaction_id": outcome.GatewayTransactionID,
			"payment_method_id":      paymentMethodID,
			"completed_at":           now,
			"gateway_response":       datatypes.JSON(outcome.Raw),
		})
		if err != nil {
			return nil, err
		}
		if !won {
			// The webhook got there first; report whatever is stored.
			return s.txns.GetByUUID(txnUUID)
		}
		t.Status = domain.TxnStatusCompleted
		t.GatewayTransactionID = outcome.GatewayTransactionID
		t.PaymentMethodID = paymentMethodID
		t.CompletedAt = &now
		t.GatewayResponse = datatypes.JSON(outcome.Raw)
		s.notifyCompleted(t)
		return t, nil
	}

	won, err := s.txns.Finalize(t.ID, domain.TxnStatusFailed, map[string]interface{}{
		"payment_method_id": paymentMethodID,
		"gateway_response":  datatypes.JSON(outcome.Raw),
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return s.txns.GetByUUID(txnUUID)
	}
	t.Status = domain.TxnStatusFailed
	t.PaymentMethodID = paymentMethodID
	t.GatewayResponse = datatypes.JSON(outcome.Raw)
	logger.Get().Info("payment declined",
		zap.String("transaction", t.UUID), zap.String("reason", outcome.FailureReason))
	return t, nil
}

func (s *PaymentService) ListTransactions(actor uint, status, propertyUUID string) ([]models.Transaction, error) {
	var propertyID *uint
	if propertyUUID != "" {
		prop, err := s.properties.GetByUUID(propertyUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		propertyID = &prop.ID
	}
	return s.txns.ListByUser(actor, status, propertyID)
}

// razorpayEvent is the slice of the webhook payload we care about.
type razorpayEvent struct {
	Payload struct {
		Payment struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ApplyWebhookEvent records and dispatches one gateway notification. Every
// outcome short of a storage failure is acknowledged: duplicate event ids,
// unknown event types and unmatched transactions are all no-ops by design so
// the gateway stops redelivering.
func (s *PaymentService) ApplyWebhookEvent(provider, eventID, eventType string, payload []byte) error {
	if eventID == "" {
		logger.Get().Warn("webhook event without id, ignoring", zap.String("provider", provider))
		return nil
	}
	event := &models.WebhookEvent{
		Provider:  provider,
		EventType: eventType,
		EventID:   eventID,
		Payload:   datatypes.JSON(payload),
	}
	if err := s.events.Create(event); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			logger.Get().Info("duplicate webhook event, acknowledging",
				zap.String("event", eventID))
			return nil
		}
		return err
	}

	var target string
	switch eventType {
	case domain.WebhookEventPaymentCaptured:
		target = domain.TxnStatusCompleted
	case domain.WebhookEventPaymentFailed:
		target = domain.TxnStatusFailed
	default:
		// Recorded but left unprocessed.
		logger.Get().Info("unhandled webhook event type",
			zap.String("event", eventID), zap.String("type", eventType))
		return nil
	}

	var ev razorpayEvent
	if err := json.Unmarshal(payload, &ev); err != nil || ev.Payload.Payment.Entity.ID == "" {
		logger.Get().Warn("webhook payload has no payment entity id", zap.String("event", eventID))
		return nil
	}
	intentID := ev.Payload.Payment.Entity.ID

	t, err := s.txns.GetByIntentID(intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Warn("webhook for unknown payment intent",
				zap.String("event", eventID), zap.String("intent", intentID))
			return nil
		}
		return err
	}

	updates := map[string]interface{}{"gateway_response": datatypes.JSON(payload)}
	if target == domain.TxnStatusCompleted {
		updates["completed_at"] = s.now()
	}
	won, err := s.txns.Finalize(t.ID, target, updates)
	if err != nil {
		return err
	}
	if err := s.events.MarkProcessed(event, &t.ID); err != nil {
		return err
	}
	if won {
		logger.Get().Info("transaction settled by webhook",
			zap.String("transaction", t.UUID), zap.String("status", target))
		if target == domain.TxnStatusCompleted {
			t.Status = domain.TxnStatusCompleted
			s.notifyCompleted(t)
		}
	}
	return nil
}

func (s *PaymentService) notifyCompleted(t *models.Transaction) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(t.UserID, "PAYMENT_COMPLETED", "Payment successful",
		fmt.Sprintf("Your %s payment of %s %s was received", t.Type, t.Amount.StringFixed(2), t.Currency),
		map[string]interface{}{"transaction_id": t.UUID})
}

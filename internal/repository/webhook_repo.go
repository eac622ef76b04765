package repository

import (
	"errors"
	"time"

	"nal/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateEvent means this gateway event id was already recorded.
var ErrDuplicateEvent = errors.New("webhook event already recorded")

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Create inserts the event record; the unique event_id index turns a
// concurrent duplicate delivery into ErrDuplicateEvent.
func (r *WebhookEventRepository) Create(e *models.WebhookEvent) error {
	if err := r.db.Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *WebhookEventRepository) MarkProcessed(e *models.WebhookEvent, txnID *uint) error {
	now := time.Now()
	e.Processed = true
	e.ProcessedAt = &now
	e.TransactionID = txnID
	return r.db.Model(e).Updates(map[string]interface{}{
		"processed":      true,
		"processed_at":   now,
		"transaction_id": txnID,
	}).Error
}

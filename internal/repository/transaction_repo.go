package repository

import (
	"errors"

	"nal/internal/domain"
	"nal/internal/models"

	"gorm.io/gorm"
)

// ErrIntentAlreadySet guards payment_intent_id immutability.
var ErrIntentAlreadySet = errors.New("payment intent already attached")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByUUID(uuid string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("uuid = ?", uuid).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByIntentID(intentID string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("payment_intent_id = ?", intentID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) ListByUser(userID uint, status string, propertyID *uint) ([]models.Transaction, error) {
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if propertyID != nil {
		q = q.Where("property_id = ?", *propertyID)
	}
	var txns []models.Transaction
	if err := q.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// AttachIntent stores the gateway intent id and moves the transaction to
// PROCESSING. The WHERE clause keeps an already-set intent id immutable.
func (r *TransactionRepository) AttachIntent(id uint, intentID string) error {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND payment_intent_id IS NULL", id).
		Updates(map[string]interface{}{
			"payment_intent_id": intentID,
			"status":            domain.TxnStatusProcessing,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIntentAlreadySet
	}
	return nil
}

// Finalize moves a non-terminal transaction to the given terminal status.
// Returns false when the transaction already reached a terminal state, which
// makes the confirm path and the webhook path idempotent against each other.
func (r *TransactionRepository) Finalize(id uint, status string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status NOT IN ?", id, domain.TerminalTxnStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

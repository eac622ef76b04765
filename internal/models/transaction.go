package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Transaction struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UUID       string `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	PropertyID *uint  `gorm:"index" json:"property_id,omitempty"`

	Amount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency string          `gorm:"size:5;not null;default:'INR'" json:"currency"`
	Type     string          `gorm:"size:20;not null" json:"transaction_type"`
	Status   string          `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`

	Provider string `gorm:"size:50;not null;default:'razorpay'" json:"provider"`
	// PaymentIntentID is assigned once when the gateway intent is created and
	// never overwritten afterwards.
	PaymentIntentID      *string        `gorm:"size:255;uniqueIndex" json:"payment_intent_id,omitempty"`
	PaymentMethodID      string         `gorm:"size:255" json:"payment_method_id,omitempty"`
	GatewayTransactionID string         `gorm:"size:255;index" json:"gateway_transaction_id,omitempty"`
	GatewayResponse      datatypes.JSON `json:"gateway_response,omitempty"`

	Description string         `gorm:"type:text" json:"description,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"-"`
}

func (Transaction) TableName() string { return "transactions" }

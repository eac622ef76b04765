package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent records every gateway notification exactly once; the unique
// event_id index is the deduplication key.
type WebhookEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Provider      string         `gorm:"size:50;not null" json:"provider"`
	EventType     string         `gorm:"size:50;not null" json:"event_type"`
	EventID       string         `gorm:"size:255;uniqueIndex;not null" json:"event_id"`
	Payload       datatypes.JSON `json:"payload"`
	Processed     bool           `gorm:"default:false" json:"processed"`
	TransactionID *uint          `gorm:"index" json:"transaction_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"-"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

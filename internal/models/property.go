package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Property struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UUID        string          `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	OwnerID     uint            `gorm:"not null;index" json:"owner_id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Address     string          `gorm:"size:512;not null" json:"address"`
	City        string          `gorm:"size:100;index" json:"city"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	ListingType string          `gorm:"size:20;not null" json:"listing_type"` // SALE | RENT
	Status      string          `gorm:"size:20;not null;index;default:'ACTIVE'" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Property) TableName() string { return "properties" }

package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Booking struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UUID        string `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	PropertyID  uint   `gorm:"not null;index" json:"property_id"`
	BookingType string `gorm:"size:20;not null;default:'SITE_VISIT'" json:"booking_type"`

	BookingDate     time.Time `gorm:"type:date;not null;index:idx_bookings_slot" json:"booking_date"`
	BookingTime     string    `gorm:"size:5;not null;index:idx_bookings_slot" json:"booking_time"` // "HH:MM"
	DurationMinutes int       `gorm:"default:60" json:"duration_minutes"`

	Status string `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	// SlotKey is set while the booking is PENDING/CONFIRMED and cleared on
	// terminal transitions. The unique index makes concurrent reservations of
	// the same slot lose at insert time (MySQL allows multiple NULLs).
	SlotKey *string `gorm:"size:64;uniqueIndex" json:"-"`

	Notes        string `gorm:"type:text" json:"notes"`
	ContactName  string `gorm:"size:255;not null" json:"contact_name"`
	ContactPhone string `gorm:"size:20;not null" json:"contact_phone"`
	ContactEmail string `gorm:"size:255;not null" json:"contact_email"`

	VirtualTourLink  string `gorm:"size:512" json:"virtual_tour_link,omitempty"`
	VirtualTourToken string `gorm:"size:255" json:"-"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User     User     `gorm:"foreignKey:UserID" json:"-"`
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (Booking) TableName() string { return "bookings" }

// SlotKeyFor builds the active-slot uniqueness key for a (property, date, time) tuple.
func SlotKeyFor(propertyID uint, date time.Time, hhmm string) string {
	return fmt.Sprintf("%d|%s|%s", propertyID, date.Format("2006-01-02"), hhmm)
}

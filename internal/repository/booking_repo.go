package repository

import (
	"errors"
	"time"

	"nal/internal/domain"
	"nal/internal/models"

	"gorm.io/gorm"
)

// ErrSlotTaken means another PENDING/CONFIRMED booking already holds the slot.
var ErrSlotTaken = errors.New("slot already booked")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ReserveSlot inserts the booking if and only if no active booking exists for
// the same (property, date, time). The count and insert run in one
// transaction; the unique slot_key index closes the window between them, so
// of two concurrent reservations exactly one wins.
func (r *BookingRepository) ReserveSlot(b *models.Booking) error {
	key := models.SlotKeyFor(b.PropertyID, b.BookingDate, b.BookingTime)
	b.SlotKey = &key
	return r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&models.Booking{}).
			Where("property_id = ? AND booking_date = ? AND booking_time = ? AND status IN ?",
				b.PropertyID, b.BookingDate.Format("2006-01-02"), b.BookingTime, domain.ActiveBookingStatuses).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrSlotTaken
		}
		if err := tx.Create(b).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
}

func (r *BookingRepository) GetByUUID(uuid string) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.Preload("Property").Where("uuid = ?", uuid).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ListByUser(userID uint, status string) ([]models.Booking, error) {
	q := r.db.Preload("Property").Where("user_id = ?", userID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// Transition persists a status change only while the booking still holds the
// status the caller read. RowsAffected tells the caller whether it won, so two
// concurrent transitions from the same status cannot both apply. Terminal
// statuses release the slot key so the slot becomes reservable again.
func (r *BookingRepository) Transition(b *models.Booking, from string) (bool, error) {
	if !domain.IsActiveBookingStatus(b.Status) {
		b.SlotKey = nil
	}
	res := r.db.Model(&models.Booking{}).
		Where("id = ? AND status = ?", b.ID, from).
		Updates(map[string]interface{}{
			"status":              b.Status,
			"slot_key":            b.SlotKey,
			"cancelled_at":        b.CancelledAt,
			"cancellation_reason": b.CancellationReason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OccupiedSlots returns the set of "YYYY-MM-DD|HH:MM" keys held by active
// bookings for the property within [from, to].
func (r *BookingRepository) OccupiedSlots(propertyID uint, from, to time.Time) (map[string]bool, error) {
	var rows []models.Booking
	err := r.db.Select("booking_date", "booking_time").
		Where("property_id = ? AND booking_date BETWEEN ? AND ? AND status IN ?",
			propertyID, from.Format("2006-01-02"), to.Format("2006-01-02"), domain.ActiveBookingStatuses).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]bool, len(rows))
	for _, b := range rows {
		occupied[b.BookingDate.Format("2006-01-02")+"|"+b.BookingTime] = true
	}
	return occupied, nil
}

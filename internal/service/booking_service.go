package service

import (
	"errors"
	"fmt"
	"time"

	"nal/internal/domain"
	"nal/internal/models"
	"nal/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nal/pkg/logger"
)

const (
	slotDayStartHour = 9  // first bookable hour, inclusive
	slotDayEndHour   = 18 // exclusive
	slotListCap      = 50
)

type BookingStore interface {
	ReserveSlot(b *models.Booking) error
	GetByUUID(uuid string) (*models.Booking, error)
	ListByUser(userID uint, status string) ([]models.Booking, error)
	Transition(b *models.Booking, from string) (bool, error)
	OccupiedSlots(propertyID uint, from, to time.Time) (map[string]bool, error)
}

type PropertyStore interface {
	GetByUUID(uuid string) (*models.Property, error)
	GetByID(id uint) (*models.Property, error)
}

// Notifier delivers user notifications out of band; implementations must not
// block the request path.
type Notifier interface {
	Notify(userID uint, notifType, title, body string, data map[string]interface{})
}

type BookingService struct {
	bookings   BookingStore
	properties PropertyStore
	notifier   Notifier
	tourBase   string
	rangeDays  int
	now        func() time.Time
}

func NewBookingService(bookings BookingStore, properties PropertyStore, notifier Notifier, tourBase string, rangeDays int) *BookingService {
	if rangeDays <= 0 {
		rangeDays = 30
	}
	return &BookingService{
		bookings:   bookings,
		properties: properties,
		notifier:   notifier,
		tourBase:   tourBase,
		rangeDays:  rangeDays,
		now:        time.Now,
	}
}

type ReserveSlotInput struct {
	PropertyUUID    string
	Date            time.Time // date component only
	Time            string    // "HH:MM"
	DurationMinutes int
	BookingType     string
	Notes           string
	ContactName     string
	ContactPhone    string
	ContactEmail    string
}

// ReserveSlot books (property, date, time) for the requester, or fails with
// ErrSlotUnavailable when another active booking holds it. The check and the
// insert are atomic in the store, so concurrent requests for the same slot
// cannot both succeed.
func (s *BookingService) ReserveSlot(requester uint, in ReserveSlotInput) (*models.Booking, error) {
	var missing []string
	if in.ContactName == "" {
		missing = append(missing, "contact_name is required")
	}
	if in.ContactPhone == "" {
		missing = append(missing, "contact_phone is required")
	}
	if in.ContactEmail == "" {
		missing = append(missing, "contact_email is required")
	}
	if len(missing) > 0 {
		return nil, validationErr(missing...)
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return nil, validationErr("booking_time must be HH:MM")
	}
	if in.BookingType == "" {
		in.BookingType = domain.BookingTypeSiteVisit
	}
	switch in.BookingType {
	case domain.BookingTypeSiteVisit, domain.BookingTypeVirtualTour, domain.BookingTypeConsultation:
	default:
		return nil, validationErr("invalid booking_type")
	}
	// Compare calendar dates, not instants: the parsed date is UTC while the
	// server clock may not be.
	if in.Date.Format("2006-01-02") < s.now().Format("2006-01-02") {
		return nil, ErrPastDate
	}

	prop, err := s.properties.GetByUUID(in.PropertyUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.DurationMinutes <= 0 {
		in.DurationMinutes = 60
	}
	b := &models.Booking{
		UUID:            uuid.NewString(),
		UserID:          requester,
		PropertyID:      prop.ID,
		BookingType:     in.BookingType,
		BookingDate:     dateOnly(in.Date),
		BookingTime:     in.Time,
		DurationMinutes: in.DurationMinutes,
		Status:          domain.BookingStatusPending,
		Notes:           in.Notes,
		ContactName:     in.ContactName,
		ContactPhone:    in.ContactPhone,
		ContactEmail:    in.ContactEmail,
	}
	if in.BookingType == domain.BookingTypeVirtualTour {
		token := uuid.NewString()
		b.VirtualTourToken = token
		b.VirtualTourLink = s.tourBase + "/" + token
	}

	if err := s.bookings.ReserveSlot(b); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	b.Property = *prop

	logger.Get().Info("slot reserved",
		zap.String("booking", b.UUID),
		zap.Uint("property", prop.ID),
		zap.String("date", b.BookingDate.Format("2006-01-02")),
		zap.String("time", b.BookingTime))
	if s.notifier != nil {
		s.notifier.Notify(prop.OwnerID, "BOOKING_REQUESTED", "New booking request",
			fmt.Sprintf("%s requested on %s at %s for %s", in.BookingType, b.BookingDate.Format("2006-01-02"), b.BookingTime, prop.Title),
			map[string]interface{}{"booking_id": b.UUID})
	}
	return b, nil
}

// UpdateStatus applies a transition from the strict table in domain; only the
// requester or the property owner may act.
func (s *BookingService) UpdateStatus(actor uint, bookingUUID, newStatus, reason string) (*models.Booking, error) {
	switch newStatus {
	case domain.BookingStatusConfirmed, domain.BookingStatusCancelled,
		domain.BookingStatusCompleted, domain.BookingStatusNoShow:
	default:
		return nil, validationErr("invalid status")
	}
	b, err := s.bookings.GetByUUID(bookingUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor != b.UserID && actor != b.Property.OwnerID {
		return nil, ErrPermissionDenied
	}
	if !domain.BookingTransitionAllowed(b.Status, newStatus) {
		return nil, validationErr(fmt.Sprintf("cannot transition booking from %s to %s", b.Status, newStatus))
	}
	from := b.Status
	b.Status = newStatus
	if newStatus == domain.BookingStatusCancelled {
		now := s.now()
		b.CancelledAt = &now
		b.CancellationReason = reason
	}
	won, err := s.bookings.Transition(b, from)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent transition got there first; report against the status
		// that actually stuck.
		cur, err := s.bookings.GetByUUID(bookingUUID)
		if err != nil {
			return nil, err
		}
		return nil, validationErr(fmt.Sprintf("cannot transition booking from %s to %s", cur.Status, newStatus))
	}

	if s.notifier != nil {
		// Tell the party that did not perform the transition.
		target := b.UserID
		if actor == b.UserID {
			target = b.Property.OwnerID
		}
		s.notifier.Notify(target, "BOOKING_"+newStatus, "Booking "+newStatus,
			fmt.Sprintf("Booking on %s at %s is now %s", b.BookingDate.Format("2006-01-02"), b.BookingTime, newStatus),
			map[string]interface{}{"booking_id": b.UUID})
	}
	return b, nil
}

func (s *BookingService) GetBooking(actor uint, bookingUUID string) (*models.Booking, error) {
	b, err := s.bookings.GetByUUID(bookingUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor != b.UserID && actor != b.Property.OwnerID {
		return nil, ErrNotFound // don't reveal other users' bookings
	}
	return b, nil
}

func (s *BookingService) ListBookings(actor uint, status string) ([]models.Booking, error) {
	return s.bookings.ListByUser(actor, status)
}

type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ListAvailableSlots enumerates the free business-day hourly grid for the
// property: Mon-Fri, 09:00 through 17:00, within [today, today+rangeDays],
// minus slots held by active bookings, capped at 50 entries.
func (s *BookingService) ListAvailableSlots(propertyUUID string, rangeDays int) ([]Slot, error) {
	prop, err := s.properties.GetByUUID(propertyUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rangeDays <= 0 {
		rangeDays = s.rangeDays
	}
	start := dateOnly(s.now())
	end := start.AddDate(0, 0, rangeDays)
	occupied, err := s.bookings.OccupiedSlots(prop.ID, start, end)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, slotListCap)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		date := d.Format("2006-01-02")
		for hour := slotDayStartHour; hour < slotDayEndHour; hour++ {
			hhmm := fmt.Sprintf("%02d:00", hour)
			if occupied[date+"|"+hhmm] {
				continue
			}
			slots = append(slots, Slot{Date: date, Time: hhmm})
			if len(slots) == slotListCap {
				return slots, nil
			}
		}
	}
	return slots, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

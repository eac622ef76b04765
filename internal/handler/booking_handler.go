package handler

import (
	"net/http"
	"strconv"
	"time"

	"nal/internal/middleware"
	"nal/internal/service"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingSvc *service.BookingService
}

func NewBookingHandler(bookingSvc *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// Create reserves a viewing slot. 400 with SlotUnavailable when someone else
// holds the slot; the client may pick another and retry.
func (h *BookingHandler) Create(c *gin.Context) {
	requester := middleware.GetUserID(c)
	var req struct {
		PropertyID      string `json:"property_id" binding:"required"`
		BookingDate     string `json:"booking_date" binding:"required"`
		BookingTime     string `json:"booking_time" binding:"required"`
		BookingType     string `json:"booking_type"`
		DurationMinutes int    `json:"duration_minutes"`
		Notes           string `json:"notes"`
		ContactName     string `json:"contact_name" binding:"required"`
		ContactPhone    string `json:"contact_phone" binding:"required"`
		ContactEmail    string `json:"contact_email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "booking_date must be YYYY-MM-DD")
		return
	}
	b, err := h.bookingSvc.ReserveSlot(requester, service.ReserveSlotInput{
		PropertyUUID:    req.PropertyID,
		Date:            date,
		Time:            req.BookingTime,
		DurationMinutes: req.DurationMinutes,
		BookingType:     req.BookingType,
		Notes:           req.Notes,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		ContactEmail:    req.ContactEmail,
	})
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{
		"booking_id":        b.UUID,
		"status":            b.Status,
		"booking_date":      b.BookingDate.Format("2006-01-02"),
		"booking_time":      b.BookingTime,
		"virtual_tour_link": b.VirtualTourLink,
		"message":           "Booking created successfully",
	})
}

func (h *BookingHandler) List(c *gin.Context) {
	bookings, err := h.bookingSvc.ListBookings(middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, bookings)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookingSvc.GetBooking(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status             string `json:"status" binding:"required"`
		CancellationReason string `json:"cancellation_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.bookingSvc.UpdateStatus(middleware.GetUserID(c), c.Param("id"), req.Status, req.CancellationReason)
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"booking_id": b.UUID,
		"status":     b.Status,
	})
}

func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	// Absent or zero falls back to the configured default range.
	rangeDays, _ := strconv.Atoi(c.Query("range_days"))
	slots, err := h.bookingSvc.ListAvailableSlots(c.Param("property_id"), rangeDays)
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"property_id":     c.Param("property_id"),
		"available_slots": slots,
	})
}

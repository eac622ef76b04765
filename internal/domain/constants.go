package domain

const (
	RoleBuyer = "BUYER"
	RoleOwner = "OWNER"
	RoleAgent = "AGENT"
)

const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCompleted = "COMPLETED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusNoShow    = "NO_SHOW"
)

const (
	BookingTypeSiteVisit    = "SITE_VISIT"
	BookingTypeVirtualTour  = "VIRTUAL_TOUR"
	BookingTypeConsultation = "CONSULTATION"
)

// ActiveBookingStatuses are the statuses that hold a slot.
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

// bookingTransitions is the allowed from->to table for booking status updates.
// COMPLETED, CANCELLED and NO_SHOW are terminal.
var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow},
}

func BookingTransitionAllowed(from, to string) bool {
	for _, t := range bookingTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func IsActiveBookingStatus(s string) bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

const (
	TxnStatusPending    = "PENDING"
	TxnStatusProcessing = "PROCESSING"
	TxnStatusCompleted  = "COMPLETED"
	TxnStatusFailed     = "FAILED"
	TxnStatusCancelled  = "CANCELLED"
	TxnStatusRefunded   = "REFUNDED"
)

const (
	TxnTypeBookingFee      = "BOOKING_FEE"
	TxnTypeSecurityDeposit = "SECURITY_DEPOSIT"
	TxnTypeCommission      = "COMMISSION"
	TxnTypeRefund          = "REFUND"
)

// TerminalTxnStatuses never change again except via the (unimplemented) refund path.
var TerminalTxnStatuses = []string{TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled, TxnStatusRefunded}

func IsTerminalTxnStatus(s string) bool {
	for _, t := range TerminalTxnStatuses {
		if t == s {
			return true
		}
	}
	return false
}

func ValidTxnType(t string) bool {
	switch t {
	case TxnTypeBookingFee, TxnTypeSecurityDeposit, TxnTypeCommission, TxnTypeRefund:
		return true
	}
	return false
}

const (
	ListingStatusActive = "ACTIVE"
	ListingStatusSold   = "SOLD"
	ListingStatusRented = "RENTED"
)

const (
	WebhookEventPaymentCaptured = "payment.captured"
	WebhookEventPaymentFailed   = "payment.failed"
)

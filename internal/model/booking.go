package model

import "github.com/shopspring/decimal"

// BookingStatus is the lifecycle state owned by the collaborator.  The
// portal only reflects the last value it was sent and pushes transitions
// through PUT /bookings/{id}/status.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Settled reports whether the status means the booking has been paid.
func (s BookingStatus) Settled() bool {
	return s == BookingConfirmed || s == BookingCompleted
}

// Booking is a persisted reservation.  A booking has no ID until
// POST /bookings succeeds; drafts live in the booking flow as forms.
//
// Fields:
//
//	ID          – bookings.id assigned by the collaborator.
//	VenueID     – venue being booked.
//	UserID      – owner of the booking.
//	BookingDate – YYYY-MM-DD.
//	StartTime   – HH:MM.
//	EndTime     – HH:MM, strictly after StartTime.
//	CourtNumber – 1..venue.TotalCourts.
//	TotalAmount – hours × venue.PricePerHour.
//	Status      – see BookingStatus.
//	Venue       – nested venue on GET /bookings/{id}.
type Booking struct {
	ID          int64           `json:"id"`
	VenueID     int64           `json:"venueId"`
	UserID      int64           `json:"userId"`
	BookingDate string          `json:"bookingDate"`
	StartTime   string          `json:"startTime"`
	EndTime     string          `json:"endTime"`
	CourtNumber int             `json:"courtNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      BookingStatus   `json:"status,omitempty"`
	Venue       *Venue          `json:"venue,omitempty"`
}

// Package queue carries booking events over RabbitMQ.
package queue

// BookingConfirmedQueue is the durable queue confirmed bookings go to.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published once a booking's payment has been
// recorded and its status moved to CONFIRMED.  It carries enough for a
// consumer to log or notify without calling the booking API.
type BookingConfirmedEvent struct {
	BookingID     int64  `json:"booking_id"`
	UserID        int64  `json:"user_id"`
	VenueID       int64  `json:"venue_id"`
	VenueName     string `json:"venue_name"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CourtNumber   int    `json:"court_number"`
	Amount        string `json:"amount"`
	PaymentID     int64  `json:"payment_id"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	ConfirmedAt   string `json:"confirmed_at"`
}

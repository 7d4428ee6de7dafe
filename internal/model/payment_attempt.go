package model

import "time"

// AttemptStage tracks how far a payment attempt got.  Stages only move
// forward: OPEN -> PAYMENT_RECORDED -> CONFIRMED.
type AttemptStage string

const (
	AttemptOpen            AttemptStage = "OPEN"
	AttemptPaymentRecorded AttemptStage = "PAYMENT_RECORDED"
	AttemptConfirmed       AttemptStage = "CONFIRMED"
)

func (s AttemptStage) rank() int {
	switch s {
	case AttemptPaymentRecorded:
		return 1
	case AttemptConfirmed:
		return 2
	}
	return 0
}

// Reached reports whether s is at or past other.
func (s AttemptStage) Reached(other AttemptStage) bool {
	return s.rank() >= other.rank()
}

// PaymentAttempt is a ledger row: one idempotency key per (booking, user),
// reused by every retry until the booking is confirmed.
type PaymentAttempt struct {
	ID             int64
	BookingID      int64
	UserID         int64
	IdempotencyKey string
	Stage          AttemptStage
	PaymentID      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

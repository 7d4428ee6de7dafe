package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the settlement channel chosen by the user.
type PaymentMethod string

const (
	MethodCard PaymentMethod = "CARD"
	MethodUPI  PaymentMethod = "UPI"
)

// ParsePaymentMethod accepts any casing; ok is false for unknown methods.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodCard, MethodUPI:
		return m, true
	}
	return "", false
}

// PaymentCompleted is the only status the portal ever submits.
const PaymentCompleted = "COMPLETED"

// Payment is a one-shot settlement record for exactly one booking.  Amount
// is always copied from the booking; card fields are only set for CARD.
type Payment struct {
	ID            int64           `json:"id,omitempty"`
	BookingID     int64           `json:"bookingId"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"paymentMethod"`
	CardNumber    string          `json:"cardNumber,omitempty"`
	ExpiryDate    string          `json:"expiryDate,omitempty"`
	CVV           string          `json:"cvv,omitempty"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId"`
	PaymentDate   *time.Time      `json:"paymentDate,omitempty"`
}

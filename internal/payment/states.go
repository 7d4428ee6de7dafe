package payment

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

type Step string

const (
	StepAuthGate   Step = "AUTH_GATE"
	StepLoading    Step = "LOADING"
	StepReady      Step = "READY"
	StepSubmitting Step = "SUBMITTING"
	StepConfirmed  Step = "CONFIRMED"
	StepFailure    Step = "FAILURE"
	StepRedirect   Step = "REDIRECT"
)

var (
	ErrSessionPending   = errors.New("payment: session is still loading")
	ErrReauthRequired   = errors.New("payment: login required")
	ErrLoadFailed       = errors.New("payment: booking could not be loaded")
	ErrAlreadyPaid      = errors.New("payment: booking already paid")
	ErrInvalidMethod    = errors.New("payment: unknown payment method")
	ErrNotReady         = errors.New("payment: no booking loaded")
	ErrSubmitInProgress = errors.New("payment: submission already in progress")
	ErrPaymentFailed    = errors.New("payment: payment failed")
	ErrStale            = errors.New("payment: flow was closed or restarted")
)

// User-visible texts.
const (
	MsgLoadFailed  = "Failed to load booking details"
	MsgAlreadyPaid = "This booking has already been paid"
	MsgSuccess     = "Payment successful!"
	MsgFailed      = "Payment failed. Please try again."
)

// BookingsPath is where the flow sends the browser when it is done or
// cannot continue.
const BookingsPath = "/bookings"

// Card holds the masked card fields.
type Card struct {
	Number string `json:"cardNumber"`
	Expiry string `json:"expiryDate"`
	CVV    string `json:"cvv"`
}

type View struct {
	Step          Step                `json:"step"`
	BookingID     int64               `json:"bookingId,omitempty"`
	Booking       *model.Booking      `json:"booking,omitempty"`
	Method        model.PaymentMethod `json:"paymentMethod,omitempty"`
	Card          Card                `json:"card"`
	Amount        decimal.Decimal     `json:"amount"`
	TransactionID string              `json:"transactionId,omitempty"`
	PaymentID     int64               `json:"paymentId,omitempty"`
	Notice        string              `json:"notice,omitempty"`
	Redirect      string              `json:"redirect,omitempty"`
}

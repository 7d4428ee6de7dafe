package booking

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// Step is the flow's position in the negotiation.
type Step string

const (
	StepAuthGate             Step = "AUTH_GATE"
	StepLoading              Step = "LOADING"
	StepReady                Step = "READY"
	StepValidating           Step = "VALIDATING"
	StepCheckingAvailability Step = "CHECKING_AVAILABILITY"
	StepCreating             Step = "CREATING"
	StepSuccess              Step = "SUCCESS"
	StepFailure              Step = "FAILURE"
	StepRedirect             Step = "REDIRECT"
)

// Busy reports whether a submission is waiting on the network.
func (s Step) Busy() bool {
	return s == StepCheckingAvailability || s == StepCreating
}

var (
	ErrSessionPending   = errors.New("booking: session is still loading")
	ErrReauthRequired   = errors.New("booking: login required")
	ErrInvalidVenue     = errors.New("booking: invalid venue id")
	ErrVenueNotFound    = errors.New("booking: venue not found")
	ErrLoadFailed       = errors.New("booking: venue could not be loaded")
	ErrValidation       = errors.New("booking: invalid booking form")
	ErrSubmitInProgress = errors.New("booking: submission already in progress")
	ErrSlotUnavailable  = errors.New("booking: slot no longer available")
	ErrSlotTaken        = errors.New("booking: slot already booked")
	ErrCreateFailed     = errors.New("booking: booking could not be created")
	ErrStale            = errors.New("booking: flow was closed or restarted")
)

// User-visible texts.
const (
	MsgInvalidVenueID   = "Invalid venue ID"
	MsgVenueNotFound    = "Venue not found"
	MsgLoadFailed       = "Failed to load venue details"
	MsgInvalidVenueInfo = "Invalid venue information"
	MsgFillAllFields    = "Please fill in all fields"
	MsgInvalidDate      = "Please enter a valid booking date"
	MsgPastDate         = "Booking date cannot be in the past"
	MsgInvalidTime      = "Please enter valid start and end times"
	MsgEndBeforeStart   = "End time must be after start time"
	MsgInvalidCourt     = "Please select a valid court"
	MsgSlotUnavailable  = "This time slot is no longer available. Please select a different time or court."
	MsgSlotTaken        = "This time slot has already been booked. Please choose another."
	MsgCreateFailed     = "Failed to create booking. Please try again."
)

// View is what the booking page renders.  Notice is a transient message
// (toast); Error is a page-level failure that replaces the form.
type View struct {
	Step      Step            `json:"step"`
	VenueID   int64           `json:"venueId,omitempty"`
	Venue     *model.Venue    `json:"venue,omitempty"`
	Form      Form            `json:"form"`
	Amount    decimal.Decimal `json:"totalAmount"`
	Courts    []int           `json:"courts,omitempty"`
	MinDate   string          `json:"minDate,omitempty"`
	Notice    string          `json:"notice,omitempty"`
	Error     string          `json:"error,omitempty"`
	BookingID int64           `json:"bookingId,omitempty"`
	Redirect  string          `json:"redirect,omitempty"`
}

package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// AvailabilityQuery is the slot asked about by GET /bookings/available.
// Times must already be normalized to HH:MM.
type AvailabilityQuery struct {
	VenueID     int64
	Date        string
	StartTime   string
	EndTime     string
	CourtNumber int
}

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	VenueID     int64           `json:"venueId"`
	UserID      int64           `json:"userId"`
	BookingDate string          `json:"bookingDate"`
	StartTime   string          `json:"startTime"`
	EndTime     string          `json:"endTime"`
	CourtNumber int             `json:"courtNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type createBookingBody struct {
	CreateBookingRequest
	TotalAmount number `json:"totalAmount"`
}

// CheckAvailability is advisory: a true answer is not a lock.
func (c *Client) CheckAvailability(ctx context.Context, in AvailabilityQuery) (bool, error) {
	q := url.Values{}
	q.Set("venueId", strconv.FormatInt(in.VenueID, 10))
	q.Set("date", in.Date)
	q.Set("startTime", in.StartTime)
	q.Set("endTime", in.EndTime)
	q.Set("courtNumber", strconv.Itoa(in.CourtNumber))

	var raw json.RawMessage
	if err := c.do(ctx, call{op: "availability", method: http.MethodGet, path: "/bookings/available", query: q}, &raw); err != nil {
		return false, err
	}
	return truthy(raw), nil
}

// truthy interprets the boolean-like availability payload: JSON booleans,
// numbers, strings and {"available": ...} objects.  Anything else is false.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "false" && s != "0"
	case map[string]any:
		if inner, ok := t["available"]; ok {
			b, _ := json.Marshal(inner)
			return truthy(b)
		}
	}
	return false
}

// CreateBooking persists a booking and returns it with its assigned id.
func (c *Client) CreateBooking(ctx context.Context, in CreateBookingRequest) (model.Booking, error) {
	var out model.Booking
	err := c.do(ctx, call{op: "create booking", method: http.MethodPost, path: "/bookings", body: createBookingBody{in, number(in.TotalAmount)}}, &out)
	return out, err
}

// GetBooking fetches a booking including its nested venue.
func (c *Client) GetBooking(ctx context.Context, id int64) (model.Booking, error) {
	var out model.Booking
	err := c.do(ctx, call{
		op:     "booking detail",
		method: http.MethodGet,
		path:   "/bookings/" + strconv.FormatInt(id, 10),
	}, &out)
	return out, err
}

// UpdateBookingStatus pushes a status transition.
func (c *Client) UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	return c.do(ctx, call{
		op:     "update status",
		method: http.MethodPut,
		path:   "/bookings/" + strconv.FormatInt(id, 10) + "/status",
		body:   map[string]string{"status": string(status)},
	}, nil)
}

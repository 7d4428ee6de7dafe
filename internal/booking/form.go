package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// Form is the editable draft.  Times may arrive as H:MM, HH:MM or
// HH:MM:SS; a validated form holds them as HH:MM.
type Form struct {
	BookingDate string `json:"bookingDate" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	CourtNumber int    `json:"courtNumber" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// check validates f against v as of today and returns the normalized
// form.  The returned message is what the user sees.
func check(f Form, v *model.Venue, today time.Time) (Form, string, error) {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return f, MsgFillAllFields, fmt.Errorf("%w: %s is required", ErrValidation, verrs[0].Field())
		}
		return f, MsgFillAllFields, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	date, err := model.ParseDate(f.BookingDate)
	if err != nil {
		return f, MsgInvalidDate, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if date.Format(model.DateLayout) < today.Format(model.DateLayout) {
		return f, MsgPastDate, fmt.Errorf("%w: date %s is before %s", ErrValidation, f.BookingDate, today.Format(model.DateLayout))
	}

	start, err := model.ParseTimeOfDay(f.StartTime)
	if err != nil {
		return f, MsgInvalidTime, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	end, err := model.ParseTimeOfDay(f.EndTime)
	if err != nil {
		return f, MsgInvalidTime, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if start >= end {
		return f, MsgEndBeforeStart, fmt.Errorf("%w: start %s is not before end %s", ErrValidation, start, end)
	}

	if !v.ValidCourt(f.CourtNumber) {
		return f, MsgInvalidCourt, fmt.Errorf("%w: court %d outside 1..%d", ErrValidation, f.CourtNumber, v.TotalCourts)
	}

	return Form{
		BookingDate: date.Format(model.DateLayout),
		StartTime:   start.String(),
		EndTime:     end.String(),
		CourtNumber: f.CourtNumber,
	}, "", nil
}

// Package pricing derives booking totals from a venue's hourly rate.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

var sixty = decimal.NewFromInt(60)

// Amount returns (end-start in hours) × pricePerHour rounded to cents.  A
// zero or negative interval, or a negative rate, yields zero.
func Amount(pricePerHour decimal.Decimal, start, end model.TimeOfDay) decimal.Decimal {
	minutes := end.Minutes() - start.Minutes()
	if minutes <= 0 || pricePerHour.IsNegative() {
		return decimal.Zero
	}
	return pricePerHour.Mul(decimal.NewFromInt(int64(minutes))).Div(sixty).Round(2)
}

// Quote parses raw form times and prices them against v.  Unparseable
// input or a missing venue quotes zero so that a half-filled form never
// shows a stale total.
func Quote(v *model.Venue, start, end string) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	s, err := model.ParseTimeOfDay(start)
	if err != nil {
		return decimal.Zero
	}
	e, err := model.ParseTimeOfDay(end)
	if err != nil {
		return decimal.Zero
	}
	return Amount(v.PricePerHour, s, e)
}

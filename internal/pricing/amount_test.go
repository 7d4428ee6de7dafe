package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

func tod(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	v, err := model.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestAmount(t *testing.T) {
	cases := []struct {
		price      string
		start, end string
		want       string
	}{
		{"20", "10:00", "12:00", "40.00"},
		{"20", "10:00", "10:30", "10.00"},
		{"15.50", "08:00", "09:45", "27.13"},
		{"0", "10:00", "12:00", "0.00"},
		{"20", "14:00", "13:00", "0.00"},
		{"20", "10:00", "10:00", "0.00"},
		{"-5", "10:00", "12:00", "0.00"},
	}
	for _, tc := range cases {
		got := Amount(decimal.RequireFromString(tc.price), tod(t, tc.start), tod(t, tc.end))
		if got.StringFixed(2) != tc.want {
			t.Errorf("Amount(%s, %s, %s) = %s, want %s", tc.price, tc.start, tc.end, got.StringFixed(2), tc.want)
		}
	}
}

func TestAmountMonotonicAndNonNegative(t *testing.T) {
	price := decimal.RequireFromString("12.75")
	start := model.TimeOfDay(6 * 60)
	prev := decimal.Zero
	for end := model.TimeOfDay(0); end < 24*60; end += 7 {
		got := Amount(price, start, end)
		if got.IsNegative() {
			t.Fatalf("negative amount for end=%s", end)
		}
		if end > start && got.LessThan(prev) {
			t.Fatalf("amount decreased at end=%s: %s < %s", end, got, prev)
		}
		prev = got
	}
}

func TestQuote(t *testing.T) {
	v := &model.Venue{PricePerHour: decimal.NewFromInt(20), TotalCourts: 3}
	if got := Quote(v, "10:00:30", "12:00"); got.StringFixed(2) != "40.00" {
		t.Errorf("Quote = %s, want 40.00", got)
	}
	if got := Quote(v, "", "12:00"); !got.IsZero() {
		t.Errorf("Quote with empty start = %s, want 0", got)
	}
	if got := Quote(nil, "10:00", "12:00"); !got.IsZero() {
		t.Errorf("Quote without venue = %s, want 0", got)
	}
}

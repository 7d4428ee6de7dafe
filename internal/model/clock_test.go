package model

import (
	"errors"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10:00", "10:00"},
		{"9:05", "09:05"},
		{"14:30:59", "14:30"},
		{" 23:59 ", "23:59"},
		{"00:00:00", "00:00"},
	}
	for _, tc := range cases {
		got, err := NormalizeTime(tc.in)
		if err != nil {
			t.Fatalf("NormalizeTime(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseTimeOfDayRejects(t *testing.T) {
	for _, in := range []string{"", "10", "24:00", "10:60", "10:5", "ab:cd", "10:00:61", "1:2:3:4", "100:00", "+9:00", "-1:00", "10:+5", "10:00:5", "10:00:+5", "١٠:00"} {
		if _, err := ParseTimeOfDay(in); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("ParseTimeOfDay(%q) err = %v, want ErrInvalidTime", in, err)
		}
	}
}

func TestVenueMatches(t *testing.T) {
	v := Venue{Name: "Riverside Courts", Location: "North Bank", Description: "Clay", SportType: SportTennis}

	if !v.Matches("river", "") {
		t.Error("term should match name case-insensitively")
	}
	if !v.Matches("NORTH", SportTennis) {
		t.Error("term should match location")
	}
	if !v.Matches("", "") {
		t.Error("empty filters should match")
	}
	if v.Matches("", SportBadminton) {
		t.Error("category should narrow")
	}
	if v.Matches("grass", "") {
		t.Error("unrelated term should not match")
	}
	if !v.Matches("clay", ParseSportType(" tennis ")) {
		t.Error("parsed category should match")
	}
}

func TestValidCourt(t *testing.T) {
	v := &Venue{TotalCourts: 3}
	for n, want := range map[int]bool{0: false, 1: true, 3: true, 4: false, -1: false} {
		if got := v.ValidCourt(n); got != want {
			t.Errorf("ValidCourt(%d) = %v, want %v", n, got, want)
		}
	}
}

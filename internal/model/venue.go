package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SportType classifies a venue.  The collaborator may introduce new values,
// so the type is an open string rather than a closed enum.
type SportType string

const (
	SportTennis      SportType = "TENNIS"
	SportBadminton   SportType = "BADMINTON"
	SportBasketball  SportType = "BASKETBALL"
	SportFootball    SportType = "FOOTBALL"
	SportCricket     SportType = "CRICKET"
	SportSquash      SportType = "SQUASH"
	SportTableTennis SportType = "TABLE_TENNIS"
	SportVolleyball  SportType = "VOLLEYBALL"
)

// ParseSportType upper-cases and trims a category filter.  An empty input
// yields an empty SportType which callers treat as "no filter".
func ParseSportType(s string) SportType {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return SportType(s)
}

// Venue is a bookable facility as served by GET /venues and
// GET /venues/{id}.  The portal never mutates a venue and never keeps one
// across views.
//
// Fields:
//
//	ID           – venues.id.
//	Name         – display name.
//	Location     – free-text address.
//	SportType    – category, see SportType.
//	TotalCourts  – number of courts, always >= 1 for a bookable venue.
//	PricePerHour – hourly rate, non-negative.
//	Description  – free text.
//	ImageURL     – optional picture.
//	Facilities   – optional free text.
//	OpeningTime  – optional HH:MM.
//	ClosingTime  – optional HH:MM.
type Venue struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Location     string          `json:"location"`
	SportType    SportType       `json:"sportType"`
	TotalCourts  int             `json:"totalCourts"`
	PricePerHour decimal.Decimal `json:"pricePerHour"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Facilities   string          `json:"facilities,omitempty"`
	OpeningTime  string          `json:"openingTime,omitempty"`
	ClosingTime  string          `json:"closingTime,omitempty"`
}

// ValidCourt reports whether n is a court number in [1, TotalCourts].
func (v *Venue) ValidCourt(n int) bool {
	return v != nil && n >= 1 && n <= v.TotalCourts
}

// Matches reports whether the venue satisfies a free-text term and a
// category.  The term is matched case-insensitively against name, location
// and description; an empty term or category matches everything.
func (v *Venue) Matches(term string, category SportType) bool {
	if category != "" && ParseSportType(string(v.SportType)) != category {
		return false
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{v.Name, v.Location, v.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

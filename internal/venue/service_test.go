package venue

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/apitest"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

func seed(srv *apitest.Server) {
	srv.AddVenue(model.Venue{ID: 1, Name: "Riverside Courts", Location: "North Bank", SportType: model.SportTennis, TotalCourts: 4, PricePerHour: decimal.NewFromInt(20)})
	srv.AddVenue(model.Venue{ID: 2, Name: "Shuttle Hall", Location: "Old Town", SportType: model.SportBadminton, TotalCourts: 6, PricePerHour: decimal.NewFromInt(12)})
	srv.AddVenue(model.Venue{ID: 3, Name: "Town Arena", Location: "Centre", Description: "indoor riverside view", SportType: model.SportBasketball, TotalCourts: 1, PricePerHour: decimal.NewFromInt(50)})
}

func ids(vs []model.Venue) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearch(t *testing.T) {
	srv := apitest.New(t)
	seed(srv)
	svc := NewService(srv.Client(), zerolog.Nop())
	ctx := context.Background()

	cases := []struct {
		term     string
		category model.SportType
		want     []int64
	}{
		{"", "", []int64{1, 2, 3}},
		{"RIVERSIDE", "", []int64{1, 3}},
		{"riverside", "tennis", []int64{1}},
		{"", "badminton", []int64{2}},
		{"nowhere", "", []int64{}},
	}
	for _, tc := range cases {
		got, err := svc.Search(ctx, tc.term, tc.category)
		if err != nil {
			t.Fatalf("Search(%q, %q): %v", tc.term, tc.category, err)
		}
		if got == nil {
			t.Errorf("Search(%q, %q) returned nil", tc.term, tc.category)
		}
		if !equal(ids(got), tc.want) {
			t.Errorf("Search(%q, %q) = %v, want %v", tc.term, tc.category, ids(got), tc.want)
		}
	}

	calls := srv.Calls(apitest.RouteSearch)
	if q := calls[2].Query; q["q"] != "riverside" || q["sportType"] != "TENNIS" {
		t.Errorf("query = %v", q)
	}
}

func TestSearchFiltersLocally(t *testing.T) {
	srv := apitest.New(t)
	seed(srv)
	srv.SetIgnoreSearch(true)
	svc := NewService(srv.Client(), zerolog.Nop())

	got, err := svc.Search(context.Background(), "", model.SportBadminton)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(ids(got), []int64{2}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestSearchFallsBackToList(t *testing.T) {
	srv := apitest.New(t)
	seed(srv)
	srv.Fail(apitest.RouteSearch, apitest.Failure{Status: http.StatusInternalServerError})
	svc := NewService(srv.Client(), zerolog.Nop())

	got, err := svc.Search(context.Background(), "hall", "")
	if err != nil {
		t.Fatal(err)
	}
	if !equal(ids(got), []int64{2}) {
		t.Errorf("got %v", ids(got))
	}
	if srv.Count(apitest.RouteVenues) != 1 {
		t.Error("list fallback not used")
	}
}

func TestUnauthorizedNeedsLogin(t *testing.T) {
	srv := apitest.New(t)
	seed(srv)
	srv.SetVenuesPrivate(true)
	svc := NewService(srv.Client(), zerolog.Nop())

	_, err := svc.Search(context.Background(), "", "")
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("err = %v", err)
	}
	if srv.Count(apitest.RouteVenues) != 0 {
		t.Error("authorization failure should not fall back")
	}
	if Message(err) != MsgLoginFirst {
		t.Errorf("message = %q", Message(err))
	}

	_, err = svc.List(context.Background())
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("List err = %v", err)
	}
}

func TestListErrorMessages(t *testing.T) {
	srv := apitest.New(t)
	svc := NewService(srv.Client(), zerolog.Nop())

	srv.Fail(apitest.RouteVenues, apitest.Failure{Status: http.StatusInternalServerError})
	_, err := svc.List(context.Background())
	if Message(err) != MsgServerError {
		t.Errorf("500 message = %q", Message(err))
	}

	srv.Fail(apitest.RouteVenues, apitest.Failure{Status: http.StatusBadGateway})
	_, err = svc.List(context.Background())
	if Message(err) != MsgLoadFailed {
		t.Errorf("502 message = %q", Message(err))
	}

	vs, err := svc.List(context.Background())
	if err != nil || vs == nil || len(vs) != 0 {
		t.Errorf("empty list = %v, %v", vs, err)
	}
}

func TestGet(t *testing.T) {
	srv := apitest.New(t)
	seed(srv)
	svc := NewService(srv.Client(), zerolog.Nop())
	ctx := context.Background()

	v, err := svc.Get(ctx, 2)
	if err != nil || v.Name != "Shuttle Hall" {
		t.Fatalf("Get = %+v, %v", v, err)
	}
	if _, err := svc.Get(ctx, 99); !errors.Is(err, ErrVenueNotFound) {
		t.Errorf("missing venue err = %v", err)
	}
	before := srv.Count("")
	if _, err := svc.Get(ctx, 0); !errors.Is(err, ErrVenueNotFound) {
		t.Errorf("zero id err = %v", err)
	}
	if srv.Count("") != before {
		t.Error("invalid id reached the server")
	}
}

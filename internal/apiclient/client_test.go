package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/apitest"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

type tokenBox struct{ tok string }

func (b *tokenBox) Token() string { return b.tok }

func TestBearerFollowsTokenSource(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("abc", model.Identity{ID: 1, Username: "ana", Role: model.RoleUser})

	box := &tokenBox{}
	c := srv.Client().WithTokenSource(box)
	ctx := context.Background()

	if _, err := c.Me(ctx); !apiclient.IsUnauthorized(err) {
		t.Fatalf("Me without token: err = %v, want unauthorized", err)
	}
	box.tok = "abc"
	id, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if id.ID != 1 || id.Username != "ana" {
		t.Fatalf("Me = %+v", id)
	}

	calls := srv.Calls(apitest.RouteMe)
	if calls[0].Auth != "" {
		t.Errorf("first call carried Authorization %q", calls[0].Auth)
	}
	if calls[1].Auth != "Bearer abc" {
		t.Errorf("second call Authorization = %q", calls[1].Auth)
	}
}

func TestWithTokenDoesNotMutateParent(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("abc", model.Identity{ID: 1})
	base := srv.Client()
	_ = base.WithToken("abc")
	if _, err := base.Me(context.Background()); !apiclient.IsUnauthorized(err) {
		t.Fatalf("base client gained a token: %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   apiclient.Kind
		msg    string
	}{
		{http.StatusForbidden, `{"error":"access_denied"}`, apiclient.KindUnauthorized, "access_denied"},
		{http.StatusUnauthorized, `{"error":"Unauthorized"}`, apiclient.KindUnauthorized, "fallback"},
		{http.StatusNotFound, `{"message":"Venue not found"}`, apiclient.KindNotFound, "Venue not found"},
		{http.StatusConflict, `{"status":409,"error":"Conflict","message":"Slot taken"}`, apiclient.KindConflict, "Slot taken"},
		{http.StatusBadRequest, `"Error: Username is already taken!"`, apiclient.KindInvalid, "Error: Username is already taken!"},
		{http.StatusInternalServerError, `boom`, apiclient.KindServer, "boom"},
		{http.StatusBadGateway, ``, apiclient.KindServer, "fallback"},
		{http.StatusTeapot, `{"error":{"message":"nested"}}`, apiclient.KindUnexpected, "nested"},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		_, err := apiclient.New(ts.URL, nil).ListVenues(context.Background())
		ts.Close()

		var apiErr *apiclient.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: err = %v, want *apiclient.Error", tc.status, err)
		}
		if apiErr.Kind != tc.kind {
			t.Errorf("status %d: kind = %s, want %s", tc.status, apiErr.Kind, tc.kind)
		}
		if got := apiErr.UserMessage("fallback"); got != tc.msg {
			t.Errorf("status %d: message = %q, want %q", tc.status, got, tc.msg)
		}
	}
}

func TestStructuredErrorPreferredOverMessage(t *testing.T) {
	e := &apiclient.Error{Code: "card_declined", Message: "Payment failed", Err: errors.New("eof")}
	if got := e.UserMessage("x"); got != "card_declined" {
		t.Errorf("got %q", got)
	}
	e.Code = ""
	if got := e.UserMessage("x"); got != "Payment failed" {
		t.Errorf("got %q", got)
	}
	e.Message = ""
	if got := e.UserMessage("x"); got != "eof" {
		t.Errorf("got %q", got)
	}
	e.Err = nil
	if got := e.UserMessage("x"); got != "x" {
		t.Errorf("got %q", got)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail(apitest.RouteVenues, apitest.Failure{Status: 0})
	_, err := srv.Client().ListVenues(context.Background())
	if apiclient.KindOf(err) != apiclient.KindTransport {
		t.Fatalf("err = %v, want transport", err)
	}
	if apiclient.UserMessage(err, "fallback") == "fallback" {
		t.Error("transport error text should be preferred over the fallback")
	}
}

func TestCheckAvailabilityTruthiness(t *testing.T) {
	cases := map[string]bool{
		`true`:                 true,
		`false`:                false,
		`1`:                    true,
		`0`:                    false,
		`"true"`:               true,
		`"false"`:              false,
		`{"available":true}`:   true,
		`{"available":false}`:  false,
		`null`:                 false,
		``:                     false,
		`{"something":"else"}`: false,
	}
	for payload, want := range cases {
		var gotQuery map[string][]string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			_, _ = w.Write([]byte(payload))
		}))
		ok, err := apiclient.New(ts.URL, nil).CheckAvailability(context.Background(), apiclient.AvailabilityQuery{
			VenueID: 7, Date: "2026-11-02", StartTime: "10:00", EndTime: "12:00", CourtNumber: 2,
		})
		ts.Close()
		if err != nil {
			t.Fatalf("payload %q: %v", payload, err)
		}
		if ok != want {
			t.Errorf("payload %q: got %v, want %v", payload, ok, want)
		}
		if gotQuery["venueId"][0] != "7" || gotQuery["courtNumber"][0] != "2" || gotQuery["startTime"][0] != "10:00" {
			t.Errorf("query = %v", gotQuery)
		}
	}
}

func TestCreatePaymentSendsIdempotencyKey(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("abc", model.Identity{ID: 3})
	c := srv.Client().WithToken("abc")

	p := model.Payment{BookingID: 101, UserID: 3, Amount: decimal.RequireFromString("40.00"),
		Method: model.MethodUPI, Status: model.PaymentCompleted, TransactionID: "TXN-1-aa"}
	first, err := c.CreatePayment(context.Background(), p, p.TransactionID)
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	second, err := c.CreatePayment(context.Background(), p, p.TransactionID)
	if err != nil {
		t.Fatalf("CreatePayment retry: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("server did not deduplicate: %d != %d", first.ID, second.ID)
	}
	calls := srv.Calls(apitest.RoutePayments)
	if calls[0].Idempotency != "TXN-1-aa" {
		t.Errorf("Idempotency-Key = %q", calls[0].Idempotency)
	}
	if amt, _ := calls[0].Body["amount"].(float64); amt != 40 {
		t.Errorf("amount sent as %#v, want JSON number 40", calls[0].Body["amount"])
	}
	if calls[0].Body["transactionId"] != "TXN-1-aa" || calls[0].Body["bookingId"] != float64(101) {
		t.Errorf("payment body = %v", calls[0].Body)
	}

	// Outside the wire bodies decimals keep their default quoted encoding.
	raw, _ := json.Marshal(p.Amount)
	if string(raw) != `"40"` {
		t.Errorf("decimal encoding changed globally: %s", raw)
	}
}

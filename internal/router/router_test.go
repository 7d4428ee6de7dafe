package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/apitest"
	"github.com/iliyamo/sportsvenue-portal/internal/middleware"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
	"github.com/iliyamo/sportsvenue-portal/internal/portal"
	"github.com/iliyamo/sportsvenue-portal/internal/repository"
)

type browser struct {
	t      *testing.T
	e      *echo.Echo
	cookie *http.Cookie
}

func (b *browser) do(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	b.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.CookieName {
			b.cookie = ck
		}
	}
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func setup(t *testing.T) (*apitest.Server, *browser) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("tok", model.Identity{ID: 3, Username: "ana", Role: model.RoleUser})
	srv.AddVenue(model.Venue{ID: 7, Name: "Riverside", SportType: model.SportTennis, TotalCourts: 3, PricePerHour: decimal.NewFromInt(20)})
	srv.AddVenue(model.Venue{ID: 8, Name: "Hilltop Arena", SportType: model.SportBadminton, TotalCourts: 2, PricePerHour: decimal.NewFromInt(15)})

	reg := portal.NewRegistry(srv.Client(), repository.NewMemoryAttemptRepo())
	e := New(Deps{Registry: reg, SessionTTL: time.Hour, Log: zerolog.Nop()})
	return srv, &browser{t: t, e: e}
}

func TestHealth(t *testing.T) {
	_, b := setup(t)
	rec, _ := b.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestBookAndPay(t *testing.T) {
	srv, b := setup(t)

	rec, body := b.do(http.MethodGet, "/venues/7/book", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/login?from=%2Fvenues%2F7%2Fbook" {
		t.Fatalf("anonymous booking = %d %v", rec.Code, body)
	}

	rec, body = b.do(http.MethodPost, "/session/login?from=/venues/7/book", `{"token":"tok","user":{"id":3,"username":"ana"}}`)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/venues/7/book" || body["phase"] != "VERIFIED" {
		t.Fatalf("login = %d %v", rec.Code, body)
	}

	rec, body = b.do(http.MethodGet, "/venues/7/book", "")
	if rec.Code != http.StatusOK || body["step"] != "READY" {
		t.Fatalf("start = %d %v", rec.Code, body)
	}

	date := time.Now().AddDate(0, 0, 7).Format(model.DateLayout)
	form := `{"bookingDate":"` + date + `","startTime":"10:00","endTime":"12:00","courtNumber":2}`
	rec, body = b.do(http.MethodPost, "/venues/7/book/quote", form)
	amt, _ := body["totalAmount"].(string)
	if total, err := decimal.NewFromString(amt); rec.Code != http.StatusOK || err != nil || !total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("quote = %d %v", rec.Code, body)
	}

	rec, body = b.do(http.MethodPost, "/venues/7/book", `{"bookingDate":"`+date+`","startTime":"12:00","endTime":"10:00","courtNumber":2}`)
	if rec.Code != http.StatusUnprocessableEntity || body["notice"] != "End time must be after start time" {
		t.Fatalf("invalid submit = %d %v", rec.Code, body)
	}

	rec, body = b.do(http.MethodPost, "/venues/7/book", form)
	loc := rec.Header().Get(echo.HeaderLocation)
	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(loc, "/payment/") || body["step"] != "SUCCESS" {
		t.Fatalf("submit = %d %v", rec.Code, body)
	}

	rec, body = b.do(http.MethodGet, loc, "")
	if rec.Code != http.StatusOK || body["step"] != "READY" || body["paymentMethod"] != "CARD" {
		t.Fatalf("payment page = %d %v", rec.Code, body)
	}

	srv.Fail(apitest.RouteStatus, apitest.Failure{Status: http.StatusInternalServerError})
	rec, body = b.do(http.MethodPost, loc, `{"paymentMethod":"CARD","cardNumber":"4111111111111111","expiryDate":"1228","cvv":"1234"}`)
	if rec.Code != http.StatusBadGateway || body["step"] != "FAILURE" {
		t.Fatalf("failed payment = %d %v", rec.Code, body)
	}

	rec, body = b.do(http.MethodPost, loc, `{"paymentMethod":"CARD","cardNumber":"4111111111111111","expiryDate":"1228","cvv":"123"}`)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/bookings" || body["step"] != "CONFIRMED" {
		t.Fatalf("payment = %d %v", rec.Code, body)
	}
	if n := srv.Count(apitest.RoutePayments); n != 1 {
		t.Errorf("payments created = %d, want 1", n)
	}
	p := srv.Calls(apitest.RoutePayments)[0]
	if p.Body["cardNumber"] != "4111111111111111" || p.Body["cvv"] != "123" {
		t.Errorf("payment body = %v", p.Body)
	}
	id := strings.TrimPrefix(loc, "/payment/")
	for _, c := range srv.Calls(apitest.RouteStatus) {
		if c.Body["status"] != "CONFIRMED" {
			t.Errorf("status update = %v (booking %s)", c.Body, id)
		}
	}
}

func TestVenueSearch(t *testing.T) {
	_, b := setup(t)

	rec, body := b.do(http.MethodGet, "/venues", "")
	if rec.Code != http.StatusOK || len(body["venues"].([]any)) != 2 {
		t.Fatalf("list = %d %v", rec.Code, body)
	}
	rec, body = b.do(http.MethodGet, "/venues?sportType=badminton", "")
	vs := body["venues"].([]any)
	if rec.Code != http.StatusOK || len(vs) != 1 || vs[0].(map[string]any)["name"] != "Hilltop Arena" {
		t.Fatalf("search = %d %v", rec.Code, body)
	}
	_, body = b.do(http.MethodGet, "/venues?q=nothing-matches", "")
	if len(body["venues"].([]any)) != 0 {
		t.Errorf("no-match search = %v", body)
	}
}

func TestLoginErrors(t *testing.T) {
	_, b := setup(t)
	if rec, _ := b.do(http.MethodPost, "/session/login", `{}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty login = %d", rec.Code)
	}
	if rec, _ := b.do(http.MethodPost, "/session/login", `{"token":"bogus","user":{"id":3}}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token = %d", rec.Code)
	}
	rec, body := b.do(http.MethodPost, "/session/login?from=//evil.example", `{"token":"tok","user":{"id":3}}`)
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderLocation) != "" {
		t.Errorf("open redirect = %d %q %v", rec.Code, rec.Header().Get(echo.HeaderLocation), body)
	}
	rec, body = b.do(http.MethodPost, "/session/logout", "")
	if rec.Code != http.StatusOK || body["phase"] != "ANONYMOUS" {
		t.Errorf("logout = %d %v", rec.Code, body)
	}
}

func TestAdminRoute(t *testing.T) {
	srv, b := setup(t)
	srv.AddUser("root", model.Identity{ID: 1, Username: "root", Role: model.RoleAdmin})

	b.do(http.MethodPost, "/session/login", `{"token":"tok","user":{"id":3}}`)
	if rec, _ := b.do(http.MethodPost, "/admin/users", `{"username":"x","email":"x@example.com","password":"secret1"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin = %d", rec.Code)
	}

	b.do(http.MethodPost, "/session/login", `{"token":"root","user":{"id":1}}`)
	rec, body := b.do(http.MethodPost, "/admin/users", `{"username":"x","email":"bad","password":"123"}`)
	if rec.Code != http.StatusUnprocessableEntity || body["errors"] == nil {
		t.Fatalf("invalid = %d %v", rec.Code, body)
	}
	rec, body = b.do(http.MethodPost, "/admin/users", `{"username":"x","email":"x@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated || body["notice"] != "New admin user created successfully!" {
		t.Fatalf("create = %d %v", rec.Code, body)
	}
	rec, _ = b.do(http.MethodPost, "/admin/users", `{"username":"x","email":"y@example.com","password":"secret1"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate = %d", rec.Code)
	}
}

// Package apitest runs an in-process stand-in for the venue booking REST
// API.  Tests use it to drive the real apiclient over HTTP and to count the
// calls a flow made.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// Route keys name an endpoint the way echo registers it.
const (
	RouteLogin         = "POST /auth/login"
	RouteMe            = "GET /users/me"
	RouteRegisterAdmin = "POST /users/register/admin"
	RouteVenues        = "GET /venues"
	RouteSearch        = "GET /venues/search"
	RouteVenue         = "GET /venues/:id"
	RouteAvailable     = "GET /bookings/available"
	RouteCreateBooking = "POST /bookings"
	RouteBooking       = "GET /bookings/:id"
	RouteStatus        = "PUT /bookings/:id/status"
	RoutePayments      = "POST /payments"
)

// Call is one request received by the server.
type Call struct {
	Route       string
	Query       map[string]string
	Auth        string
	Idempotency string
	Body        map[string]any
}

// Failure replaces the next Times responses of a route.  Status 0 drops
// the connection without answering.
type Failure struct {
	Status int
	Body   any
	Times  int
}

type credential struct {
	password string
	token    string
}

// Server is the fake collaborator.  Exported maps may be seeded before the
// first request; afterwards use the methods, which lock.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	users         map[string]model.Identity
	logins        map[string]credential
	venues        map[int64]model.Venue
	bookings      map[int64]model.Booking
	payments      []model.Payment
	available     bool
	nextBookingID int64
	nextPaymentID int64
	calls         []Call
	failures      map[string]*Failure
	holds         map[string]*hold
	venuesPrivate bool
	ignoreSearch  bool
}

type hold struct {
	entered chan struct{}
	release chan struct{}
}

// New starts a server and closes it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		users:         map[string]model.Identity{},
		logins:        map[string]credential{},
		venues:        map[int64]model.Venue{},
		bookings:      map[int64]model.Booking{},
		available:     true,
		nextBookingID: 100,
		nextPaymentID: 500,
		failures:      map[string]*Failure{},
		holds:         map[string]*hold{},
	}
	e := echo.New()
	e.HideBanner = true
	s.routes(e)
	// Without keep-alives the client never replays a request on a dropped
	// connection, so Failure{Status: 0} is observed exactly once.
	s.Server = httptest.NewUnstartedServer(e)
	s.Config.SetKeepAlivesEnabled(false)
	s.Start()
	tb.Cleanup(s.Close)
	return s
}

// Client returns an unauthenticated apiclient for the server.
func (s *Server) Client() *apiclient.Client {
	return apiclient.New(s.URL, s.Server.Client())
}

// AddUser registers token as a valid credential for id.
func (s *Server) AddUser(token string, id model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[token] = id
}

// AddLogin lets POST /auth/login exchange username/password for token.
// The token must also be registered with AddUser.
func (s *Server) AddLogin(username, password, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins[username] = credential{password: password, token: token}
}

// AddVenue stores v.
func (s *Server) AddVenue(v model.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.ID] = v
}

// AddBooking stores b.
func (s *Server) AddBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

// Booking returns the stored booking.
func (s *Server) Booking(id int64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// Payments returns every recorded payment.
func (s *Server) Payments() []model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Payment(nil), s.payments...)
}

// SetAvailable sets the availability answer.
func (s *Server) SetAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = ok
}

// SetVenuesPrivate makes venue listing answer 403 without a credential.
func (s *Server) SetVenuesPrivate(private bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venuesPrivate = private
}

// SetIgnoreSearch makes /venues/search return every venue.
func (s *Server) SetIgnoreSearch(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignoreSearch = ignore
}

// Fail injects a failure for route.
func (s *Server) Fail(route string, f Failure) {
	if f.Times == 0 {
		f.Times = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &f
}

// Hold parks the next request to route until release is called.  entered
// is closed once the request has arrived.
func (s *Server) Hold(route string) (entered <-chan struct{}, release func()) {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[route] = h
	s.mu.Unlock()
	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

// Calls returns the calls made to route, or every call when route is "".
func (s *Server) Calls(route string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if route == "" || c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// Count returns len(Calls(route)).
func (s *Server) Count(route string) int { return len(s.Calls(route)) }

func (s *Server) routes(e *echo.Echo) {
	e.Use(s.record)
	e.POST("/auth/login", s.login)
	e.GET("/users/me", s.me, s.requireUser)
	e.POST("/users/register/admin", s.registerAdmin, s.requireUser)
	e.GET("/venues", s.listVenues, s.venueGate)
	e.GET("/venues/search", s.searchVenues, s.venueGate)
	e.GET("/venues/:id", s.getVenue, s.venueGate)
	e.GET("/bookings/available", s.availability, s.requireUser)
	e.POST("/bookings", s.createBooking, s.requireUser)
	e.GET("/bookings/:id", s.getBooking, s.requireUser)
	e.PUT("/bookings/:id/status", s.updateStatus, s.requireUser)
	e.POST("/payments", s.createPayment, s.requireUser)
}

// record logs the call, then applies holds and injected failures.
func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := c.Request().Method + " " + c.Path()
		call := Call{
			Route:       route,
			Query:       map[string]string{},
			Auth:        c.Request().Header.Get("Authorization"),
			Idempotency: c.Request().Header.Get(apiclient.IdempotencyHeader),
		}
		for k := range c.QueryParams() {
			call.Query[k] = c.QueryParam(k)
		}
		if c.Request().ContentLength != 0 && c.Request().Body != nil {
			var body map[string]any
			if err := (&echo.DefaultBinder{}).BindBody(c, &body); err == nil {
				call.Body = body
			}
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		h := s.holds[route]
		delete(s.holds, route)
		f := s.failures[route]
		if f != nil {
			f.Times--
			if f.Times <= 0 {
				delete(s.failures, route)
			}
		}
		s.mu.Unlock()

		if h != nil {
			close(h.entered)
			<-h.release
		}
		if f != nil {
			if f.Status == 0 {
				conn, _, err := c.Response().Hijack()
				if err == nil {
					_ = conn.Close()
				}
				return nil
			}
			if f.Body == nil {
				return c.NoContent(f.Status)
			}
			return c.JSON(f.Status, f.Body)
		}
		// The body was consumed above; handlers read the recorded copy.
		c.Set("body", call.Body)
		return next(c)
	}
}

func (s *Server) identity(c echo.Context) (model.Identity, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return model.Identity{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.users[strings.TrimPrefix(auth, "Bearer ")]
	return id, ok
}

func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := s.identity(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		c.Set("user", id)
		return next(c)
	}
}

func (s *Server) venueGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		private := s.venuesPrivate
		s.mu.Unlock()
		if private {
			if _, ok := s.identity(c); !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Access Denied"})
			}
		}
		return next(c)
	}
}

func body(c echo.Context) map[string]any {
	m, _ := c.Get("body").(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func str(m map[string]any, k string) string {
	s, _ := m[k].(string)
	return s
}

func num(m map[string]any, k string) float64 {
	switch v := m[k].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

package apitest

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

func (s *Server) login(c echo.Context) error {
	b := body(c)
	s.mu.Lock()
	cred, ok := s.logins[str(b, "username")]
	var id model.Identity
	if ok {
		id, ok = s.users[cred.token]
	}
	s.mu.Unlock()
	if !ok || cred.password != str(b, "password") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid username or password"})
	}
	return c.JSON(http.StatusOK, apiclient.LoginResult{Token: cred.token, User: id})
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, c.Get("user"))
}

func (s *Server) registerAdmin(c echo.Context) error {
	if id, _ := c.Get("user").(model.Identity); !id.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	b := body(c)
	name := str(b, "username")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.logins[name]; taken {
		return c.String(http.StatusBadRequest, "Error: Username is already taken!")
	}
	token := "tok-" + name
	s.logins[name] = credential{password: str(b, "password"), token: token}
	s.users[token] = model.Identity{ID: int64(len(s.users) + 1000), Username: name, Email: str(b, "email"), Role: model.RoleAdmin}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Admin registered successfully"})
}

func (s *Server) sortedVenues() []model.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listVenues(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sortedVenues())
}

func (s *Server) searchVenues(c echo.Context) error {
	s.mu.Lock()
	ignore := s.ignoreSearch
	s.mu.Unlock()
	all := s.sortedVenues()
	if ignore {
		return c.JSON(http.StatusOK, all)
	}
	term := c.QueryParam("q")
	sport := model.ParseSportType(c.QueryParam("sportType"))
	out := []model.Venue{}
	for _, v := range all {
		if v.Matches(term, sport) {
			out = append(out, v)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getVenue(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	s.mu.Lock()
	v, found := s.venues[id]
	s.mu.Unlock()
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Venue not found"})
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) availability(c echo.Context) error {
	s.mu.Lock()
	ok := s.available
	s.mu.Unlock()
	return c.JSON(http.StatusOK, ok)
}

func (s *Server) createBooking(c echo.Context) error {
	b := body(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBookingID++
	bk := model.Booking{
		ID:          s.nextBookingID,
		VenueID:     int64(num(b, "venueId")),
		UserID:      int64(num(b, "userId")),
		BookingDate: str(b, "bookingDate"),
		StartTime:   str(b, "startTime"),
		EndTime:     str(b, "endTime"),
		CourtNumber: int(num(b, "courtNumber")),
		TotalAmount: decimal.NewFromFloat(num(b, "totalAmount")),
		Status:      model.BookingPending,
	}
	s.bookings[bk.ID] = bk
	return c.JSON(http.StatusCreated, bk)
}

func (s *Server) getBooking(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	s.mu.Lock()
	bk, found := s.bookings[id]
	if found && bk.Venue == nil {
		if v, ok := s.venues[bk.VenueID]; ok {
			bk.Venue = &v
		}
	}
	s.mu.Unlock()
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
	}
	return c.JSON(http.StatusOK, bk)
}

func (s *Server) updateStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	status := strings.ToUpper(str(body(c), "status"))
	s.mu.Lock()
	defer s.mu.Unlock()
	bk, found := s.bookings[id]
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
	}
	bk.Status = model.BookingStatus(status)
	s.bookings[id] = bk
	return c.JSON(http.StatusOK, bk)
}

// createPayment deduplicates on the idempotency key.
func (s *Server) createPayment(c echo.Context) error {
	b := body(c)
	key := c.Request().Header.Get(apiclient.IdempotencyHeader)
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		for _, p := range s.payments {
			if p.TransactionID == key {
				return c.JSON(http.StatusOK, p)
			}
		}
	}
	s.nextPaymentID++
	now := time.Now().UTC()
	p := model.Payment{
		ID:            s.nextPaymentID,
		BookingID:     int64(num(b, "bookingId")),
		UserID:        int64(num(b, "userId")),
		Amount:        decimal.NewFromFloat(num(b, "amount")),
		Method:        model.PaymentMethod(str(b, "paymentMethod")),
		Status:        str(b, "status"),
		TransactionID: str(b, "transactionId"),
		PaymentDate:   &now,
	}
	s.payments = append(s.payments, p)
	return c.JSON(http.StatusCreated, p)
}

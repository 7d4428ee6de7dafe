// Package handler exposes the portal's page flows over HTTP.  Views are
// returned as JSON; a view carrying a redirect is answered with 303 and a
// Location header.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/booking"
	"github.com/iliyamo/sportsvenue-portal/internal/middleware"
	"github.com/iliyamo/sportsvenue-portal/internal/payment"
	"github.com/iliyamo/sportsvenue-portal/internal/portal"
)

// Handler serves every portal page.  The workspace for the request comes
// from middleware.BrowserSession.
type Handler struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Handler { return &Handler{log: log} }

func workspace(c echo.Context) (*portal.Workspace, error) {
	ws := middleware.Workspace(c)
	if ws == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "no browser session")
	}
	return ws, nil
}

// view writes v.  A non-empty redirect wins over status.
func view(c echo.Context, status int, redirect string, v any) error {
	if redirect != "" {
		c.Response().Header().Set(echo.HeaderLocation, redirect)
		return c.JSON(http.StatusSeeOther, v)
	}
	return c.JSON(status, v)
}

// statusFor maps flow errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, booking.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, payment.ErrInvalidMethod), errors.Is(err, payment.ErrNotReady):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrSlotUnavailable), errors.Is(err, booking.ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, booking.ErrSubmitInProgress), errors.Is(err, payment.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, booking.ErrStale), errors.Is(err, payment.ErrStale):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidVenue), errors.Is(err, booking.ErrVenueNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSessionPending), errors.Is(err, payment.ErrSessionPending):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

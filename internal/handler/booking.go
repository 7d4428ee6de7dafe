package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/booking"
	"github.com/iliyamo/sportsvenue-portal/internal/portal"
)

// StartBooking handles GET /venues/:id/book.  Any booking page the browser
// had open is discarded.
func (h *Handler) StartBooking(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	v, err := ws.OpenBooking().Start(c.Request().Context(), c.Param("id"))
	return view(c, statusFor(err), v.Redirect, v)
}

// QuoteBooking handles POST /venues/:id/book/quote: store the draft and
// return the recomputed total.
func (h *Handler) QuoteBooking(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var form booking.Form
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid body"})
	}
	f, v, err := currentBooking(c.Request().Context(), ws, c.Param("id"))
	if err != nil {
		return view(c, statusFor(err), v.Redirect, v)
	}
	v, err = f.Edit(form)
	return view(c, statusFor(err), v.Redirect, v)
}

// SubmitBooking handles POST /venues/:id/book.  Success redirects to the
// payment page of the new booking.
func (h *Handler) SubmitBooking(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var form booking.Form
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	f, v, err := currentBooking(ctx, ws, c.Param("id"))
	if err != nil {
		return view(c, statusFor(err), v.Redirect, v)
	}
	v, err = f.Submit(ctx, form)
	return view(c, statusFor(err), v.Redirect, v)
}

// currentBooking returns the live flow for rawID, starting a new one when
// the browser has none for this venue or was sent to log in.
func currentBooking(ctx context.Context, ws *portal.Workspace, rawID string) (*booking.Flow, booking.View, error) {
	if f := ws.Booking(); f != nil {
		v := f.View()
		if strconv.FormatInt(v.VenueID, 10) == rawID && v.Venue != nil && v.Step != booking.StepRedirect {
			return f, v, nil
		}
	}
	f := ws.OpenBooking()
	v, err := f.Start(ctx, rawID)
	return f, v, err
}

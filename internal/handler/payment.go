package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
	"github.com/iliyamo/sportsvenue-portal/internal/payment"
	"github.com/iliyamo/sportsvenue-portal/internal/portal"
)

type paymentRequest struct {
	Method     string `json:"paymentMethod"`
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

// StartPayment handles GET /payment/:bookingId.
func (h *Handler) StartPayment(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	v, err := ws.OpenPayment().Start(c.Request().Context(), c.Param("bookingId"))
	return view(c, statusFor(err), v.Redirect, v)
}

// SubmitPayment handles POST /payment/:bookingId: apply the method and card
// fields, then pay.  A retry after a failure reuses the same transaction.
func (h *Handler) SubmitPayment(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	f, v, err := currentPayment(ctx, ws, c.Param("bookingId"))
	if err != nil {
		return view(c, statusFor(err), v.Redirect, v)
	}

	if req.Method != "" {
		if v, err = f.SelectMethod(req.Method); err != nil {
			return view(c, statusFor(err), v.Redirect, v)
		}
	}
	if v.Method == model.MethodCard {
		if v, err = f.EnterCard(req.CardNumber, req.ExpiryDate, req.CVV); err != nil {
			return view(c, statusFor(err), v.Redirect, v)
		}
	}
	v, err = f.Submit(ctx)
	return view(c, statusFor(err), v.Redirect, v)
}

// currentPayment returns the live flow for rawID, starting one when the
// browser has no usable flow for this booking.
func currentPayment(ctx context.Context, ws *portal.Workspace, rawID string) (*payment.Flow, payment.View, error) {
	if f := ws.Payment(); f != nil {
		v := f.View()
		if strconv.FormatInt(v.BookingID, 10) == rawID && v.Booking != nil && v.Step != payment.StepRedirect {
			return f, v, nil
		}
	}
	f := ws.OpenPayment()
	v, err := f.Start(ctx, rawID)
	return f, v, err
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/admin"
)

// RegisterAdmin handles POST /admin/users.  Gated by RequireRole(ADMIN).
func (h *Handler) RegisterAdmin(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var form admin.Form
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := admin.Register(c.Request().Context(), ws.Store.API(), form)
	switch {
	case err == nil:
		h.log.Info().Str("username", form.Username).Msg("admin user created")
		return c.JSON(http.StatusCreated, res)
	case errors.Is(err, admin.ErrInvalid):
		return c.JSON(http.StatusUnprocessableEntity, res)
	case len(res.Errors) > 0:
		return c.JSON(http.StatusConflict, res)
	}
	h.log.Warn().Err(err).Msg("admin registration failed")
	return c.JSON(http.StatusBadGateway, res)
}

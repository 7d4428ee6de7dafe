package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
)

type loginRequest struct {
	Token    string          `json:"token"`
	User     *model.Identity `json:"user"`
	Username string          `json:"username"`
	Password string          `json:"password"`
}

// Session handles GET /session.
func (h *Handler) Session(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ws.Store.Snapshot())
}

// Login handles POST /session/login with either {token, user} handed over
// from the login page or {username, password}.  A safe ?from= target
// turns success into a redirect.
func (h *Handler) Login(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	switch {
	case req.Token != "":
		var id model.Identity
		if req.User != nil {
			id = *req.User
		}
		err = ws.Store.Login(ctx, req.Token, id)
	case req.Username != "" && req.Password != "":
		err = ws.Store.LoginWithPassword(ctx, req.Username, req.Password)
	default:
		err = session.ErrInvalidLogin
	}

	st := ws.Store.Snapshot()
	switch {
	case err == nil:
		return view(c, http.StatusOK, safeReturn(c.QueryParam("from")), st)
	case errors.Is(err, session.ErrInvalidLogin):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Invalid login data"})
	case errors.Is(err, session.ErrVerificationFailed):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User verification failed"})
	}
	h.log.Warn().Err(err).Msg("login failed")
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "Login failed. Please try again."})
}

// Logout handles POST /session/logout.  Logging out twice is fine.
func (h *Handler) Logout(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Store.Logout(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Msg("logout: clear persisted session")
	}
	return c.JSON(http.StatusOK, ws.Store.Snapshot())
}

// safeReturn accepts only local absolute paths.
func safeReturn(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return ""
	}
	return from
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
	"github.com/iliyamo/sportsvenue-portal/internal/venue"
)

type venueList struct {
	Venues    []model.Venue   `json:"venues"`
	Term      string          `json:"q,omitempty"`
	SportType model.SportType `json:"sportType,omitempty"`
	Error     string          `json:"error,omitempty"`
	Redirect  string          `json:"redirect,omitempty"`
}

// Venues handles GET /venues?q=&sportType=.
func (h *Handler) Venues(c echo.Context) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	term := strings.TrimSpace(c.QueryParam("q"))
	category := model.ParseSportType(c.QueryParam("sportType"))
	out := venueList{Term: term, SportType: category, Venues: []model.Venue{}}

	ctx := c.Request().Context()
	var vs []model.Venue
	if term == "" && category == "" {
		vs, err = ws.Venues.List(ctx)
	} else {
		vs, err = ws.Venues.Search(ctx, term, category)
	}
	switch {
	case err == nil:
		out.Venues = vs
		return c.JSON(http.StatusOK, out)
	case errors.Is(err, venue.ErrReauthRequired):
		out.Error = venue.Message(err)
		out.Redirect = session.LoginPath(c.Request().URL.RequestURI())
		return view(c, 0, out.Redirect, out)
	}
	out.Error = venue.Message(err)
	return c.JSON(http.StatusBadGateway, out)
}

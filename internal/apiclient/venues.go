package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// ListVenues returns every venue visible to the caller.
func (c *Client) ListVenues(ctx context.Context) ([]model.Venue, error) {
	var out []model.Venue
	err := c.do(ctx, call{op: "list venues", method: http.MethodGet, path: "/venues"}, &out)
	return out, err
}

// SearchVenues asks the collaborator to filter by term and sport type.
// Both parameters are always sent, empty meaning "any".
func (c *Client) SearchVenues(ctx context.Context, term string, sport model.SportType) ([]model.Venue, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("sportType", string(sport))
	var out []model.Venue
	err := c.do(ctx, call{op: "search venues", method: http.MethodGet, path: "/venues/search", query: q}, &out)
	return out, err
}

// GetVenue fetches a single venue.
func (c *Client) GetVenue(ctx context.Context, id int64) (model.Venue, error) {
	var out model.Venue
	err := c.do(ctx, call{
		op:     "venue detail",
		method: http.MethodGet,
		path:   "/venues/" + strconv.FormatInt(id, 10),
	}, &out)
	return out, err
}

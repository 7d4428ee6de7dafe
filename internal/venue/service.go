// Package venue answers venue list, search and detail queries for a view.
// Nothing is cached: each call goes to the collaborator.
package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

var (
	// ErrReauthRequired means the collaborator refused the credential; the
	// caller should send the browser to the login page.
	ErrReauthRequired = errors.New("venue: please log in to view venues")
	ErrVenueNotFound  = errors.New("venue: venue not found")
)

// User-visible texts.
const (
	MsgLoadFailed  = "Failed to load venues. Please try again later."
	MsgServerError = "Server error. Please try again later or contact support."
	MsgLoginFirst  = "Please log in to view venues"
)

type Service struct {
	api *apiclient.Client
	log zerolog.Logger
}

// NewService queries through api, which should carry the session's
// credential.
func NewService(api *apiclient.Client, log zerolog.Logger) *Service {
	return &Service{api: api, log: log}
}

// List returns every venue; never nil on success.
func (s *Service) List(ctx context.Context) ([]model.Venue, error) {
	vs, err := s.api.ListVenues(ctx)
	if err != nil {
		return nil, classify("list venues", err)
	}
	if vs == nil {
		vs = []model.Venue{}
	}
	return vs, nil
}

// Search filters by free-text term and category.  The collaborator's
// answer is filtered again locally because it may ignore a parameter.  A
// failing search endpoint falls back to List.  No match is an empty slice.
func (s *Service) Search(ctx context.Context, term string, category model.SportType) ([]model.Venue, error) {
	category = model.ParseSportType(string(category))
	vs, err := s.api.SearchVenues(ctx, term, category)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return nil, classify("search venues", err)
		}
		s.log.Warn().Err(err).Msg("venue search failed, falling back to list")
		if vs, err = s.List(ctx); err != nil {
			return nil, err
		}
	}
	out := make([]model.Venue, 0, len(vs))
	for i := range vs {
		if vs[i].Matches(term, category) {
			out = append(out, vs[i])
		}
	}
	return out, nil
}

// Get fetches one venue.  Ids must be positive.
func (s *Service) Get(ctx context.Context, id int64) (model.Venue, error) {
	if id <= 0 {
		return model.Venue{}, ErrVenueNotFound
	}
	v, err := s.api.GetVenue(ctx, id)
	if err != nil {
		if apiclient.IsNotFound(err) {
			return model.Venue{}, fmt.Errorf("%w: %d", ErrVenueNotFound, id)
		}
		return model.Venue{}, classify("venue detail", err)
	}
	return v, nil
}

func classify(op string, err error) error {
	if apiclient.IsUnauthorized(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrReauthRequired, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Message returns the text a venue list shows for err.
func Message(err error) string {
	var apiErr *apiclient.Error
	switch {
	case errors.Is(err, ErrReauthRequired):
		return MsgLoginFirst
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusInternalServerError:
		return MsgServerError
	}
	return MsgLoadFailed
}

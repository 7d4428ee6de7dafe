// Package booking drives one booking page: auth gate, venue load, form
// editing with a running total, availability check and booking creation.
//
// A Flow is sequential.  Network calls run without holding the flow lock so
// the view stays readable, and a generation counter drops results that
// arrive after the page was closed or restarted.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
	"github.com/iliyamo/sportsvenue-portal/internal/pricing"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
	"github.com/iliyamo/sportsvenue-portal/internal/venue"
)

// Session is the read side of session.Store.
type Session interface {
	Snapshot() session.State
}

type Venues interface {
	Get(ctx context.Context, id int64) (model.Venue, error)
}

// API is the subset of apiclient.Client the flow calls.
type API interface {
	CheckAvailability(ctx context.Context, q apiclient.AvailabilityQuery) (bool, error)
	CreateBooking(ctx context.Context, req apiclient.CreateBookingRequest) (model.Booking, error)
}

type Flow struct {
	sess   Session
	venues Venues
	api    API
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	gen    uint64
	closed bool
	cancel context.CancelFunc
	view   View
}

type Option func(*Flow)

func WithLogger(l zerolog.Logger) Option { return func(f *Flow) { f.log = l } }

// WithClock sets the clock used for the earliest bookable date.
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

func New(sess Session, venues Venues, api API, opts ...Option) *Flow {
	f := &Flow{
		sess:   sess,
		venues: venues,
		api:    api,
		log:    zerolog.Nop(),
		now:    time.Now,
		view:   View{Step: StepAuthGate},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// View returns the current view.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

// Start (re)opens the page for rawID, discarding anything the previous
// page still had in flight.
func (f *Flow) Start(ctx context.Context, rawID string) (View, error) {
	f.mu.Lock()
	f.abort()
	f.closed = false
	gen := f.gen
	from := "/venues/" + strings.TrimSpace(rawID) + "/book"
	f.view = View{Step: StepAuthGate, MinDate: f.now().Format(model.DateLayout)}

	if _, err := f.gate(from); err != nil {
		defer f.mu.Unlock()
		return f.view, err
	}

	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		defer f.mu.Unlock()
		f.view.Step = StepFailure
		f.view.Error = MsgInvalidVenueID
		return f.view, fmt.Errorf("%w: %q", ErrInvalidVenue, rawID)
	}
	f.view.VenueID = id
	f.view.Step = StepLoading
	f.mu.Unlock()

	v, err := f.venues.Get(ctx, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale(gen) {
		return f.view, ErrStale
	}
	switch {
	case err == nil:
		f.view.Venue = &v
		f.view.Courts = courts(v.TotalCourts)
		f.view.Step = StepReady
		f.view.Amount = pricing.Quote(&v, f.view.Form.StartTime, f.view.Form.EndTime)
		return f.view, nil
	case errors.Is(err, venue.ErrReauthRequired) || apiclient.IsUnauthorized(err):
		f.redirect(from)
		return f.view, fmt.Errorf("%w: %w", ErrReauthRequired, err)
	case errors.Is(err, venue.ErrVenueNotFound):
		f.view.Step = StepFailure
		f.view.Error = MsgVenueNotFound
		return f.view, fmt.Errorf("%w: %w", ErrVenueNotFound, err)
	default:
		f.log.Warn().Err(err).Int64("venue_id", id).Msg("booking: load venue")
		f.view.Step = StepFailure
		f.view.Error = serverMessage(err, MsgLoadFailed)
		return f.view, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
}

// Edit replaces the draft and recomputes the total.  A FAILURE with a
// loaded venue becomes READY again.
func (f *Flow) Edit(form Form) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.view, ErrStale
	}
	if f.view.Step.Busy() {
		return f.view, ErrSubmitInProgress
	}
	f.view.Form = form
	f.view.Notice = ""
	f.view.Amount = pricing.Quote(f.view.Venue, form.StartTime, form.EndTime)
	if f.view.Step == StepFailure && f.view.Venue != nil {
		f.view.Step = StepReady
	}
	return f.view, nil
}

// Submit validates form, checks availability and creates the booking.
// Validation problems and an unavailable slot return the flow to READY
// with a notice; other failures leave it in FAILURE, from which a new
// Submit is accepted.
func (f *Flow) Submit(ctx context.Context, form Form) (View, error) {
	f.mu.Lock()
	if f.closed {
		defer f.mu.Unlock()
		return f.view, ErrStale
	}
	if f.view.Step.Busy() {
		defer f.mu.Unlock()
		return f.view, ErrSubmitInProgress
	}
	if f.view.Step == StepSuccess {
		// Already created; repeat the hand-off instead of booking twice.
		defer f.mu.Unlock()
		return f.view, nil
	}
	f.view.Form = form
	f.view.Notice = ""
	f.view.Amount = pricing.Quote(f.view.Venue, form.StartTime, form.EndTime)
	from := "/venues/" + strconv.FormatInt(f.view.VenueID, 10) + "/book"

	st, err := f.gate(from)
	if err != nil {
		defer f.mu.Unlock()
		return f.view, err
	}
	v := f.view.Venue
	if v == nil {
		defer f.mu.Unlock()
		f.view.Notice = MsgInvalidVenueInfo
		return f.view, fmt.Errorf("%w: venue not loaded", ErrValidation)
	}

	f.view.Step = StepValidating
	norm, msg, err := check(form, v, f.now())
	if err != nil {
		defer f.mu.Unlock()
		f.view.Step = StepReady
		f.view.Notice = msg
		return f.view, err
	}
	f.view.Form = norm
	f.view.Step = StepCheckingAvailability

	gen := f.gen
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.cancel = cancel
	f.mu.Unlock()

	ok, err := f.api.CheckAvailability(ctx, apiclient.AvailabilityQuery{
		VenueID:     v.ID,
		Date:        norm.BookingDate,
		StartTime:   norm.StartTime,
		EndTime:     norm.EndTime,
		CourtNumber: norm.CourtNumber,
	})

	f.mu.Lock()
	if f.stale(gen) {
		defer f.mu.Unlock()
		return f.view, ErrStale
	}
	if err != nil {
		defer f.mu.Unlock()
		return f.view, f.failSubmit(err, from)
	}
	if !ok {
		defer f.mu.Unlock()
		f.view.Step = StepReady
		f.view.Notice = MsgSlotUnavailable
		return f.view, ErrSlotUnavailable
	}

	// The total is derived again here; the venue may have loaded after the
	// times were entered.
	amount := pricing.Quote(v, norm.StartTime, norm.EndTime)
	f.view.Amount = amount
	f.view.Step = StepCreating
	f.mu.Unlock()

	b, err := f.api.CreateBooking(ctx, apiclient.CreateBookingRequest{
		VenueID:     v.ID,
		UserID:      st.UserID(),
		BookingDate: norm.BookingDate,
		StartTime:   norm.StartTime,
		EndTime:     norm.EndTime,
		CourtNumber: norm.CourtNumber,
		TotalAmount: amount,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale(gen) {
		return f.view, ErrStale
	}
	f.cancel = nil
	switch {
	case err == nil && b.ID > 0:
		f.view.Step = StepSuccess
		f.view.BookingID = b.ID
		f.view.Redirect = "/payment/" + strconv.FormatInt(b.ID, 10)
		f.log.Info().Int64("booking_id", b.ID).Int64("venue_id", v.ID).Str("amount", amount.StringFixed(2)).Msg("booking created")
		return f.view, nil
	case err == nil:
		f.view.Step = StepFailure
		f.view.Notice = MsgCreateFailed
		return f.view, fmt.Errorf("%w: response without id", ErrCreateFailed)
	case apiclient.IsConflict(err):
		f.view.Step = StepReady
		f.view.Notice = MsgSlotTaken
		return f.view, fmt.Errorf("%w: %w", ErrSlotTaken, err)
	}
	return f.view, f.failSubmit(err, from)
}

// Close tears the page down.  In-flight calls are cancelled and their
// results ignored.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abort()
	f.closed = true
}

func (f *Flow) abort() {
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Flow) stale(gen uint64) bool {
	return f.closed || f.gen != gen
}

// gate applies the auth gate.  It never decides while the session is
// still loading.
func (f *Flow) gate(from string) (session.State, error) {
	st := f.sess.Snapshot()
	if st.Loading() {
		if !f.view.Step.Busy() && f.view.Venue == nil {
			f.view.Step = StepAuthGate
		}
		return st, ErrSessionPending
	}
	if !st.Authenticated() {
		f.redirect(from)
		return st, ErrReauthRequired
	}
	return st, nil
}

func (f *Flow) redirect(from string) {
	f.view.Step = StepRedirect
	f.view.Redirect = session.LoginPath(from)
}

func (f *Flow) failSubmit(err error, from string) error {
	f.cancel = nil
	if apiclient.IsUnauthorized(err) {
		f.redirect(from)
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	f.log.Warn().Err(err).Int64("venue_id", f.view.VenueID).Msg("booking: submit failed")
	f.view.Step = StepFailure
	f.view.Notice = serverMessage(err, MsgCreateFailed)
	return fmt.Errorf("%w: %w", ErrCreateFailed, err)
}

// serverMessage prefers the collaborator's message over fallback.
func serverMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func courts(n int) []int {
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, i)
	}
	return out
}

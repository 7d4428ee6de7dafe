// Package payment drives the payment page for one booking: load it, pick a
// method, record the payment and confirm the booking.
//
// Each (booking, user) pair gets one idempotency key from the Ledger.  A
// retry reuses it, and once the ledger shows the payment as recorded a
// retry only repeats the status update.
package payment

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
	"github.com/iliyamo/sportsvenue-portal/internal/queue"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
)

type Session interface {
	Snapshot() session.State
}

// API is the subset of apiclient.Client the flow calls.
type API interface {
	GetBooking(ctx context.Context, id int64) (model.Booking, error)
	CreatePayment(ctx context.Context, p model.Payment, key string) (model.Payment, error)
	UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error
}

// Notifier receives confirmed bookings.  Failures are logged only.
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

const notifyTimeout = 5 * time.Second

type Flow struct {
	sess   Session
	api    API
	ledger Ledger
	notify Notifier
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

func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

func WithNotifier(n Notifier) Option { return func(f *Flow) { f.notify = n } }

func New(sess Session, api API, ledger Ledger, opts ...Option) *Flow {
	f := &Flow{
		sess:   sess,
		api:    api,
		ledger: ledger,
		log:    zerolog.Nop(),
		now:    time.Now,
		view:   View{Step: StepAuthGate},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

// Start loads the booking behind rawID.  Anything that prevents loading
// ends in FAILURE with a redirect to the bookings list.
func (f *Flow) Start(ctx context.Context, rawID string) (View, error) {
	f.mu.Lock()
	f.abort()
	f.closed = false
	gen := f.gen
	f.view = View{Step: StepAuthGate}

	from := "/payment/" + strings.TrimSpace(rawID)
	if _, err := f.gate(from); err != nil {
		defer f.mu.Unlock()
		return f.view, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		defer f.mu.Unlock()
		f.loadFailed()
		return f.view, fmt.Errorf("%w: invalid booking id %q", ErrLoadFailed, rawID)
	}
	f.view.BookingID = id
	f.view.Step = StepLoading
	f.mu.Unlock()

	b, err := f.api.GetBooking(ctx, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale(gen) {
		return f.view, ErrStale
	}
	switch {
	case apiclient.IsUnauthorized(err):
		f.redirectLogin(from)
		return f.view, fmt.Errorf("%w: %w", ErrReauthRequired, err)
	case err != nil:
		f.log.Warn().Err(err).Int64("booking_id", id).Msg("payment: load booking")
		f.loadFailed()
		return f.view, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	f.view.Booking = &b
	f.view.Amount = b.TotalAmount
	if b.Status.Settled() {
		f.view.Step = StepConfirmed
		f.view.Notice = MsgAlreadyPaid
		f.view.Redirect = BookingsPath
		return f.view, ErrAlreadyPaid
	}
	f.view.Step = StepReady
	f.view.Method = model.MethodCard
	return f.view, nil
}

// SelectMethod switches between CARD and UPI.  Leaving CARD drops the card
// fields.
func (f *Flow) SelectMethod(method string) (View, error) {
	m, ok := model.ParsePaymentMethod(method)
	if !ok {
		return f.View(), fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return f.view, err
	}
	f.view.Method = m
	if m != model.MethodCard {
		f.view.Card = Card{}
	}
	return f.view, nil
}

// EnterCard applies the input masks to the card fields.
func (f *Flow) EnterCard(number, expiry, cvv string) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return f.view, err
	}
	f.view.Card = Card{
		Number: FormatCardNumber(number),
		Expiry: FormatExpiry(expiry),
		CVV:    FormatCVV(cvv),
	}
	return f.view, nil
}

func (f *Flow) editable() error {
	switch {
	case f.closed:
		return ErrStale
	case f.view.Step == StepSubmitting:
		return ErrSubmitInProgress
	case f.view.Booking == nil || f.view.Step == StepConfirmed:
		return ErrNotReady
	}
	return nil
}

// Submit records the payment and confirms the booking.  CONFIRMED is only
// reached when both calls succeeded.
func (f *Flow) Submit(ctx context.Context) (View, error) {
	f.mu.Lock()
	if err := f.editable(); err != nil {
		defer f.mu.Unlock()
		return f.view, err
	}
	from := "/payment/" + strconv.FormatInt(f.view.BookingID, 10)
	st, err := f.gate(from)
	if err != nil {
		defer f.mu.Unlock()
		return f.view, err
	}
	b := *f.view.Booking
	method := f.view.Method
	card := f.view.Card
	userID := st.UserID()
	f.view.Step = StepSubmitting
	f.view.Notice = ""
	gen := f.gen
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.cancel = cancel
	f.mu.Unlock()

	attempt, err := f.ledger.Open(ctx, b.ID, userID, func() string { return NewTransactionKey(f.now()) })
	if err != nil {
		return f.finishFailed(gen, from, fmt.Errorf("open payment attempt: %w", err))
	}
	key := attempt.IdempotencyKey
	f.setTransaction(gen, key, attempt.PaymentID)

	paymentID := attempt.PaymentID
	if !attempt.Stage.Reached(model.AttemptPaymentRecorded) {
		p := model.Payment{
			BookingID:     b.ID,
			UserID:        userID,
			Amount:        b.TotalAmount,
			Method:        method,
			Status:        model.PaymentCompleted,
			TransactionID: key,
		}
		if method == model.MethodCard {
			p.CardNumber = strings.ReplaceAll(card.Number, " ", "")
			p.ExpiryDate = card.Expiry
			p.CVV = card.CVV
		}
		created, err := f.api.CreatePayment(ctx, p, key)
		if err != nil {
			return f.finishFailed(gen, from, err)
		}
		paymentID = created.ID
		if err := f.ledger.MarkPaymentRecorded(ctx, key, paymentID); err != nil {
			// A retry still sends the same key, so the collaborator dedupes.
			f.log.Warn().Err(err).Str("txn", key).Msg("payment: ledger mark recorded")
		}
		f.setTransaction(gen, key, paymentID)
	} else {
		f.log.Info().Str("txn", key).Int64("booking_id", b.ID).Msg("payment already recorded, retrying status update")
	}

	if err := f.api.UpdateBookingStatus(ctx, b.ID, model.BookingConfirmed); err != nil {
		return f.finishFailed(gen, from, err)
	}
	if err := f.ledger.MarkConfirmed(ctx, key); err != nil {
		f.log.Warn().Err(err).Str("txn", key).Msg("payment: ledger mark confirmed")
	}

	f.mu.Lock()
	if f.stale(gen) {
		defer f.mu.Unlock()
		return f.view, ErrStale
	}
	f.cancel = nil
	f.view.Step = StepConfirmed
	f.view.Notice = MsgSuccess
	f.view.Redirect = BookingsPath
	confirmed := *f.view.Booking
	confirmed.Status = model.BookingConfirmed
	f.view.Booking = &confirmed
	v := f.view
	f.mu.Unlock()

	f.log.Info().Int64("booking_id", b.ID).Int64("payment_id", paymentID).Str("txn", key).Msg("booking confirmed")
	f.publish(ctx, b, method, paymentID, key)
	return v, nil
}

// Close tears the page down; in-flight calls are cancelled and ignored.
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

func (f *Flow) gate(from string) (session.State, error) {
	st := f.sess.Snapshot()
	if st.Loading() {
		return st, ErrSessionPending
	}
	if !st.Authenticated() {
		f.redirectLogin(from)
		return st, ErrReauthRequired
	}
	return st, nil
}

func (f *Flow) redirectLogin(from string) {
	f.view.Step = StepRedirect
	f.view.Redirect = session.LoginPath(from)
}

func (f *Flow) loadFailed() {
	f.view.Step = StepFailure
	f.view.Notice = MsgLoadFailed
	f.view.Redirect = BookingsPath
}

func (f *Flow) setTransaction(gen uint64, key string, paymentID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stale(gen) {
		f.view.TransactionID = key
		f.view.PaymentID = paymentID
	}
}

func (f *Flow) finishFailed(gen uint64, from string, err error) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale(gen) {
		return f.view, ErrStale
	}
	f.cancel = nil
	if apiclient.IsUnauthorized(err) {
		f.redirectLogin(from)
		return f.view, fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	f.log.Warn().Err(err).Int64("booking_id", f.view.BookingID).Msg("payment: submit failed")
	f.view.Step = StepFailure
	f.view.Notice = failureMessage(err)
	return f.view, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
}

// failureMessage prefers the collaborator's structured error, then its
// message, then the transport error.  Other errors get the generic text.
func failureMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(MsgFailed)
	}
	return MsgFailed
}

func (f *Flow) publish(ctx context.Context, b model.Booking, method model.PaymentMethod, paymentID int64, key string) {
	if f.notify == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		VenueID:       b.VenueID,
		BookingDate:   b.BookingDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		CourtNumber:   b.CourtNumber,
		Amount:        b.TotalAmount.StringFixed(2),
		PaymentID:     paymentID,
		PaymentMethod: string(method),
		TransactionID: key,
		ConfirmedAt:   f.now().UTC().Format(time.RFC3339),
	}
	if b.Venue != nil {
		ev.VenueName = b.Venue.Name
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := f.notify.PublishBookingConfirmed(pctx, ev); err != nil {
		f.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("payment: publish booking.confirmed")
	}
}

// Package portal keeps one workspace per browser session: its session
// store, an API client bound to that store and the page flows currently
// open in that browser.
package portal

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/booking"
	"github.com/iliyamo/sportsvenue-portal/internal/payment"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
	"github.com/iliyamo/sportsvenue-portal/internal/venue"
)

// Workspace is safe for concurrent use.  At most one booking flow and one
// payment flow are live; opening a new one closes its predecessor.
type Workspace struct {
	ID     string
	Store  *session.Store
	Venues *venue.Service

	newBooking func() *booking.Flow
	newPayment func() *payment.Flow
	log        zerolog.Logger

	mu       sync.Mutex
	booking  *booking.Flow
	payment  *payment.Flow
	lastSeen time.Time
	closed   bool
}

// OpenBooking closes the current booking flow and returns a fresh one.
func (w *Workspace) OpenBooking() *booking.Flow {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.booking != nil {
		w.booking.Close()
	}
	w.booking = w.newBooking()
	return w.booking
}

// Booking returns the live booking flow, or nil.
func (w *Workspace) Booking() *booking.Flow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.booking
}

// OpenPayment closes the current payment flow and returns a fresh one.
func (w *Workspace) OpenPayment() *payment.Flow {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.payment != nil {
		w.payment.Close()
	}
	w.payment = w.newPayment()
	return w.payment
}

// Payment returns the live payment flow, or nil.
func (w *Workspace) Payment() *payment.Flow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payment
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Close cancels every live flow.  The persisted session survives, so the
// browser picks it up again on its next request.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if w.booking != nil {
		w.booking.Close()
	}
	if w.payment != nil {
		w.payment.Close()
	}
	w.log.Debug().Str("sid", w.ID).Msg("workspace closed")
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

type attemptKey struct{ booking, user int64 }

// MemoryAttemptRepo keeps payment attempts in process; used when no
// database is configured.  Attempts do not survive a restart.
type MemoryAttemptRepo struct {
	mu    sync.Mutex
	now   func() time.Time
	byKey map[string]*model.PaymentAttempt
	open  map[attemptKey]string
	seq   int64
}

func NewMemoryAttemptRepo() *MemoryAttemptRepo {
	return &MemoryAttemptRepo{
		now:   time.Now,
		byKey: map[string]*model.PaymentAttempt{},
		open:  map[attemptKey]string{},
	}
}

func (l *MemoryAttemptRepo) Open(_ context.Context, bookingID, userID int64, newKey func() string) (model.PaymentAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := attemptKey{bookingID, userID}
	if key, ok := l.open[k]; ok {
		return *l.byKey[key], nil
	}
	l.seq++
	now := l.now().UTC()
	a := &model.PaymentAttempt{
		ID:             l.seq,
		BookingID:      bookingID,
		UserID:         userID,
		IdempotencyKey: newKey(),
		Stage:          model.AttemptOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.byKey[a.IdempotencyKey] = a
	l.open[k] = a.IdempotencyKey
	return *a, nil
}

func (l *MemoryAttemptRepo) MarkPaymentRecorded(_ context.Context, key string, paymentID int64) error {
	return l.advance(key, model.AttemptPaymentRecorded, paymentID)
}

func (l *MemoryAttemptRepo) MarkConfirmed(_ context.Context, key string) error {
	return l.advance(key, model.AttemptConfirmed, 0)
}

func (l *MemoryAttemptRepo) advance(key string, stage model.AttemptStage, paymentID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byKey[key]
	if !ok {
		return fmt.Errorf("payment attempt %q: %w", key, ErrAttemptNotFound)
	}
	if a.Stage.Reached(stage) {
		return nil
	}
	a.Stage = stage
	if paymentID != 0 {
		a.PaymentID = paymentID
	}
	a.UpdatedAt = l.now().UTC()
	return nil
}

// Attempt returns a copy of the attempt stored under key.
func (l *MemoryAttemptRepo) Attempt(key string) (model.PaymentAttempt, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byKey[key]
	if !ok {
		return model.PaymentAttempt{}, false
	}
	return *a, true
}

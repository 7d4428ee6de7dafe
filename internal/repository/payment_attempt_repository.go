package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// PaymentAttemptRepo persists payment attempts in the payment_attempts
// table (see database.EnsureSchema).
type PaymentAttemptRepo struct{ DB *sql.DB }

func NewPaymentAttemptRepo(db *sql.DB) *PaymentAttemptRepo { return &PaymentAttemptRepo{DB: db} }

const selectAttempt = "SELECT id, booking_id, user_id, idempotency_key, stage, payment_id, created_at, updated_at FROM payment_attempts"

func scanAttempt(row *sql.Row) (model.PaymentAttempt, error) {
	var (
		a         model.PaymentAttempt
		stage     string
		paymentID sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.BookingID, &a.UserID, &a.IdempotencyKey, &stage, &paymentID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrAttemptNotFound
	}
	if err != nil {
		return a, err
	}
	a.Stage = model.AttemptStage(stage)
	a.PaymentID = paymentID.Int64
	return a, nil
}

// Latest returns the attempt for a booking and user.
func (r *PaymentAttemptRepo) Latest(ctx context.Context, bookingID, userID int64) (model.PaymentAttempt, error) {
	return scanAttempt(r.DB.QueryRowContext(ctx,
		selectAttempt+" WHERE booking_id=? AND user_id=? ORDER BY id DESC LIMIT 1",
		bookingID, userID))
}

// ByKey returns the attempt stored under an idempotency key.
func (r *PaymentAttemptRepo) ByKey(ctx context.Context, key string) (model.PaymentAttempt, error) {
	return scanAttempt(r.DB.QueryRowContext(ctx, selectAttempt+" WHERE idempotency_key=? LIMIT 1", key))
}

// Open returns the attempt for a booking and user, inserting a fresh OPEN
// row keyed by newKey() when there is none.  (booking_id, user_id) is
// unique, so when a concurrent Open wins the insert its row is returned.
func (r *PaymentAttemptRepo) Open(ctx context.Context, bookingID, userID int64, newKey func() string) (model.PaymentAttempt, error) {
	a, err := r.Latest(ctx, bookingID, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrAttemptNotFound) {
		return a, fmt.Errorf("load payment attempt: %w", err)
	}

	key := newKey()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO payment_attempts (booking_id, user_id, idempotency_key, stage) VALUES (?,?,?,?)",
		bookingID, userID, key, string(model.AttemptOpen))
	if err != nil {
		if isDuplicate(err) {
			if won, rerr := r.Latest(ctx, bookingID, userID); rerr == nil {
				return won, nil
			}
			return a, fmt.Errorf("insert payment attempt %q: %w", key, ErrConflict)
		}
		return a, fmt.Errorf("insert payment attempt: %w", err)
	}
	return r.ByKey(ctx, key)
}

// MarkPaymentRecorded stores the collaborator's payment id.  Rows already
// past that stage are left alone.
func (r *PaymentAttemptRepo) MarkPaymentRecorded(ctx context.Context, key string, paymentID int64) error {
	return r.advance(ctx, key, model.AttemptPaymentRecorded,
		"UPDATE payment_attempts SET stage=?, payment_id=?, updated_at=NOW() WHERE idempotency_key=? AND stage=?",
		string(model.AttemptPaymentRecorded), paymentID, key, string(model.AttemptOpen))
}

func (r *PaymentAttemptRepo) MarkConfirmed(ctx context.Context, key string) error {
	return r.advance(ctx, key, model.AttemptConfirmed,
		"UPDATE payment_attempts SET stage=?, updated_at=NOW() WHERE idempotency_key=? AND stage<>?",
		string(model.AttemptConfirmed), key, string(model.AttemptConfirmed))
}

func (r *PaymentAttemptRepo) advance(ctx context.Context, key string, stage model.AttemptStage, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("advance payment attempt to %s: %w", stage, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Nothing changed: either the row is already there or it never existed.
	cur, err := r.ByKey(ctx, key)
	if err != nil {
		return err
	}
	if !cur.Stage.Reached(stage) {
		return fmt.Errorf("payment attempt %q stuck at %s", key, cur.Stage)
	}
	return nil
}

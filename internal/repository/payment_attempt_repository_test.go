package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

var attemptCols = []string{"id", "booking_id", "user_id", "idempotency_key", "stage", "payment_id", "created_at", "updated_at"}

func newMock(t *testing.T) (*PaymentAttemptRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
		_ = db.Close()
	})
	return NewPaymentAttemptRepo(db), mock
}

var (
	latestQ = regexp.QuoteMeta(selectAttempt + " WHERE booking_id=? AND user_id=? ORDER BY id DESC LIMIT 1")
	byKeyQ  = regexp.QuoteMeta(selectAttempt + " WHERE idempotency_key=? LIMIT 1")
	insertQ = regexp.QuoteMeta("INSERT INTO payment_attempts (booking_id, user_id, idempotency_key, stage) VALUES (?,?,?,?)")
)

func TestOpenReturnsExistingAttempt(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(latestQ).WithArgs(int64(101), int64(3)).
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow(1, 101, 3, "TXN-1-aaaaaaaa", "PAYMENT_RECORDED", 501, now, now))

	a, err := r.Open(context.Background(), 101, 3, func() string {
		t.Fatal("new key minted for an existing attempt")
		return ""
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.IdempotencyKey != "TXN-1-aaaaaaaa" || a.Stage != model.AttemptPaymentRecorded || a.PaymentID != 501 {
		t.Errorf("attempt = %+v", a)
	}
}

func TestOpenInsertsFreshAttempt(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(latestQ).WithArgs(int64(101), int64(3)).WillReturnRows(sqlmock.NewRows(attemptCols))
	mock.ExpectExec(insertQ).WithArgs(int64(101), int64(3), "TXN-2-bbbbbbbb", "OPEN").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(byKeyQ).WithArgs("TXN-2-bbbbbbbb").
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow(9, 101, 3, "TXN-2-bbbbbbbb", "OPEN", nil, now, now))

	a, err := r.Open(context.Background(), 101, 3, func() string { return "TXN-2-bbbbbbbb" })
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 9 || a.Stage != model.AttemptOpen || a.PaymentID != 0 {
		t.Errorf("attempt = %+v", a)
	}
}

func TestOpenReturnsConcurrentWinner(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(latestQ).WithArgs(int64(101), int64(3)).WillReturnRows(sqlmock.NewRows(attemptCols))
	mock.ExpectExec(insertQ).WithArgs(int64(101), int64(3), "TXN-3-bbbbbbbb", "OPEN").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '101-3' for key 'uq_payment_attempts_booking_user'"})
	mock.ExpectQuery(latestQ).WithArgs(int64(101), int64(3)).
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow(4, 101, 3, "TXN-3-aaaaaaaa", "OPEN", nil, now, now))

	a, err := r.Open(context.Background(), 101, 3, func() string { return "TXN-3-bbbbbbbb" })
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 4 || a.IdempotencyKey != "TXN-3-aaaaaaaa" {
		t.Errorf("attempt = %+v, want the row inserted first", a)
	}
}

func TestOpenDuplicateKey(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(latestQ).WillReturnRows(sqlmock.NewRows(attemptCols))
	mock.ExpectExec(insertQ).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectQuery(latestQ).WillReturnRows(sqlmock.NewRows(attemptCols))

	_, err := r.Open(context.Background(), 101, 3, func() string { return "k" })
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestMarkPaymentRecorded(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payment_attempts SET stage=?, payment_id=?")).
		WithArgs("PAYMENT_RECORDED", int64(501), "k", "OPEN").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.MarkPaymentRecorded(context.Background(), "k", 501); err != nil {
		t.Fatal(err)
	}
}

func TestMarkConfirmedIsIdempotent(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payment_attempts SET stage=?, updated_at=NOW()")).
		WithArgs("CONFIRMED", "k", "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(byKeyQ).WithArgs("k").
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow(1, 101, 3, "k", "CONFIRMED", 501, now, now))

	if err := r.MarkConfirmed(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
}

func TestMarkUnknownKey(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payment_attempts")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(byKeyQ).WithArgs("missing").WillReturnRows(sqlmock.NewRows(attemptCols))

	if err := r.MarkConfirmed(context.Background(), "missing"); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestMemoryAttemptRepo(t *testing.T) {
	r := NewMemoryAttemptRepo()
	ctx := context.Background()
	minted := 0
	mint := func() string { minted++; return "key-" + string(rune('0'+minted)) }

	a, _ := r.Open(ctx, 101, 3, mint)
	b, _ := r.Open(ctx, 101, 3, mint)
	if a.IdempotencyKey != b.IdempotencyKey || minted != 1 {
		t.Fatalf("retry minted a new key: %q %q", a.IdempotencyKey, b.IdempotencyKey)
	}
	if c, _ := r.Open(ctx, 102, 3, mint); c.IdempotencyKey == a.IdempotencyKey {
		t.Error("different booking shares a key")
	}

	if err := r.MarkConfirmed(ctx, a.IdempotencyKey); err != nil {
		t.Fatal(err)
	}
	// Stages never move backwards.
	if err := r.MarkPaymentRecorded(ctx, a.IdempotencyKey, 9); err != nil {
		t.Fatal(err)
	}
	if got, _ := r.Attempt(a.IdempotencyKey); got.Stage != model.AttemptConfirmed {
		t.Errorf("stage = %s", got.Stage)
	}
	if err := r.MarkConfirmed(ctx, "nope"); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("err = %v", err)
	}
}

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS payment_attempts (?s:.*)UNIQUE KEY uq_payment_attempts_booking_user \(booking_id, user_id\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))
	if err := EnsureSchema(context.Background(), db); err == nil {
		t.Error("error swallowed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

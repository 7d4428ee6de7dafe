package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// Ledger remembers payment attempts so a retry reuses the same
// idempotency key and knows whether the payment already went through.
type Ledger interface {
	// Open returns the attempt for (bookingID, userID), creating one with
	// newKey() when none exists.
	Open(ctx context.Context, bookingID, userID int64, newKey func() string) (model.PaymentAttempt, error)
	MarkPaymentRecorded(ctx context.Context, key string, paymentID int64) error
	MarkConfirmed(ctx context.Context, key string) error
}

// NewTransactionKey returns TXN-<unix millis>-<8 hex>.
func NewTransactionKey(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}

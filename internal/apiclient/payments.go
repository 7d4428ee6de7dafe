package apiclient

import (
	"context"
	"net/http"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// IdempotencyHeader carries the client key that lets the collaborator
// deduplicate retried payment submissions.
const IdempotencyHeader = "Idempotency-Key"

type paymentBody struct {
	model.Payment
	Amount number `json:"amount"`
}

// CreatePayment records a payment.  key is sent as Idempotency-Key and
// should equal p.TransactionID.
func (c *Client) CreatePayment(ctx context.Context, p model.Payment, key string) (model.Payment, error) {
	h := http.Header{}
	if key != "" {
		h.Set(IdempotencyHeader, key)
	}
	var out model.Payment
	err := c.do(ctx, call{op: "create payment", method: http.MethodPost, path: "/payments", body: paymentBody{p, number(p.Amount)}, headers: h}, &out)
	return out, err
}

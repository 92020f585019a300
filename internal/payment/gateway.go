// Package payment talks to the out-of-process payment gateway: it initiates
// a payment for an order and polls for the settlement result.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	StatePending   = "pending"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

type Status struct {
	State         string `json:"state"`
	TransactionID string `json:"transaction_id,omitempty"`
	Code          string `json:"code,omitempty"`
}

type Client interface {
	// InitiatePay returns the redirect URL the buyer completes payment on.
	InitiatePay(ctx context.Context, orderID string, amount decimal.Decimal, subject string) (string, error)
	QueryStatus(ctx context.Context, orderID string) (Status, error)
}

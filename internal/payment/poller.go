package payment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrPaymentFailed = errors.New("payment failed")
	ErrPollExhausted = errors.New("payment confirmation attempts exhausted")
)

// Poller queries the gateway with a fixed delay between attempts while the
// buyer has not paid yet. The attempt count is bounded so a buyer who never
// pays cannot pin a worker forever.
type Poller struct {
	Client      Client
	Interval    time.Duration
	MaxAttempts int
}

// Wait blocks until the gateway reports a terminal state and returns the
// gateway transaction id on success. Transient query errors count as
// attempts and are retried like a pending status.
func (p *Poller) Wait(ctx context.Context, orderID string) (string, error) {
	for attempt := 1; ; attempt++ {
		st, err := p.Client.QueryStatus(ctx, orderID)
		if err == nil {
			switch st.State {
			case StateSucceeded:
				return st.TransactionID, nil
			case StateFailed:
				return "", fmt.Errorf("%w: gateway code %q", ErrPaymentFailed, st.Code)
			}
		}

		if attempt >= p.MaxAttempts {
			return "", fmt.Errorf("%w: order %s after %d attempts", ErrPollExhausted, orderID, attempt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.Interval):
		}
	}
}

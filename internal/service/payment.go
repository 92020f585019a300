package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/freshmart/storefront/internal/models"
)

// PayOrder starts a gateway payment for an unpaid gateway-pay order and
// returns the URL the buyer completes the payment on.
func (s *OrderService) PayOrder(ctx context.Context, buyerID uuid.UUID, orderID string) (string, error) {
	order, err := s.payableOrder(ctx, buyerID, orderID)
	if err != nil {
		return "", err
	}

	amount := order.TotalPrice.Add(order.ShippingFee)
	return s.Gateway.InitiatePay(ctx, order.ID, amount, "freshmart order "+order.ID)
}

// ConfirmPayment polls the gateway until the payment settles, then records
// the gateway transaction id and moves the order to awaiting review.
func (s *OrderService) ConfirmPayment(ctx context.Context, buyerID uuid.UUID, orderID string) (string, error) {
	order, err := s.payableOrder(ctx, buyerID, orderID)
	if err != nil {
		return "", err
	}

	txnID, err := s.Poller.Wait(ctx, order.ID)
	if err != nil {
		return "", err
	}

	if err := s.Orders.MarkPaid(ctx, order.ID, txnID); err != nil {
		return "", err
	}
	s.publish(ctx, buyerID, map[string]any{
		"type":     "order_paid",
		"order_id": order.ID,
		"buyer_id": buyerID.String(),
		"txn_id":   txnID,
	})
	return txnID, nil
}

func (s *OrderService) payableOrder(ctx context.Context, buyerID uuid.UUID, orderID string) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrMissingParameter)
	}

	order, err := s.Orders.GetOwned(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if order.PayMethod != models.PayGateway || order.Status != models.StatusUnpaid {
		return nil, fmt.Errorf("%w: order %s", ErrOrderNotPayable, orderID)
	}
	return order, nil
}

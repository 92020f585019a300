package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/logging"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/payment"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/reserve"
	"github.com/freshmart/storefront/internal/transport"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidPayMethod = errors.New("invalid payment method")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrOrderNotPayable  = errors.New("order not payable")
	ErrCommit           = errors.New("order commit failed")
)

const eventsTopic = "order_events"

// Events is the producer slice the service needs; nil disables publishing.
type Events interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

type OrderService struct {
	DB        *gorm.DB
	Catalog   *repo.CatalogRepo
	Orders    *repo.OrderRepo
	Addresses *repo.AddressRepo
	Cart      cart.Store
	Strategy  reserve.Strategy

	Gateway payment.Client
	Poller  *payment.Poller

	ShippingFee decimal.Decimal
	Events      Events
}

// CommitOrder converts the buyer's carted quantities for the given SKUs into
// a persisted order with decremented stock, all inside one transaction.
// Either the order and every line land together with exact aggregates, or
// nothing is written at all.
func (s *OrderService) CommitOrder(ctx context.Context, buyerID, addressID uuid.UUID, method models.PayMethod, skuIDs []uuid.UUID) (string, error) {
	if buyerID == uuid.Nil {
		return "", ErrUnauthenticated
	}
	if addressID == uuid.Nil || method == 0 || len(skuIDs) == 0 {
		return "", fmt.Errorf("%w: address, pay method and sku list are required", ErrMissingParameter)
	}
	if !method.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidPayMethod, int(method))
	}
	if _, err := s.Addresses.GetOwned(ctx, addressID, buyerID); err != nil {
		if errors.Is(err, repo.ErrAddressNotFound) {
			return "", fmt.Errorf("%w: %s", ErrInvalidAddress, addressID)
		}
		return "", err
	}

	// Canonical processing order: overlapping commits always acquire row
	// locks in the same sequence, so they cannot deadlock each other.
	ids := canonicalIDs(skuIDs)

	quantities := make(map[uuid.UUID]uint, len(ids))
	for _, skuID := range ids {
		qty, err := s.Cart.Quantity(ctx, buyerID, skuID)
		if err != nil {
			return "", err
		}
		if qty == 0 {
			return "", fmt.Errorf("%w: sku %s is not in the cart", ErrCommit, skuID)
		}
		quantities[skuID] = qty
	}

	orderID := newOrderID(buyerID)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := s.Catalog.WithTx(tx)
		orders := s.Orders.WithTx(tx)

		// Header first with zero aggregates; totals are only known once
		// every line has been reserved.
		order := &models.Order{
			ID:          orderID,
			BuyerID:     buyerID,
			AddressID:   addressID,
			PayMethod:   method,
			Status:      models.StatusUnpaid,
			TotalPrice:  decimal.Zero,
			ShippingFee: s.ShippingFee,
			CreatedAt:   time.Now().UTC(),
		}
		if err := orders.CreateOrder(ctx, order); err != nil {
			return err
		}

		var totalCount uint
		totalPrice := decimal.Zero
		for _, skuID := range ids {
			qty := quantities[skuID]

			sku, err := s.Strategy.Reserve(ctx, catalog, skuID, qty)
			if err != nil {
				return err
			}

			line := &models.OrderLine{
				OrderID:  orderID,
				SKUID:    skuID,
				Quantity: qty,
				Price:    sku.Price,
			}
			if err := orders.CreateLine(ctx, line); err != nil {
				return err
			}

			totalCount += qty
			totalPrice = totalPrice.Add(sku.Price.Mul(decimal.NewFromInt(int64(qty))))
		}

		return orders.UpdateAggregates(ctx, orderID, totalCount, totalPrice)
	})
	if err != nil {
		if errors.Is(err, reserve.ErrSKUNotFound) ||
			errors.Is(err, reserve.ErrInsufficientStock) ||
			errors.Is(err, reserve.ErrRaceExhausted) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrCommit, err)
	}

	// Committed: the order exists regardless of what happens below.
	if err := s.Cart.DeleteMany(ctx, buyerID, ids); err != nil {
		logging.FromContext(ctx).Warn("cart cleanup failed", "order_id", orderID, "error", err)
	}
	s.publish(ctx, buyerID, map[string]any{
		"type":     "order_created",
		"order_id": orderID,
		"buyer_id": buyerID.String(),
	})

	return orderID, nil
}

// Checkout assembles the order preview for the given SKUs: carted quantity,
// current price and subtotal per line plus the payable total.
func (s *OrderService) Checkout(ctx context.Context, buyerID uuid.UUID, skuIDs []uuid.UUID) (*transport.CheckoutPage, error) {
	if buyerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if len(skuIDs) == 0 {
		return nil, fmt.Errorf("%w: sku list is required", ErrMissingParameter)
	}

	page := &transport.CheckoutPage{ShippingFee: s.ShippingFee, TotalPrice: decimal.Zero}
	for _, skuID := range canonicalIDs(skuIDs) {
		qty, err := s.Cart.Quantity(ctx, buyerID, skuID)
		if err != nil {
			return nil, err
		}
		if qty == 0 {
			continue
		}

		sku, err := s.Catalog.Get(ctx, skuID)
		if err != nil {
			return nil, err
		}

		subtotal := sku.Price.Mul(decimal.NewFromInt(int64(qty)))
		page.Lines = append(page.Lines, transport.CheckoutLine{
			SKU:      *sku,
			Quantity: qty,
			Subtotal: subtotal,
		})
		page.TotalCount += qty
		page.TotalPrice = page.TotalPrice.Add(subtotal)
	}
	if len(page.Lines) == 0 {
		return nil, fmt.Errorf("%w: nothing in the cart for the requested skus", ErrMissingParameter)
	}

	page.Payable = page.TotalPrice.Add(page.ShippingFee)
	return page, nil
}

func (s *OrderService) ListOrders(ctx context.Context, buyerID uuid.UUID, offset, limit int) (*transport.OrderHistory, error) {
	if buyerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	total, orders, err := s.Orders.ListByBuyer(ctx, buyerID, offset, limit)
	if err != nil {
		return nil, err
	}

	history := &transport.OrderHistory{Total: total, Orders: make([]transport.OrderView, 0, len(orders))}
	for _, order := range orders {
		view, err := s.orderView(ctx, order)
		if err != nil {
			return nil, err
		}
		history.Orders = append(history.Orders, *view)
	}
	return history, nil
}

func (s *OrderService) GetOrder(ctx context.Context, buyerID uuid.UUID, orderID string) (*transport.OrderView, error) {
	if buyerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	order, err := s.Orders.GetOwned(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	return s.orderView(ctx, *order)
}

// SubmitComments stores per-line buyer comments and completes the order.
// Comments for SKUs that are not part of the order are skipped.
func (s *OrderService) SubmitComments(ctx context.Context, buyerID uuid.UUID, orderID string, comments []transport.LineComment) error {
	if buyerID == uuid.Nil {
		return ErrUnauthenticated
	}

	order, err := s.Orders.GetOwned(ctx, orderID, buyerID)
	if err != nil {
		return err
	}

	for _, c := range comments {
		if c.Comment == "" {
			continue
		}
		if _, err := s.Orders.SetLineComment(ctx, order.ID, c.SKUID, c.Comment); err != nil {
			return err
		}
	}

	if err := s.Orders.SetStatus(ctx, order.ID, models.StatusComplete); err != nil {
		return err
	}
	s.publish(ctx, buyerID, map[string]any{
		"type":     "order_completed",
		"order_id": order.ID,
		"buyer_id": buyerID.String(),
	})
	return nil
}

func (s *OrderService) orderView(ctx context.Context, order models.Order) (*transport.OrderView, error) {
	lines, err := s.Orders.LinesOf(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	view := &transport.OrderView{
		Order:      order,
		StatusName: models.OrderStatusNames[order.Status],
		Lines:      make([]transport.OrderLineView, 0, len(lines)),
	}
	for _, line := range lines {
		view.Lines = append(view.Lines, transport.OrderLineView{
			OrderLine: line,
			Subtotal:  line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return view, nil
}

func (s *OrderService) publish(ctx context.Context, buyerID uuid.UUID, event map[string]any) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, eventsTopic, buyerID.String(), event); err != nil {
		logging.FromContext(ctx).Warn("kafka publish error", "error", err)
	}
}

// canonicalIDs dedupes and sorts the submitted SKU ids.
func canonicalIDs(skuIDs []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(skuIDs))
	out := make([]uuid.UUID, 0, len(skuIDs))
	for _, id := range skuIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].String(), out[j].String()) < 0
	})
	return out
}

// newOrderID builds a time-ordered, buyer-scoped order id: wall clock down
// to nanoseconds plus the buyer hex, so two commits from the same buyer in
// the same second stay distinct.
func newOrderID(buyerID uuid.UUID) string {
	now := time.Now().UTC()
	return fmt.Sprintf("%s%09d%s",
		now.Format("20060102150405"),
		now.Nanosecond(),
		strings.ReplaceAll(buyerID.String(), "-", ""),
	)
}

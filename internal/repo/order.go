package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) WithTx(tx *gorm.DB) *OrderRepo {
	return &OrderRepo{DB: tx}
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *OrderRepo) CreateLine(ctx context.Context, line *models.OrderLine) error {
	return r.DB.WithContext(ctx).Create(line).Error
}

func (r *OrderRepo) UpdateAggregates(ctx context.Context, orderID string, count uint, price decimal.Decimal) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"total_count": count, "total_price": price})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) GetOwned(ctx context.Context, orderID string, buyerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", orderID, buyerID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *OrderRepo) LinesOf(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *OrderRepo) SetStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkPaid records the gateway transaction id and moves the order to the
// awaiting-review state in one update.
func (r *OrderRepo) MarkPaid(ctx context.Context, orderID, txnID string) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"gateway_txn_id": txnID,
			"status":         models.StatusAwaitingReview,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetLineComment reports whether a line matched; commenting a SKU that is
// not part of the order is not an error.
func (r *OrderRepo) SetLineComment(ctx context.Context, orderID string, skuID uuid.UUID, comment string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("order_id = ? AND sku_id = ?", orderID, skuID).
		Update("comment", comment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

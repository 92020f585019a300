package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/reserve"
)

type CatalogRepo struct {
	DB *gorm.DB
}

// WithTx returns a repo bound to an open transaction.
func (r *CatalogRepo) WithTx(tx *gorm.DB) *CatalogRepo {
	return &CatalogRepo{DB: tx}
}

func (r *CatalogRepo) Get(ctx context.Context, skuID uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	if err := r.DB.WithContext(ctx).Where("id = ?", skuID).First(&sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", reserve.ErrSKUNotFound, skuID)
		}
		return nil, err
	}
	return &sku, nil
}

// GetForUpdate reads the SKU row under an exclusive lock. Only meaningful
// inside a transaction.
func (r *CatalogRepo) GetForUpdate(ctx context.Context, skuID uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", skuID).
		First(&sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", reserve.ErrSKUNotFound, skuID)
		}
		return nil, err
	}
	return &sku, nil
}

func (r *CatalogRepo) UpdateStock(ctx context.Context, skuID uuid.UUID, stock, sales uint) error {
	res := r.DB.WithContext(ctx).
		Model(&models.SKU{}).
		Where("id = ?", skuID).
		Updates(map[string]any{"stock": stock, "sales": sales})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", reserve.ErrSKUNotFound, skuID)
	}
	return nil
}

// CompareAndSwapStock writes the new stock/sales pair only if the row still
// carries the stock value the caller observed. Returns the affected row
// count: 1 means the swap won, 0 means a concurrent writer got there first.
func (r *CatalogRepo) CompareAndSwapStock(ctx context.Context, skuID uuid.UUID, expectedStock, newStock, newSales uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.SKU{}).
		Where("id = ? AND stock = ?", skuID, expectedStock).
		Updates(map[string]any{"stock": newStock, "sales": newSales})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *CatalogRepo) List(ctx context.Context, offset, limit int) (int64, []models.SKU, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.SKU{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.SKU
	if err := r.DB.WithContext(ctx).Model(&models.SKU{}).
		Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *CatalogRepo) Create(ctx context.Context, sku *models.SKU) error {
	return r.DB.WithContext(ctx).Create(sku).Error
}

func (r *CatalogRepo) Save(ctx context.Context, sku *models.SKU) error {
	return r.DB.WithContext(ctx).Save(sku).Error
}

func (r *CatalogRepo) Delete(ctx context.Context, skuID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.SKU{}, "id = ?", skuID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", reserve.ErrSKUNotFound, skuID)
	}
	return nil
}

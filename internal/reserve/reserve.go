// Package reserve holds the two stock reservation strategies used by the
// order commit engine. Both run inside the caller's transaction and leave
// the same contract behind: stock never goes below zero, and a failed
// reservation writes nothing.
package reserve

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/freshmart/storefront/internal/models"
)

// OptimisticAttempts bounds the compare-and-swap retry loop.
const OptimisticAttempts = 3

var (
	ErrSKUNotFound       = errors.New("sku not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrRaceExhausted     = errors.New("stock reservation retries exhausted")
)

// Catalog is the slice of the catalog store a strategy needs. Implementations
// must wrap a missing row into ErrSKUNotFound.
type Catalog interface {
	Get(ctx context.Context, skuID uuid.UUID) (*models.SKU, error)
	GetForUpdate(ctx context.Context, skuID uuid.UUID) (*models.SKU, error)
	UpdateStock(ctx context.Context, skuID uuid.UUID, stock, sales uint) error
	CompareAndSwapStock(ctx context.Context, skuID uuid.UUID, expectedStock, newStock, newSales uint) (int64, error)
}

// Strategy reserves qty units of a SKU and returns the SKU as observed at
// reservation time, so the caller can snapshot its price.
type Strategy interface {
	Reserve(ctx context.Context, cat Catalog, skuID uuid.UUID, qty uint) (*models.SKU, error)
}

// ForName maps a config value to a strategy. Unknown names fall back to
// the pessimistic default.
func ForName(name string) Strategy {
	if name == "optimistic" {
		return Optimistic{}
	}
	return Locking{}
}

// Locking takes an exclusive row lock (SELECT ... FOR UPDATE), re-reads the
// stock under it and updates unconditionally. Concurrent commits on the same
// SKU block until the lock is released at transaction end.
type Locking struct{}

func (Locking) Reserve(ctx context.Context, cat Catalog, skuID uuid.UUID, qty uint) (*models.SKU, error) {
	sku, err := cat.GetForUpdate(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if qty > sku.Stock {
		return nil, fmt.Errorf("%w: sku %s has %d, requested %d", ErrInsufficientStock, skuID, sku.Stock, qty)
	}
	if err := cat.UpdateStock(ctx, skuID, sku.Stock-qty, sku.Sales+qty); err != nil {
		return nil, err
	}
	return sku, nil
}

// Optimistic never blocks: it reads without a lock and issues a conditional
// update guarded by the observed stock. A concurrent writer winning the race
// shows up as zero affected rows, and the read is retried from scratch.
type Optimistic struct{}

func (Optimistic) Reserve(ctx context.Context, cat Catalog, skuID uuid.UUID, qty uint) (*models.SKU, error) {
	for i := 0; i < OptimisticAttempts; i++ {
		sku, err := cat.Get(ctx, skuID)
		if err != nil {
			return nil, err
		}
		if qty > sku.Stock {
			return nil, fmt.Errorf("%w: sku %s has %d, requested %d", ErrInsufficientStock, skuID, sku.Stock, qty)
		}
		affected, err := cat.CompareAndSwapStock(ctx, skuID, sku.Stock, sku.Stock-qty, sku.Sales+qty)
		if err != nil {
			return nil, err
		}
		if affected == 1 {
			return sku, nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", ErrRaceExhausted, skuID)
}

package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/models"
)

var ErrAddressNotFound = errors.New("address not found")

type AddressRepo struct {
	DB *gorm.DB
}

// GetOwned resolves an address only when it belongs to the buyer.
func (r *AddressRepo) GetOwned(ctx context.Context, addressID, buyerID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.DB.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", addressID, buyerID).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return &addr, nil
}

func (r *AddressRepo) Create(ctx context.Context, addr *models.Address) error {
	return r.DB.WithContext(ctx).Create(addr).Error
}

func (r *AddressRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Address, error) {
	var addrs []models.Address
	if err := r.DB.WithContext(ctx).Where("buyer_id = ?", buyerID).Find(&addrs).Error; err != nil {
		return nil, err
	}
	return addrs, nil
}

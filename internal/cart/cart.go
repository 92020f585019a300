// Package cart keeps pending purchase quantities per buyer. The backing
// store is a redis hash per buyer: cart_<buyer-id> maps sku id to quantity.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Quantity returns 0 for a SKU that is not in the cart.
	Quantity(ctx context.Context, buyerID, skuID uuid.UUID) (uint, error)
	All(ctx context.Context, buyerID uuid.UUID) (map[uuid.UUID]uint, error)
	Set(ctx context.Context, buyerID, skuID uuid.UUID, qty uint) error
	Add(ctx context.Context, buyerID, skuID uuid.UUID, qty uint) error
	// DeleteMany removes the given SKUs; absent entries are a no-op.
	DeleteMany(ctx context.Context, buyerID uuid.UUID, skuIDs []uuid.UUID) error
}

type RedisStore struct {
	Client *redis.Client
}

func cartKey(buyerID uuid.UUID) string {
	return fmt.Sprintf("cart_%s", buyerID)
}

func (s *RedisStore) Quantity(ctx context.Context, buyerID, skuID uuid.UUID) (uint, error) {
	v, err := s.Client.HGet(ctx, cartKey(buyerID), skuID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("cart: bad quantity for sku %s: %w", skuID, err)
	}
	return uint(n), nil
}

func (s *RedisStore) All(ctx context.Context, buyerID uuid.UUID) (map[uuid.UUID]uint, error) {
	raw, err := s.Client.HGetAll(ctx, cartKey(buyerID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]uint, len(raw))
	for field, v := range raw {
		skuID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("cart: bad quantity for sku %s: %w", skuID, err)
		}
		out[skuID] = uint(n)
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, buyerID, skuID uuid.UUID, qty uint) error {
	if qty == 0 {
		return s.DeleteMany(ctx, buyerID, []uuid.UUID{skuID})
	}
	return s.Client.HSet(ctx, cartKey(buyerID), skuID.String(), qty).Err()
}

func (s *RedisStore) Add(ctx context.Context, buyerID, skuID uuid.UUID, qty uint) error {
	return s.Client.HIncrBy(ctx, cartKey(buyerID), skuID.String(), int64(qty)).Err()
}

func (s *RedisStore) DeleteMany(ctx context.Context, buyerID uuid.UUID, skuIDs []uuid.UUID) error {
	if len(skuIDs) == 0 {
		return nil
	}
	fields := make([]string, len(skuIDs))
	for i, id := range skuIDs {
		fields[i] = id.String()
	}
	return s.Client.HDel(ctx, cartKey(buyerID), fields...).Err()
}

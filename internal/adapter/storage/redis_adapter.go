package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/bookstore/internal/port"
)

const (
	stockKeyPrefix    = "stock:"
	idempotencyKeyTTL = 24 * time.Hour
)

// Returns 1 when the decrement was applied, 0 on shortfall, -1 when the key
// is not mirrored at all. The last case must stay distinct: an untracked book
// is not the same as a sold-out one.
var decrementStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return -1
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) DecrementStock(ctx context.Context, bookID string, quantity int) (port.StockGate, error) {
	key := stockKeyPrefix + bookID

	result, err := decrementStockScript.Run(ctx, r.client, []string{key}, quantity).Int()
	if err != nil {
		return port.StockUnknown, err
	}

	switch result {
	case 1:
		return port.StockReserved, nil
	case 0:
		return port.StockInsufficient, nil
	default:
		return port.StockUnknown, nil
	}
}

func (r *RedisAdapter) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	key := stockKeyPrefix + bookID
	return r.client.IncrBy(ctx, key, int64(quantity)).Err()
}

func (r *RedisAdapter) SetStock(ctx context.Context, bookID string, quantity int) error {
	key := stockKeyPrefix + bookID
	return r.client.Set(ctx, key, quantity, 0).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

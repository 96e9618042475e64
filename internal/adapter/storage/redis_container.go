package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-transfer/internal/core/domain"
)

const stockKeyPrefix = "stock:"

// Script results: {status, value}.
const (
	statusOK           = 1
	statusRejected     = 0
	statusInsufficient = -1
)

var addStockScript = redis.NewScript(`
local key = KEYS[1]
local product = ARGV[1]
local quantity = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])

local total = 0
for _, v in ipairs(redis.call('HVALS', key)) do
	total = total + tonumber(v)
end

local free = capacity - total
if free <= quantity then
	return {0, free}
end

redis.call('HINCRBY', key, product, quantity)
return {1, free - quantity}
`)

var removeStockScript = redis.NewScript(`
local key = KEYS[1]
local product = ARGV[1]
local quantity = tonumber(ARGV[2])

local current = redis.call('HGET', key, product)
if not current then
	return {0, 0}
end

current = tonumber(current)
if quantity > current then
	return {-1, current}
end

if quantity == current then
	redis.call('HDEL', key, product)
else
	redis.call('HINCRBY', key, product, -quantity)
end
return {1, current - quantity}
`)

// RedisContainer keeps one container in a redis hash of product -> quantity.
// The capacity check and the update run inside one Lua script.
type RedisContainer struct {
	client   *redis.Client
	key      string
	capacity int
}

func NewRedisContainer(client *redis.Client, namespace, name string, capacity int) *RedisContainer {
	key := stockKeyPrefix + name
	if namespace != "" {
		key = namespace + ":" + key
	}
	return &RedisContainer{client: client, key: key, capacity: capacity}
}

func (r *RedisContainer) Key() string { return r.key }

func (r *RedisContainer) Add(ctx context.Context, product string, qty int) error {
	if qty <= 0 {
		return domain.InvalidQuantity(qty)
	}

	res, err := addStockScript.Run(ctx, r.client, []string{r.key}, product, qty, r.capacity).Int64Slice()
	if err != nil {
		return domain.StorageFailure(fmt.Errorf("redis add: %w", err))
	}
	if res[0] != statusOK {
		return domain.CapacityExceeded(int(res[1]))
	}
	return nil
}

func (r *RedisContainer) Remove(ctx context.Context, product string, qty int) error {
	if qty <= 0 {
		return domain.InvalidQuantity(qty)
	}

	res, err := removeStockScript.Run(ctx, r.client, []string{r.key}, product, qty).Int64Slice()
	if err != nil {
		return domain.StorageFailure(fmt.Errorf("redis remove: %w", err))
	}
	switch res[0] {
	case statusOK:
		return nil
	case statusInsufficient:
		return domain.InsufficientQuantity(product, int(res[1]), qty)
	case statusRejected:
		return domain.NotFound(product)
	default:
		return domain.StorageFailure(fmt.Errorf("redis remove: unexpected status %d", res[0]))
	}
}

func (r *RedisContainer) FreeSpace(ctx context.Context) (int, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, q := range items {
		total += q
	}
	return r.capacity - total, nil
}

func (r *RedisContainer) Items(ctx context.Context) (map[string]int, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, domain.StorageFailure(fmt.Errorf("redis items: %w", err))
	}

	items := make(map[string]int, len(raw))
	for product, v := range raw {
		q, err := strconv.Atoi(v)
		if err != nil {
			return nil, domain.StorageFailure(fmt.Errorf("redis items: quantity of %q: %w", product, err))
		}
		items[product] = q
	}
	return items, nil
}

func (r *RedisContainer) UniqueCount(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		return 0, domain.StorageFailure(fmt.Errorf("redis unique count: %w", err))
	}
	return int(n), nil
}

// Reset deletes the container's hash so every run starts empty.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

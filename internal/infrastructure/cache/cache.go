// Package cache guarda la resolución código POS → producto para no consultar el catálogo en cada
// línea sincronizada.
package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Noop no guarda nada; se usa cuando no hay Redis configurado.
type Noop struct{}

// GetProductID siempre es un fallo de caché.
func (Noop) GetProductID(context.Context, int64, string) (int64, bool, error) { return 0, false, nil }

// SetProductID no hace nada.
func (Noop) SetProductID(context.Context, int64, string, int64) error { return nil }

// Redis implementa la caché de productos sobre Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis construye la caché sobre un cliente existente.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, ttl: ttl, prefix: "stockledger:pos:product"}
}

// Ping verifica la conexión.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) key(businessID int64, code string) string {
	return c.prefix + ":" + strconv.FormatInt(businessID, 10) + ":" + code
}

// GetProductID devuelve el id guardado; redis.Nil es un fallo de caché.
func (c *Redis) GetProductID(ctx context.Context, businessID int64, code string) (int64, bool, error) {
	id, err := c.client.Get(ctx, c.key(businessID, code)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// SetProductID guarda el id con el TTL configurado.
func (c *Redis) SetProductID(ctx context.Context, businessID int64, code string, productID int64) error {
	return c.client.Set(ctx, c.key(businessID, code), productID, c.ttl).Err()
}

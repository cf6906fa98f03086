package matching

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

// RedisIndex keeps driver positions in a Redis GEO set. The location consumer
// writes it from the driver-locations topic; the matcher reads it as a
// prefilter hint.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(addr, password, key string) *RedisIndex {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisIndex{client: c, key: key}
}

// NewRedisIndexWithClient wires an existing client, used by the consumer and tests.
func NewRedisIndexWithClient(c *redis.Client, key string) *RedisIndex {
	return &RedisIndex{client: c, key: key}
}

func (r *RedisIndex) Update(ctx context.Context, driverID string, lat, lng float64) error {
	return r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      driverID,
		Latitude:  lat,
		Longitude: lng,
	}).Err()
}

func (r *RedisIndex) Within(ctx context.Context, origin models.Coord, radiusMi float64) ([]string, error) {
	return r.client.GeoSearch(ctx, r.key, &redis.GeoSearchQuery{
		Latitude:   origin.Lat,
		Longitude:  origin.Lng,
		Radius:     radiusMi,
		RadiusUnit: "mi",
		Sort:       "ASC",
	}).Result()
}

func (r *RedisIndex) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisIndex) Close() error { return r.client.Close() }

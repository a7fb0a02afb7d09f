package geoindex

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/example/carpool/internal/models"
)

// RedisIndex implements Index over Redis GEO commands so multiple API
// instances share one view of active offers.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(addr, password, key string) *RedisIndex {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisIndex{client: c, key: key}
}

func NewRedisIndexFromClient(c *redis.Client, key string) *RedisIndex {
	return &RedisIndex{client: c, key: key}
}

func (r *RedisIndex) Upsert(ctx context.Context, offerID string, origin models.Coordinate) error {
	return r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Longitude: origin.Lon,
		Latitude:  origin.Lat,
		Name:      offerID,
	}).Err()
}

func (r *RedisIndex) Remove(ctx context.Context, offerID string) error {
	// GEO members live in a sorted set underneath
	return r.client.ZRem(ctx, r.key, offerID).Err()
}

func (r *RedisIndex) Near(ctx context.Context, p models.Coordinate, radiusKm float64, limit int) ([]string, error) {
	res, err := r.client.GeoRadius(ctx, r.key, p.Lon, p.Lat, &redis.GeoRadiusQuery{
		Radius: radiusKm,
		Unit:   "km",
		Count:  limit,
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res))
	for _, g := range res {
		out = append(out, g.Name)
	}
	return out, nil
}

func (r *RedisIndex) Close() error { return r.client.Close() }

package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles read caching of vehicle detail payloads in Redis.
// It is consulted only on read endpoints, never on authorization paths:
// assignment changes must be visible to the next permission check.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

const (
	// VehicleCacheTTL is short because assignment and status change often.
	VehicleCacheTTL = 30 * time.Second

	vehicleCachePrefix = "cache:vehicle:"
)

// CachedVehicle is the cached read model for a vehicle.
type CachedVehicle struct {
	ID           string `json:"id"`
	Registration string `json:"registration"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	Status       string `json:"status"`
	DriverID     string `json:"driver_id,omitempty"`
	DriverName   string `json:"driver_name,omitempty"`
	DriverEmail  string `json:"driver_email,omitempty"`
}

// GetVehicle retrieves a vehicle from cache. A miss returns (nil, nil).
func (s *CacheStore) GetVehicle(ctx context.Context, vehicleID string) (*CachedVehicle, error) {
	data, err := s.client.Get(ctx, vehicleCachePrefix+vehicleID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, translateErr(err)
	}

	var v CachedVehicle
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetVehicle stores a vehicle in cache.
func (s *CacheStore) SetVehicle(ctx context.Context, v *CachedVehicle) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return translateErr(s.client.Set(ctx, vehicleCachePrefix+v.ID, data, VehicleCacheTTL).Err())
}

// InvalidateVehicle removes a vehicle from cache.
func (s *CacheStore) InvalidateVehicle(ctx context.Context, vehicleID string) error {
	return translateErr(s.client.Del(ctx, vehicleCachePrefix+vehicleID).Err())
}

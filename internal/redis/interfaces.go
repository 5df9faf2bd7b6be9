package redis

import (
	"context"
	"time"

	"fleettrack/internal/domain"
)

// LocationStoreInterface defines the interface for live vehicle locations.
type LocationStoreInterface interface {
	Set(ctx context.Context, vehicleID string, loc domain.Location) error
	Get(ctx context.Context, vehicleID string) (domain.Location, error)
	Remove(ctx context.Context, vehicleID string) error
	FindNearby(ctx context.Context, lng, lat, radiusKm float64) ([]VehicleFix, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)

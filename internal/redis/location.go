package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fleettrack/internal/domain"
)

const (
	vehicleLocationPrefix = "vehicles:location:"
	vehicleGeoKey         = "vehicles:geo"
)

// VehicleFix is a vehicle's live position as served by the geo index.
type VehicleFix struct {
	VehicleID string
	Lng       float64
	Lat       float64
}

// LocationStore holds the single current-location record per vehicle in
// Redis: a hash with the full fix plus a GEO index for radius queries.
// The record is overwritten in place; there is no history.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// Set overwrites the vehicle's current location. Sentinel (0,0) fixes are
// stored but kept out of the geo index so radius queries never see them.
func (s *LocationStore) Set(ctx context.Context, vehicleID string, loc domain.Location) error {
	key := vehicleLocationPrefix + vehicleID

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"lng":        loc.Longitude,
		"lat":        loc.Latitude,
		"address":    loc.Address,
		"speed":      loc.Speed,
		"updated_at": loc.LastUpdated.UnixMilli(),
	})

	if loc.IsSet() {
		pipe.GeoAdd(ctx, vehicleGeoKey, &redis.GeoLocation{
			Name:      vehicleID,
			Longitude: loc.Longitude,
			Latitude:  loc.Latitude,
		})
	} else {
		pipe.ZRem(ctx, vehicleGeoKey, vehicleID)
	}

	_, err := pipe.Exec(ctx)
	return translateErr(err)
}

// Get returns the vehicle's current location. A vehicle that has never
// reported returns the zero Location, whose (0,0) coordinates are the
// "no fix yet" sentinel.
func (s *LocationStore) Get(ctx context.Context, vehicleID string) (domain.Location, error) {
	fields, err := s.client.HGetAll(ctx, vehicleLocationPrefix+vehicleID).Result()
	if err != nil {
		return domain.Location{}, translateErr(err)
	}
	if len(fields) == 0 {
		return domain.Location{}, nil
	}

	var loc domain.Location
	loc.Longitude, _ = strconv.ParseFloat(fields["lng"], 64)
	loc.Latitude, _ = strconv.ParseFloat(fields["lat"], 64)
	loc.Speed, _ = strconv.ParseFloat(fields["speed"], 64)
	loc.Address = fields["address"]
	if ms, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		loc.LastUpdated = time.UnixMilli(ms)
	}

	return loc, nil
}

// Remove drops the vehicle's location record and geo entry.
func (s *LocationStore) Remove(ctx context.Context, vehicleID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, vehicleLocationPrefix+vehicleID)
	pipe.ZRem(ctx, vehicleGeoKey, vehicleID)
	_, err := pipe.Exec(ctx)
	return translateErr(err)
}

// FindNearby returns vehicles within the given radius (in kilometers),
// closest first. Vehicles without a real fix are not indexed.
func (s *LocationStore) FindNearby(ctx context.Context, lng, lat, radiusKm float64) ([]VehicleFix, error) {
	results, err := s.client.GeoRadius(ctx, vehicleGeoKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, translateErr(err)
	}

	fixes := make([]VehicleFix, 0, len(results))
	for _, r := range results {
		fixes = append(fixes, VehicleFix{
			VehicleID: r.Name,
			Lng:       r.Longitude,
			Lat:       r.Latitude,
		})
	}

	return fixes, nil
}

package service

import (
	"context"
	"time"

	"fleettrack/internal/authz"
	"fleettrack/internal/domain"
	"fleettrack/internal/redis"
	"fleettrack/internal/repository"
)

const defaultNearbyRadiusKm = 5.0

// LocationService is the live-location state store for vehicles. Writes
// for one vehicle are serialized by a per-vehicle lock so a concurrent
// pair of reports can never produce a half-overwritten record.
type LocationService struct {
	locationStore redis.LocationStoreInterface
	lockStore     redis.LockStoreInterface
	vehicleRepo   repository.VehicleRepository
}

// NewLocationService creates a new LocationService.
func NewLocationService(
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	vehicleRepo repository.VehicleRepository,
) *LocationService {
	return &LocationService{
		locationStore: locationStore,
		lockStore:     lockStore,
		vehicleRepo:   vehicleRepo,
	}
}

// ReportLocationRequest contains the parameters for a location report.
// An empty Address keeps the previously stored one; Speed omitted on the
// wire arrives as 0.
type ReportLocationRequest struct {
	VehicleID string
	Longitude float64
	Latitude  float64
	Speed     float64
	Address   string
	Actor     domain.Actor
}

// Report overwrites the vehicle's current location. Only the vehicle's
// assigned driver or a manager/owner may report. The timestamp is the
// server's receipt time, never a client-supplied clock.
func (s *LocationService) Report(ctx context.Context, req ReportLocationRequest) (domain.Location, error) {
	if req.VehicleID == "" {
		return domain.Location{}, ErrInvalidVehicleID
	}
	if !domain.ValidCoordinates(req.Longitude, req.Latitude) {
		return domain.Location{}, ErrInvalidLocation
	}
	if req.Speed < 0 {
		return domain.Location{}, ErrInvalidSpeed
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return domain.Location{}, err
	}

	if !authz.Allow(req.Actor, vehicle.AssignedDriverID, authz.ResourceVehicle, authz.ActionReportLocation) {
		return domain.Location{}, ErrForbidden
	}

	release, err := acquireVehicleLock(ctx, s.lockStore, req.VehicleID)
	if err != nil {
		return domain.Location{}, err
	}
	defer release()

	loc := domain.Location{
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
		Speed:       req.Speed,
		Address:     req.Address,
		LastUpdated: time.Now(),
	}

	if loc.Address == "" {
		prior, err := s.locationStore.Get(ctx, req.VehicleID)
		if err != nil {
			return domain.Location{}, err
		}
		loc.Address = prior.Address
	}

	if err := s.locationStore.Set(ctx, req.VehicleID, loc); err != nil {
		return domain.Location{}, err
	}

	return loc, nil
}

// Get returns the vehicle's current location. A vehicle that never
// reported yields the (0,0) sentinel, which is meaningful to the caller
// and must be excluded from map consumption.
func (s *LocationService) Get(ctx context.Context, vehicleID string, actor domain.Actor) (domain.Location, error) {
	if vehicleID == "" {
		return domain.Location{}, ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return domain.Location{}, err
	}

	if !authz.Allow(actor, vehicle.AssignedDriverID, authz.ResourceVehicle, authz.ActionRead) {
		return domain.Location{}, ErrForbidden
	}

	return s.locationStore.Get(ctx, vehicleID)
}

// NearbyRequest contains the parameters for a live-map radius query.
type NearbyRequest struct {
	Longitude float64
	Latitude  float64
	RadiusKm  float64
	Actor     domain.Actor
}

// Nearby returns vehicles with a real fix inside the radius, closest
// first. Sentinel fixes never enter the geo index, so they cannot appear.
func (s *LocationService) Nearby(ctx context.Context, req NearbyRequest) ([]redis.VehicleFix, error) {
	if !authz.CanManage(req.Actor) {
		return nil, ErrForbidden
	}
	if !domain.ValidCoordinates(req.Longitude, req.Latitude) {
		return nil, ErrInvalidLocation
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = defaultNearbyRadiusKm
	}

	return s.locationStore.FindNearby(ctx, req.Longitude, req.Latitude, radius)
}

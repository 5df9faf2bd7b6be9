package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleettrack/internal/authz"
	"fleettrack/internal/domain"
	"fleettrack/internal/redis"
	"fleettrack/internal/repository"
)

// TripService owns the trip lifecycle state machine: creation, route
// accumulation, completion, cancellation and deletion. The vehicle lock
// makes the "no second ongoing trip" check-then-create atomic; the
// repository's partial unique index backs it up underneath.
type TripService struct {
	tripRepo    repository.TripRepository
	vehicleRepo repository.VehicleRepository
	lockStore   redis.LockStoreInterface
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	vehicleRepo repository.VehicleRepository,
	lockStore redis.LockStoreInterface,
) *TripService {
	return &TripService{
		tripRepo:    tripRepo,
		vehicleRepo: vehicleRepo,
		lockStore:   lockStore,
	}
}

// StartTripRequest contains the parameters for starting a trip.
type StartTripRequest struct {
	VehicleID     string
	StartLocation domain.Location
	Purpose       string
	Notes         string
	Actor         domain.Actor
}

// Start opens an ongoing trip on the vehicle. A driver must be the
// vehicle's current assignee; a manager/owner starts on behalf of the
// assignee. The trip's driver is a point-in-time copy of that binding.
func (s *TripService) Start(ctx context.Context, req StartTripRequest) (*domain.Trip, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if !domain.ValidCoordinates(req.StartLocation.Longitude, req.StartLocation.Latitude) {
		return nil, ErrInvalidLocation
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	if !authz.Allow(req.Actor, vehicle.AssignedDriverID, authz.ResourceTrip, authz.ActionStart) {
		return nil, ErrForbidden
	}

	driverID := req.Actor.ID
	if req.Actor.Role != domain.RoleDriver {
		driverID = vehicle.AssignedDriverID
		if driverID == "" {
			return nil, ErrVehicleUnassigned
		}
	}

	release, err := acquireVehicleLock(ctx, s.lockStore, req.VehicleID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-check under the lock: a concurrent delete may have removed the
	// vehicle between the read above and lock acquisition.
	if _, err := s.vehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		return nil, err
	}

	existing, err := s.tripRepo.GetOngoingByVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVehicleHasOngoingTrip
	}

	now := time.Now()
	trip := &domain.Trip{
		ID:            uuid.New().String(),
		VehicleID:     req.VehicleID,
		DriverID:      driverID,
		Status:        domain.TripStatusOngoing,
		StartLocation: req.StartLocation,
		StartTime:     now,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
		CreatedAt:     now,
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrVehicleHasOngoingTrip
		}
		return nil, err
	}

	return trip, nil
}

// AppendRoutePointRequest contains the parameters for recording a waypoint.
type AppendRoutePointRequest struct {
	TripID    string
	Longitude float64
	Latitude  float64
	Speed     float64
	Actor     domain.Actor
}

// AppendRoutePoint records a waypoint on an ongoing trip. Only the trip's
// driver may append, owners included in the denial. The waypoint is
// timestamped at receipt inside the store's serialized append, so route
// timestamps are non-decreasing even under concurrent reporters.
func (s *TripService) AppendRoutePoint(ctx context.Context, req AppendRoutePointRequest) (*domain.RoutePoint, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if !domain.ValidCoordinates(req.Longitude, req.Latitude) {
		return nil, ErrInvalidLocation
	}
	if req.Speed < 0 {
		return nil, ErrInvalidSpeed
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if req.Actor.ID == "" || req.Actor.ID != trip.DriverID {
		return nil, ErrForbidden
	}

	if trip.Status != domain.TripStatusOngoing {
		return nil, ErrTripNotOngoing
	}

	point, err := s.tripRepo.AppendRoutePoint(ctx, req.TripID, req.Longitude, req.Latitude, req.Speed)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTripNotOngoing
		}
		return nil, err
	}

	return point, nil
}

// UpdateTripRequest contains the mutable trip fields. Nil means "leave
// unchanged"; status, vehicle and driver are immutable through this path.
type UpdateTripRequest struct {
	TripID  string
	Purpose *string
	Notes   *string
	Actor   domain.Actor
}

// Update mutates an ongoing trip's free-text fields.
func (s *TripService) Update(ctx context.Context, req UpdateTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !authz.Allow(req.Actor, trip.DriverID, authz.ResourceTrip, authz.ActionUpdate) {
		return nil, ErrForbidden
	}

	if trip.Status != domain.TripStatusOngoing {
		return nil, ErrTripNotOngoing
	}

	if req.Purpose != nil {
		trip.Purpose = *req.Purpose
	}
	if req.Notes != nil {
		trip.Notes = *req.Notes
	}

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// CompleteTripRequest contains the parameters for completing a trip.
// A zero Distance means "derive": compute from the recorded route, or
// keep the stored value when the route is empty.
type CompleteTripRequest struct {
	TripID      string
	EndLocation domain.Location
	DistanceKm  float64
	Actor       domain.Actor
}

// Complete moves an ongoing trip to completed, setting the end location,
// end time and distance. Allowed for the trip's driver or an owner.
func (s *TripService) Complete(ctx context.Context, req CompleteTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if !domain.ValidCoordinates(req.EndLocation.Longitude, req.EndLocation.Latitude) {
		return nil, ErrInvalidLocation
	}
	if req.DistanceKm < 0 {
		return nil, ErrInvalidDistance
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !authz.Allow(req.Actor, trip.DriverID, authz.ResourceTrip, authz.ActionComplete) {
		return nil, ErrForbidden
	}

	if trip.Status != domain.TripStatusOngoing {
		return nil, ErrTripNotOngoing
	}

	distance := req.DistanceKm
	if distance == 0 {
		if computed := trip.RouteDistanceKm(); computed > 0 {
			distance = computed
		} else {
			distance = trip.DistanceKm
		}
	}

	trip.Status = domain.TripStatusCompleted
	trip.EndLocation = req.EndLocation
	trip.EndTime = time.Now()
	trip.DistanceKm = distance

	if err := s.tripRepo.Finish(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTripNotOngoing
		}
		return nil, err
	}

	return trip, nil
}

// Cancel moves an ongoing trip to cancelled. The end time is stamped but
// no end location is recorded. Allowed for the trip's driver or an owner.
func (s *TripService) Cancel(ctx context.Context, tripID string, actor domain.Actor) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !authz.Allow(actor, trip.DriverID, authz.ResourceTrip, authz.ActionCancel) {
		return nil, ErrForbidden
	}

	if trip.Status != domain.TripStatusOngoing {
		return nil, ErrTripNotOngoing
	}

	trip.Status = domain.TripStatusCancelled
	trip.EndTime = time.Now()

	if err := s.tripRepo.Finish(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTripNotOngoing
		}
		return nil, err
	}

	return trip, nil
}

// Delete permanently removes a trip, route included. Owner only; works
// in any state.
func (s *TripService) Delete(ctx context.Context, tripID string, actor domain.Actor) error {
	if tripID == "" {
		return ErrInvalidTripID
	}

	if !authz.Allow(actor, "", authz.ResourceTrip, authz.ActionDelete) {
		return ErrForbidden
	}

	return s.tripRepo.Delete(ctx, tripID)
}

// Get retrieves a trip. Drivers can read only their own trips.
func (s *TripService) Get(ctx context.Context, tripID string, actor domain.Actor) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !authz.Allow(actor, trip.DriverID, authz.ResourceTrip, authz.ActionRead) {
		return nil, ErrForbidden
	}

	return trip, nil
}

// List retrieves trips visible to the actor: drivers see their own,
// managers and owners see everything. Newest first.
func (s *TripService) List(ctx context.Context, actor domain.Actor) ([]*domain.Trip, error) {
	if actor.Role == domain.RoleDriver {
		return s.tripRepo.ListByDriver(ctx, actor.ID)
	}
	if !authz.CanManage(actor) {
		return nil, ErrForbidden
	}

	return s.tripRepo.List(ctx)
}

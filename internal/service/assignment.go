package service

import (
	"context"

	"fleettrack/internal/authz"
	"fleettrack/internal/domain"
	"fleettrack/internal/redis"
	"fleettrack/internal/repository"
)

// AssignmentService owns the driver-vehicle binding. The vehicles table
// is the single source of truth: a change here is visible to the very
// next authorization check, with no cache in between.
type AssignmentService struct {
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	cacheStore  *redis.CacheStore
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	cacheStore *redis.CacheStore,
) *AssignmentService {
	return &AssignmentService{
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		cacheStore:  cacheStore,
	}
}

// AssignRequest contains the parameters for binding a driver to a vehicle.
type AssignRequest struct {
	VehicleID string
	DriverID  string
	Actor     domain.Actor
}

// Assign binds the driver to the vehicle, replacing any prior binding.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest) error {
	if req.VehicleID == "" {
		return ErrInvalidVehicleID
	}
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}

	if !authz.Allow(req.Actor, "", authz.ResourceVehicle, authz.ActionAssignDriver) {
		return ErrForbidden
	}

	if _, err := s.vehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		return err
	}

	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return err
	}
	if driver.Role != domain.RoleDriver {
		return ErrNotADriver
	}

	if err := s.vehicleRepo.AssignDriver(ctx, req.VehicleID, req.DriverID); err != nil {
		return err
	}

	s.invalidate(ctx, req.VehicleID)
	return nil
}

// Unassign clears the vehicle's driver binding.
func (s *AssignmentService) Unassign(ctx context.Context, vehicleID string, actor domain.Actor) error {
	if vehicleID == "" {
		return ErrInvalidVehicleID
	}

	if !authz.Allow(actor, "", authz.ResourceVehicle, authz.ActionAssignDriver) {
		return ErrForbidden
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return err
	}

	if err := s.vehicleRepo.AssignDriver(ctx, vehicleID, ""); err != nil {
		return err
	}

	s.invalidate(ctx, vehicleID)
	return nil
}

// CurrentDriver returns the driver bound to the vehicle, or "" when none.
func (s *AssignmentService) CurrentDriver(ctx context.Context, vehicleID string) (string, error) {
	if vehicleID == "" {
		return "", ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return "", err
	}

	return vehicle.AssignedDriverID, nil
}

// IsAssigned reports whether the driver is currently bound to the vehicle.
func (s *AssignmentService) IsAssigned(ctx context.Context, vehicleID, driverID string) (bool, error) {
	current, err := s.CurrentDriver(ctx, vehicleID)
	if err != nil {
		return false, err
	}

	return current != "" && current == driverID, nil
}

func (s *AssignmentService) invalidate(ctx context.Context, vehicleID string) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleettrack/internal/authz"
	"fleettrack/internal/domain"
	"fleettrack/internal/redis"
	"fleettrack/internal/repository"
)

// VehicleService handles fleet roster management. Reads go through a
// short-TTL cache for managers; authorization decisions always read the
// database so a fresh assignment change is honored immediately.
type VehicleService struct {
	vehicleRepo   repository.VehicleRepository
	tripRepo      repository.TripRepository
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
	lockStore     redis.LockStoreInterface
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	tripRepo repository.TripRepository,
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
	lockStore redis.LockStoreInterface,
) *VehicleService {
	return &VehicleService{
		vehicleRepo:   vehicleRepo,
		tripRepo:      tripRepo,
		locationStore: locationStore,
		cacheStore:    cacheStore,
		lockStore:     lockStore,
	}
}

// CreateVehicleRequest contains the parameters for registering a vehicle.
type CreateVehicleRequest struct {
	Registration string
	Model        string
	Category     string
	Year         int
	Color        string
	Actor        domain.Actor
}

// NormalizeRegistration canonicalizes a registration number: trimmed and
// uppercased, so "ka01ab1234" and "KA01AB1234" are the same plate.
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.TrimSpace(reg))
}

// Create registers a new vehicle. The registration number is unique
// across the fleet after normalization.
func (s *VehicleService) Create(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	if !authz.Allow(req.Actor, "", authz.ResourceVehicle, authz.ActionCreate) {
		return nil, ErrForbidden
	}

	registration := NormalizeRegistration(req.Registration)
	if registration == "" {
		return nil, ErrInvalidRegistration
	}

	category := domain.VehicleCategory(req.Category)
	if category == "" {
		category = domain.VehicleCategoryOther
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	if req.Year != 0 && (req.Year < 1900 || req.Year > time.Now().Year()+1) {
		return nil, ErrInvalidYear
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		Registration: registration,
		Model:        strings.TrimSpace(req.Model),
		Category:     category,
		Year:         req.Year,
		Color:        strings.TrimSpace(req.Color),
		Status:       domain.VehicleStatusActive,
		CreatedBy:    req.Actor.ID,
		CreatedAt:    time.Now(),
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}

	return vehicle, nil
}

// Get retrieves a vehicle with its driver summary. Drivers see only
// vehicles assigned to them. Manager reads are served cache-aside.
func (s *VehicleService) Get(ctx context.Context, vehicleID string, actor domain.Actor) (*domain.VehicleDetail, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	if actor.Role == domain.RoleDriver {
		detail, err := s.vehicleRepo.GetDetail(ctx, vehicleID)
		if err != nil {
			return nil, err
		}
		if detail.AssignedDriverID != actor.ID {
			return nil, ErrForbidden
		}
		return detail, nil
	}

	if !authz.CanManage(actor) {
		return nil, ErrForbidden
	}

	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetVehicle(ctx, vehicleID)
		if err == nil && cached != nil {
			return detailFromCached(cached), nil
		}
	}

	detail, err := s.vehicleRepo.GetDetail(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetVehicle(ctx, cachedFromDetail(detail))
	}

	return detail, nil
}

// List retrieves vehicles visible to the actor: drivers see vehicles
// assigned to them, managers and owners see the whole fleet.
func (s *VehicleService) List(ctx context.Context, actor domain.Actor) ([]*domain.VehicleDetail, error) {
	if actor.Role == domain.RoleDriver {
		return s.vehicleRepo.ListByDriver(ctx, actor.ID)
	}
	if !authz.CanManage(actor) {
		return nil, ErrForbidden
	}

	return s.vehicleRepo.ListDetail(ctx)
}

// ListByDriver retrieves the vehicles bound to one driver. A driver may
// only list their own.
func (s *VehicleService) ListByDriver(ctx context.Context, driverID string, actor domain.Actor) ([]*domain.VehicleDetail, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if actor.Role == domain.RoleDriver && actor.ID != driverID {
		return nil, ErrForbidden
	}
	if actor.Role != domain.RoleDriver && !authz.CanManage(actor) {
		return nil, ErrForbidden
	}

	return s.vehicleRepo.ListByDriver(ctx, driverID)
}

// UpdateVehicleRequest contains the mutable vehicle fields. Nil means
// "leave unchanged". The driver binding has its own path.
type UpdateVehicleRequest struct {
	VehicleID    string
	Registration *string
	Model        *string
	Category     *string
	Year         *int
	Color        *string
	Status       *string
	Actor        domain.Actor
}

// Update mutates a vehicle's attributes.
func (s *VehicleService) Update(ctx context.Context, req UpdateVehicleRequest) (*domain.Vehicle, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	if !authz.Allow(req.Actor, "", authz.ResourceVehicle, authz.ActionUpdate) {
		return nil, ErrForbidden
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	if req.Registration != nil {
		registration := NormalizeRegistration(*req.Registration)
		if registration == "" {
			return nil, ErrInvalidRegistration
		}
		vehicle.Registration = registration
	}
	if req.Model != nil {
		vehicle.Model = strings.TrimSpace(*req.Model)
	}
	if req.Category != nil {
		category := domain.VehicleCategory(*req.Category)
		if !category.Valid() {
			return nil, ErrInvalidCategory
		}
		vehicle.Category = category
	}
	if req.Year != nil {
		if *req.Year != 0 && (*req.Year < 1900 || *req.Year > time.Now().Year()+1) {
			return nil, ErrInvalidYear
		}
		vehicle.Year = *req.Year
	}
	if req.Color != nil {
		vehicle.Color = strings.TrimSpace(*req.Color)
	}
	if req.Status != nil {
		status := domain.VehicleStatus(*req.Status)
		if !status.Valid() {
			return nil, ErrInvalidVehicleStatus
		}
		vehicle.Status = status
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}

	s.invalidate(ctx, req.VehicleID)
	return vehicle, nil
}

// Delete removes a vehicle from the fleet. Owner only. A vehicle with
// an ongoing trip cannot be deleted; finish or cancel the trip first.
func (s *VehicleService) Delete(ctx context.Context, vehicleID string, actor domain.Actor) error {
	if vehicleID == "" {
		return ErrInvalidVehicleID
	}

	if !authz.Allow(actor, "", authz.ResourceVehicle, authz.ActionDelete) {
		return ErrForbidden
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return err
	}

	// The vehicle lock serializes the delete against trip starts: the
	// ongoing-trip check and the delete form one critical section.
	release, err := acquireVehicleLock(ctx, s.lockStore, vehicleID)
	if err != nil {
		return err
	}
	defer release()

	ongoing, err := s.tripRepo.GetOngoingByVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	if ongoing != nil {
		return ErrVehicleHasOngoingTrip
	}

	if err := s.vehicleRepo.Delete(ctx, vehicleID); err != nil {
		return err
	}

	_ = s.locationStore.Remove(ctx, vehicleID)
	s.invalidate(ctx, vehicleID)
	return nil
}

func (s *VehicleService) invalidate(ctx context.Context, vehicleID string) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
	}
}

func cachedFromDetail(d *domain.VehicleDetail) *redis.CachedVehicle {
	v := &redis.CachedVehicle{
		ID:           d.ID,
		Registration: d.Registration,
		Model:        d.Model,
		Category:     string(d.Category),
		Year:         d.Year,
		Color:        d.Color,
		Status:       string(d.Status),
	}
	if d.Driver != nil {
		v.DriverID = d.Driver.ID
		v.DriverName = d.Driver.Name
		v.DriverEmail = d.Driver.Email
	}
	return v
}

func detailFromCached(v *redis.CachedVehicle) *domain.VehicleDetail {
	detail := &domain.VehicleDetail{
		Vehicle: domain.Vehicle{
			ID:               v.ID,
			Registration:     v.Registration,
			Model:            v.Model,
			Category:         domain.VehicleCategory(v.Category),
			Year:             v.Year,
			Color:            v.Color,
			Status:           domain.VehicleStatus(v.Status),
			AssignedDriverID: v.DriverID,
		},
	}
	if v.DriverID != "" {
		detail.Driver = &domain.DriverRef{
			ID:    v.DriverID,
			Name:  v.DriverName,
			Email: v.DriverEmail,
		}
	}
	return detail
}

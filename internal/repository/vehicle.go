package repository

import (
	"context"

	"fleettrack/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create persists a new vehicle. Returns ErrConflict when the
	// registration is already taken.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetDetail retrieves a vehicle with its assigned driver summary
	// joined in (read-model assembly happens here, not in the core).
	GetDetail(ctx context.Context, id string) (*domain.VehicleDetail, error)

	// ListDetail retrieves all vehicles with driver summaries, newest first.
	ListDetail(ctx context.Context) ([]*domain.VehicleDetail, error)

	// ListByDriver retrieves vehicles assigned to the given driver.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.VehicleDetail, error)

	// Update updates a vehicle's attributes. The driver binding is not
	// touched by this path; use AssignDriver.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// AssignDriver replaces the vehicle's driver binding. An empty
	// driverID clears the assignment.
	AssignDriver(ctx context.Context, vehicleID, driverID string) error

	// UnassignDriverAll clears the binding on every vehicle assigned to
	// the driver. Used when a driver account is removed.
	UnassignDriverAll(ctx context.Context, driverID string) error

	// Delete permanently removes a vehicle.
	Delete(ctx context.Context, id string) error
}

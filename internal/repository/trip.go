package repository

import (
	"context"

	"fleettrack/internal/domain"
)

// TripRepository defines the persistence operations for trips. The
// mutating operations carry the atomicity the lifecycle engine relies on:
// Create fails on a second ongoing trip per vehicle, AppendRoutePoint is
// serialized per trip and stamps the waypoint inside that critical
// section, and Finish is a compare-and-swap on the ongoing status.
type TripRepository interface {
	// Create persists a new ongoing trip. Returns ErrConflict when the
	// vehicle already has an ongoing trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID, route included in seq order.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// List retrieves all trips, newest first. Routes are not loaded.
	List(ctx context.Context) ([]*domain.Trip, error)

	// ListByDriver retrieves the driver's trips, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error)

	// GetOngoingByVehicle retrieves the vehicle's ongoing trip, or nil
	// when there is none.
	GetOngoingByVehicle(ctx context.Context, vehicleID string) (*domain.Trip, error)

	// AppendRoutePoint atomically appends a waypoint to an ongoing
	// trip, assigning seq and the receipt timestamp inside the
	// serialized section. Returns ErrConflict when the trip is no
	// longer ongoing.
	AppendRoutePoint(ctx context.Context, tripID string, lng, lat, speed float64) (*domain.RoutePoint, error)

	// Update persists changes to the mutable fields (purpose, notes).
	Update(ctx context.Context, trip *domain.Trip) error

	// Finish moves an ongoing trip to a terminal status, writing end
	// location, end time and distance in one conditional update.
	// Returns ErrConflict when the trip already finished.
	Finish(ctx context.Context, trip *domain.Trip) error

	// Delete permanently removes a trip and its route.
	Delete(ctx context.Context, id string) error
}

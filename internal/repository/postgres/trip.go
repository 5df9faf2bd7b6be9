package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleettrack/internal/domain"
	"fleettrack/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
//
// The one-ongoing-trip-per-vehicle invariant is backed by a partial unique
// index on trips(vehicle_id) WHERE status = 'ongoing'; route appends are
// serialized per trip by locking the trip row.
type TripRepository struct {
	db *sql.DB
	q  Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db, q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
// Append runs on the caller's transaction in that case.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, vehicle_id, driver_id, status,
	start_lng, start_lat, start_address,
	end_lng, end_lat, end_address,
	start_time, end_time, distance_km, purpose, notes, created_at`

// Create persists a new ongoing trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, vehicle_id, driver_id, status,
			start_lng, start_lat, start_address,
			start_time, distance_km, purpose, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.VehicleID,
		trip.DriverID,
		trip.Status,
		trip.StartLocation.Longitude,
		trip.StartLocation.Latitude,
		trip.StartLocation.Address,
		trip.StartTime,
		trip.DistanceKm,
		trip.Purpose,
		trip.Notes,
		trip.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return translateErr(err)
	}

	return nil
}

// GetByID retrieves a trip by ID, route included in seq order.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)

	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, translateErr(err)
	}

	route, err := r.loadRoute(ctx, id)
	if err != nil {
		return nil, translateErr(err)
	}
	trip.Route = route

	return trip, nil
}

// List retrieves all trips, newest first. Routes are not loaded.
func (r *TripRepository) List(ctx context.Context) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY created_at DESC`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

// ListByDriver retrieves the driver's trips, newest first.
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE driver_id = $1 ORDER BY created_at DESC`, driverID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

// GetOngoingByVehicle retrieves the vehicle's ongoing trip, or nil when
// there is none.
func (r *TripRepository) GetOngoingByVehicle(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE vehicle_id = $1 AND status = $2 LIMIT 1`,
		vehicleID, domain.TripStatusOngoing)

	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateErr(err)
	}

	return trip, nil
}

// AppendRoutePoint appends a waypoint to an ongoing trip. The trip row is
// locked for the duration of the insert, so seq assignment and the
// receipt timestamp happen inside one serialized section: recorded_at is
// non-decreasing in seq order by construction.
func (r *TripRepository) AppendRoutePoint(ctx context.Context, tripID string, lng, lat, speed float64) (*domain.RoutePoint, error) {
	if r.db == nil {
		return r.appendRoutePoint(ctx, r.q, tripID, lng, lat, speed)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translateErr(err)
	}

	point, err := r.appendRoutePoint(ctx, tx, tripID, lng, lat, speed)
	if err != nil {
		_ = tx.Rollback()
		return nil, translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateErr(err)
	}

	return point, nil
}

func (r *TripRepository) appendRoutePoint(ctx context.Context, q Querier, tripID string, lng, lat, speed float64) (*domain.RoutePoint, error) {
	var status domain.TripStatus
	err := q.QueryRowContext(ctx,
		`SELECT status FROM trips WHERE id = $1 FOR UPDATE`, tripID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, translateErr(err)
	}

	if status != domain.TripStatusOngoing {
		return nil, repository.ErrConflict
	}

	var point domain.RoutePoint
	point.Longitude = lng
	point.Latitude = lat
	point.Speed = speed

	err = q.QueryRowContext(ctx, `
		INSERT INTO trip_route_points (trip_id, seq, lng, lat, speed, recorded_at)
		VALUES ($1,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM trip_route_points WHERE trip_id = $1),
			$2, $3, $4, now())
		RETURNING seq, recorded_at
	`, tripID, lng, lat, speed).Scan(&point.Seq, &point.RecordedAt)
	if err != nil {
		return nil, translateErr(err)
	}

	return &point, nil
}

// Update persists changes to the mutable fields.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE trips SET purpose = $1, notes = $2 WHERE id = $3`,
		trip.Purpose, trip.Notes, trip.ID,
	)
	if err != nil {
		return translateErr(err)
	}

	return requireRow(result)
}

// Finish moves an ongoing trip to a terminal status. The conditional
// update is the test-and-set: a trip that already finished is untouched.
func (r *TripRepository) Finish(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET status = $1, end_lng = $2, end_lat = $3, end_address = $4,
		    end_time = $5, distance_km = $6
		WHERE id = $7 AND status = $8
	`

	var endLng, endLat sql.NullFloat64
	if trip.EndLocation.IsSet() {
		endLng = sql.NullFloat64{Float64: trip.EndLocation.Longitude, Valid: true}
		endLat = sql.NullFloat64{Float64: trip.EndLocation.Latitude, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		endLng,
		endLat,
		trip.EndLocation.Address,
		trip.EndTime,
		trip.DistanceKm,
		trip.ID,
		domain.TripStatusOngoing,
	)
	if err != nil {
		return translateErr(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		// Distinguish "already finished" from "gone".
		var exists bool
		if err := r.q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, trip.ID).Scan(&exists); err != nil {
			return translateErr(err)
		}
		if exists {
			return repository.ErrConflict
		}
		return repository.ErrNotFound
	}

	return nil
}

// Delete permanently removes a trip and its route.
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM trip_route_points WHERE trip_id = $1`, id); err != nil {
		return translateErr(err)
	}

	result, err := r.q.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}

	return requireRow(result)
}

func (r *TripRepository) loadRoute(ctx context.Context, tripID string) ([]domain.RoutePoint, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT seq, lng, lat, speed, recorded_at FROM trip_route_points WHERE trip_id = $1 ORDER BY seq`,
		tripID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var route []domain.RoutePoint
	for rows.Next() {
		var p domain.RoutePoint
		if err := rows.Scan(&p.Seq, &p.Longitude, &p.Latitude, &p.Speed, &p.RecordedAt); err != nil {
			return nil, translateErr(err)
		}
		route = append(route, p)
	}

	return route, translateErr(rows.Err())
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var startAddress, endAddress sql.NullString
	var endLng, endLat sql.NullFloat64
	var endTime sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.VehicleID,
		&trip.DriverID,
		&trip.Status,
		&trip.StartLocation.Longitude,
		&trip.StartLocation.Latitude,
		&startAddress,
		&endLng,
		&endLat,
		&endAddress,
		&trip.StartTime,
		&endTime,
		&trip.DistanceKm,
		&trip.Purpose,
		&trip.Notes,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}

	trip.StartLocation.Address = startAddress.String
	if endLng.Valid {
		trip.EndLocation.Longitude = endLng.Float64
		trip.EndLocation.Latitude = endLat.Float64
	}
	trip.EndLocation.Address = endAddress.String
	if endTime.Valid {
		trip.EndTime = endTime.Time
	}

	return &trip, nil
}

func collectTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		trips = append(trips, trip)
	}
	return trips, translateErr(rows.Err())
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleettrack/internal/domain"
	"fleettrack/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, registration, model, category, year, color, status, driver_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		v.ID,
		v.Registration,
		v.Model,
		v.Category,
		v.Year,
		v.Color,
		v.Status,
		nullString(v.AssignedDriverID),
		v.CreatedBy,
		v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return translateErr(err)
	}

	return nil
}

const vehicleColumns = `id, registration, model, category, year, color, status, driver_id, created_by, created_at`

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, translateErr(err)
	}

	return v, nil
}

const vehicleDetailQuery = `
	SELECT v.id, v.registration, v.model, v.category, v.year, v.color, v.status,
	       v.driver_id, v.created_by, v.created_at,
	       u.id, u.name, u.email
	FROM vehicles v
	LEFT JOIN users u ON u.id = v.driver_id
`

// GetDetail retrieves a vehicle with the assigned driver summary joined in.
func (r *VehicleRepository) GetDetail(ctx context.Context, id string) (*domain.VehicleDetail, error) {
	row := r.q.QueryRowContext(ctx, vehicleDetailQuery+` WHERE v.id = $1`, id)

	d, err := scanVehicleDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, translateErr(err)
	}

	return d, nil
}

// ListDetail retrieves all vehicles with driver summaries, newest first.
func (r *VehicleRepository) ListDetail(ctx context.Context) ([]*domain.VehicleDetail, error) {
	rows, err := r.q.QueryContext(ctx, vehicleDetailQuery+` ORDER BY v.created_at DESC`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	return collectVehicleDetails(rows)
}

// ListByDriver retrieves vehicles assigned to the given driver.
func (r *VehicleRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.VehicleDetail, error) {
	rows, err := r.q.QueryContext(ctx, vehicleDetailQuery+` WHERE v.driver_id = $1 ORDER BY v.created_at DESC`, driverID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	return collectVehicleDetails(rows)
}

// Update updates a vehicle's attributes. The driver binding is left alone.
func (r *VehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET registration = $1, model = $2, category = $3, year = $4, color = $5, status = $6
		WHERE id = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		v.Registration,
		v.Model,
		v.Category,
		v.Year,
		v.Color,
		v.Status,
		v.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return translateErr(err)
	}

	return requireRow(result)
}

// AssignDriver replaces the vehicle's driver binding.
func (r *VehicleRepository) AssignDriver(ctx context.Context, vehicleID, driverID string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE vehicles SET driver_id = $1 WHERE id = $2`,
		nullString(driverID), vehicleID,
	)
	if err != nil {
		return translateErr(err)
	}

	return requireRow(result)
}

// UnassignDriverAll clears the binding on every vehicle assigned to the driver.
func (r *VehicleRepository) UnassignDriverAll(ctx context.Context, driverID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE vehicles SET driver_id = NULL WHERE driver_id = $1`, driverID)
	return translateErr(err)
}

// Delete permanently removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}

	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var driverID sql.NullString

	err := row.Scan(
		&v.ID,
		&v.Registration,
		&v.Model,
		&v.Category,
		&v.Year,
		&v.Color,
		&v.Status,
		&driverID,
		&v.CreatedBy,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}

	if driverID.Valid {
		v.AssignedDriverID = driverID.String
	}

	return &v, nil
}

func scanVehicleDetail(row rowScanner) (*domain.VehicleDetail, error) {
	var d domain.VehicleDetail
	var driverID sql.NullString
	var refID, refName, refEmail sql.NullString

	err := row.Scan(
		&d.ID,
		&d.Registration,
		&d.Model,
		&d.Category,
		&d.Year,
		&d.Color,
		&d.Status,
		&driverID,
		&d.CreatedBy,
		&d.CreatedAt,
		&refID,
		&refName,
		&refEmail,
	)
	if err != nil {
		return nil, translateErr(err)
	}

	if driverID.Valid {
		d.AssignedDriverID = driverID.String
	}
	if refID.Valid {
		d.Driver = &domain.DriverRef{ID: refID.String, Name: refName.String, Email: refEmail.String}
	}

	return &d, nil
}

func collectVehicleDetails(rows *sql.Rows) ([]*domain.VehicleDetail, error) {
	var details []*domain.VehicleDetail
	for rows.Next() {
		d, err := scanVehicleDetail(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		details = append(details, d)
	}
	return details, translateErr(rows.Err())
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)

package domain

import "time"

// VehicleCategory classifies a vehicle.
type VehicleCategory string

const (
	VehicleCategoryCar        VehicleCategory = "car"
	VehicleCategoryTruck      VehicleCategory = "truck"
	VehicleCategoryVan        VehicleCategory = "van"
	VehicleCategoryMotorcycle VehicleCategory = "motorcycle"
	VehicleCategoryBus        VehicleCategory = "bus"
	VehicleCategoryOther      VehicleCategory = "other"
)

// Valid reports whether the category is a known one.
func (c VehicleCategory) Valid() bool {
	switch c {
	case VehicleCategoryCar, VehicleCategoryTruck, VehicleCategoryVan,
		VehicleCategoryMotorcycle, VehicleCategoryBus, VehicleCategoryOther:
		return true
	}
	return false
}

// VehicleStatus is the operational status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusInactive    VehicleStatus = "inactive"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// Valid reports whether the status is a known one.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusActive, VehicleStatusInactive, VehicleStatusMaintenance:
		return true
	}
	return false
}

// Vehicle represents a fleet vehicle. Registration is stored upper-cased
// and is globally unique. AssignedDriverID is empty when unassigned; the
// vehicles table is the sole source of truth for the driver binding.
type Vehicle struct {
	ID               string
	Registration     string
	Model            string
	Category         VehicleCategory
	Year             int
	Color            string
	Status           VehicleStatus
	AssignedDriverID string
	CreatedBy        string
	CreatedAt        time.Time
}

// DriverRef is the read-model summary of an assigned driver, assembled by
// the persistence layer when detailed vehicle reads are requested.
type DriverRef struct {
	ID    string
	Name  string
	Email string
}

// VehicleDetail is a vehicle plus its joined driver summary.
type VehicleDetail struct {
	Vehicle
	Driver *DriverRef
}

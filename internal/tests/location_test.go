package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/service"
)

func newLocationFixture() (*service.LocationService, *MockLocationStore, *MockVehicleRepository) {
	locationStore := NewMockLocationStore()
	lockStore := NewMockLockStore()
	vehicleRepo := NewMockVehicleRepository()
	svc := service.NewLocationService(locationStore, lockStore, vehicleRepo)
	return svc, locationStore, vehicleRepo
}

func TestLocation_ReportByAssignedDriver(t *testing.T) {
	t.Parallel()

	svc, locationStore, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	before := time.Now()
	loc, err := svc.Report(context.Background(), service.ReportLocationRequest{
		VehicleID: "veh-1",
		Longitude: 77.5946,
		Latitude:  12.9716,
		Speed:     42,
		Address:   "MG Road",
		Actor:     domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loc.LastUpdated.Before(before) {
		t.Error("timestamp must be the server's receipt time")
	}
	stored := locationStore.GetStored("veh-1")
	if stored.Longitude != 77.5946 || stored.Latitude != 12.9716 {
		t.Errorf("stored coordinates wrong: %f,%f", stored.Longitude, stored.Latitude)
	}
	if stored.Address != "MG Road" {
		t.Errorf("expected address to be stored, got %q", stored.Address)
	}
}

func TestLocation_ReportByUnassignedDriver_Forbidden(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	_, err := svc.Report(context.Background(), service.ReportLocationRequest{
		VehicleID: "veh-1",
		Longitude: 77.59,
		Latitude:  12.97,
		Actor:     domain.Actor{ID: "driver-2", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLocation_EmptyAddressRetainsPrevious(t *testing.T) {
	t.Parallel()

	svc, locationStore, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	actor := domain.Actor{ID: "driver-1", Role: domain.RoleDriver}

	if _, err := svc.Report(context.Background(), service.ReportLocationRequest{
		VehicleID: "veh-1", Longitude: 77.59, Latitude: 12.97, Address: "MG Road", Actor: actor,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Report(context.Background(), service.ReportLocationRequest{
		VehicleID: "veh-1", Longitude: 77.60, Latitude: 12.98, Actor: actor,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := locationStore.GetStored("veh-1")
	if stored.Address != "MG Road" {
		t.Errorf("empty address should retain the previous one, got %q", stored.Address)
	}
	if stored.Longitude != 77.60 {
		t.Errorf("coordinates should be overwritten, got %f", stored.Longitude)
	}
}

func TestLocation_RepeatedReportIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, locationStore, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	actor := domain.Actor{ID: "driver-1", Role: domain.RoleDriver}

	req := service.ReportLocationRequest{
		VehicleID: "veh-1", Longitude: 77.59, Latitude: 12.97, Speed: 30, Actor: actor,
	}

	if _, err := svc.Report(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Report(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := locationStore.GetStored("veh-1")
	if stored.Longitude != 77.59 || stored.Latitude != 12.97 {
		t.Errorf("repeated report must leave the same state: %f,%f", stored.Longitude, stored.Latitude)
	}
}

func TestLocation_NeverReportedYieldsSentinel(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	loc, err := svc.Get(context.Background(), "veh-1", domain.Actor{ID: "manager-1", Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.IsSet() {
		t.Error("a vehicle that never reported must yield the unset sentinel")
	}
}

func TestLocation_NegativeSpeedRejected(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	_, err := svc.Report(context.Background(), service.ReportLocationRequest{
		VehicleID: "veh-1", Longitude: 77.59, Latitude: 12.97, Speed: -5,
		Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed, got %v", err)
	}
}

func TestLocation_OutOfRangeCoordinatesRejected(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	_, err := svc.Report(context.Background(), service.ReportLocationRequest{
		VehicleID: "veh-1", Longitude: 181, Latitude: 12.97,
		Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestLocation_NearbyManagerOnly(t *testing.T) {
	t.Parallel()

	svc, locationStore, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	locationStore.Set(context.Background(), "veh-1", domain.Location{
		Longitude: 77.5946, Latitude: 12.9716, LastUpdated: time.Now(),
	})

	fixes, err := svc.Nearby(context.Background(), service.NearbyRequest{
		Longitude: 77.59, Latitude: 12.97,
		Actor: domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixes) != 1 || fixes[0].VehicleID != "veh-1" {
		t.Errorf("expected one fix for veh-1, got %d", len(fixes))
	}

	_, err = svc.Nearby(context.Background(), service.NearbyRequest{
		Longitude: 77.59, Latitude: 12.97,
		Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for driver, got %v", err)
	}
}

func TestLocation_NearbyExcludesSentinelFixes(t *testing.T) {
	t.Parallel()

	svc, locationStore, vehicleRepo := newLocationFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	addAssignedVehicle(vehicleRepo, "veh-2", "driver-2")

	locationStore.Set(context.Background(), "veh-1", domain.Location{
		Longitude: 77.5946, Latitude: 12.9716, LastUpdated: time.Now(),
	})
	// veh-2 never produced a real fix.
	locationStore.Set(context.Background(), "veh-2", domain.Location{})

	fixes, err := svc.Nearby(context.Background(), service.NearbyRequest{
		Longitude: 77.59, Latitude: 12.97,
		Actor: domain.Actor{ID: "owner-1", Role: domain.RoleOwner},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range fixes {
		if f.VehicleID == "veh-2" {
			t.Error("sentinel fixes must not appear on the live map")
		}
	}
}

package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/service"
)

func newVehicleFixture() (*service.VehicleService, *MockVehicleRepository, *MockTripRepository, *MockLocationStore, *MockLockStore) {
	vehicleRepo := NewMockVehicleRepository()
	tripRepo := NewMockTripRepository()
	locationStore := NewMockLocationStore()
	lockStore := NewMockLockStore()
	svc := service.NewVehicleService(vehicleRepo, tripRepo, locationStore, nil, lockStore)
	return svc, vehicleRepo, tripRepo, locationStore, lockStore
}

func TestVehicle_CreateNormalizesRegistration(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newVehicleFixture()

	vehicle, err := svc.Create(context.Background(), service.CreateVehicleRequest{
		Registration: "  ka01ab1234 ",
		Model:        "Tata Ace",
		Category:     "truck",
		Actor:        domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vehicle.Registration != "KA01AB1234" {
		t.Errorf("expected normalized registration, got %q", vehicle.Registration)
	}
	if vehicle.Status != domain.VehicleStatusActive {
		t.Errorf("new vehicle should default to active, got %s", vehicle.Status)
	}
}

func TestVehicle_DuplicateRegistrationAcrossCase(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newVehicleFixture()
	actor := domain.Actor{ID: "manager-1", Role: domain.RoleManager}

	if _, err := svc.Create(context.Background(), service.CreateVehicleRequest{
		Registration: "KA01AB1234", Model: "Tata Ace", Actor: actor,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Create(context.Background(), service.CreateVehicleRequest{
		Registration: "ka01ab1234", Model: "Tata Ace", Actor: actor,
	})
	if !errors.Is(err, service.ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func TestVehicle_CreateByDriver_Forbidden(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newVehicleFixture()

	_, err := svc.Create(context.Background(), service.CreateVehicleRequest{
		Registration: "KA01AB1234", Model: "Tata Ace",
		Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestVehicle_CreateUnknownCategoryRejected(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newVehicleFixture()

	_, err := svc.Create(context.Background(), service.CreateVehicleRequest{
		Registration: "KA01AB1234", Model: "Tata Ace", Category: "spaceship",
		Actor: domain.Actor{ID: "owner-1", Role: domain.RoleOwner},
	})
	if !errors.Is(err, service.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestVehicle_DeleteWithOngoingTrip_Conflicts(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, tripRepo, _, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	err := svc.Delete(context.Background(), "veh-1", domain.Actor{ID: "owner-1", Role: domain.RoleOwner})
	if !errors.Is(err, service.ErrVehicleHasOngoingTrip) {
		t.Fatalf("expected ErrVehicleHasOngoingTrip, got %v", err)
	}
	if vehicleRepo.GetVehicle("veh-1") == nil {
		t.Error("vehicle must survive a rejected delete")
	}
}

func TestVehicle_DeleteRemovesLocation(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, locationStore, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	locationStore.Set(context.Background(), "veh-1", domain.Location{
		Longitude: 77.59, Latitude: 12.97, LastUpdated: time.Now(),
	})

	if err := svc.Delete(context.Background(), "veh-1", domain.Actor{ID: "owner-1", Role: domain.RoleOwner}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if locationStore.HasLocation("veh-1") {
		t.Error("deleting a vehicle must drop its live location")
	}
}

func TestVehicle_DeleteByManager_Forbidden(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "")

	err := svc.Delete(context.Background(), "veh-1", domain.Actor{ID: "manager-1", Role: domain.RoleManager})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestVehicle_DriverSeesOnlyAssignedVehicles(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	addAssignedVehicle(vehicleRepo, "veh-2", "driver-2")
	addAssignedVehicle(vehicleRepo, "veh-3", "")

	mine, err := svc.List(context.Background(), domain.Actor{ID: "driver-1", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "veh-1" {
		t.Errorf("driver should only see assigned vehicles, got %d", len(mine))
	}

	all, err := svc.List(context.Background(), domain.Actor{ID: "manager-1", Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("manager should see all vehicles, got %d", len(all))
	}

	// Reading someone else's vehicle is denied.
	if _, err := svc.Get(context.Background(), "veh-2", domain.Actor{ID: "driver-1", Role: domain.RoleDriver}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestVehicle_ListByDriverScope(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	// A driver cannot list another driver's vehicles.
	_, err := svc.ListByDriver(context.Background(), "driver-1", domain.Actor{ID: "driver-2", Role: domain.RoleDriver})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	vehicles, err := svc.ListByDriver(context.Background(), "driver-1", domain.Actor{ID: "driver-1", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vehicles) != 1 {
		t.Errorf("expected one vehicle, got %d", len(vehicles))
	}
}

func TestVehicle_UpdateStatusValidated(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	bad := "flying"
	_, err := svc.Update(context.Background(), service.UpdateVehicleRequest{
		VehicleID: "veh-1",
		Status:    &bad,
		Actor:     domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	})
	if !errors.Is(err, service.ErrInvalidVehicleStatus) {
		t.Fatalf("expected ErrInvalidVehicleStatus, got %v", err)
	}

	maintenance := string(domain.VehicleStatusMaintenance)
	vehicle, err := svc.Update(context.Background(), service.UpdateVehicleRequest{
		VehicleID: "veh-1",
		Status:    &maintenance,
		Actor:     domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vehicle.Status != domain.VehicleStatusMaintenance {
		t.Errorf("expected maintenance, got %s", vehicle.Status)
	}
}

func TestVehicle_UpdateDoesNotTouchDriverBinding(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _ := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	color := "red"
	if _, err := svc.Update(context.Background(), service.UpdateVehicleRequest{
		VehicleID: "veh-1",
		Color:     &color,
		Actor:     domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := vehicleRepo.GetVehicle("veh-1")
	if stored.AssignedDriverID != "driver-1" {
		t.Error("attribute updates must not disturb the driver binding")
	}
	if stored.Color != "red" {
		t.Errorf("expected color red, got %q", stored.Color)
	}
}

func TestVehicle_DeleteRequiresVehicleLock(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, lockStore := newVehicleFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	injected := errors.New("lock store down")
	lockStore.AcquireError = injected

	err := svc.Delete(context.Background(), "veh-1", domain.Actor{ID: "owner-1", Role: domain.RoleOwner})
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected lock error, got %v", err)
	}
	if vehicleRepo.GetVehicle("veh-1") == nil {
		t.Error("vehicle must survive when the lock cannot be taken")
	}
	if atomic.LoadInt32(&vehicleRepo.DeleteCallCount) != 0 {
		t.Error("delete must not reach the repository without the lock")
	}
}

func TestVehicle_ConcurrentDeleteAndStartStayConsistent(t *testing.T) {
	t.Parallel()

	vehicleRepo := NewMockVehicleRepository()
	tripRepo := NewMockTripRepository()
	locationStore := NewMockLocationStore()
	lockStore := NewMockLockStore()
	vehicleSvc := service.NewVehicleService(vehicleRepo, tripRepo, locationStore, nil, lockStore)
	tripSvc := service.NewTripService(tripRepo, vehicleRepo, lockStore)

	for i := 0; i < 10; i++ {
		vehicleID := "veh-" + string(rune('a'+i))
		vehicleRepo.AddVehicle(&domain.Vehicle{
			ID:               vehicleID,
			Registration:     "KA01AB100" + string(rune('A'+i)),
			Status:           domain.VehicleStatusActive,
			AssignedDriverID: "driver-1",
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = tripSvc.Start(context.Background(), service.StartTripRequest{
				VehicleID:     vehicleID,
				StartLocation: domain.Location{Longitude: 77.59, Latitude: 12.97},
				Actor:         domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
			})
		}()
		go func() {
			defer wg.Done()
			_ = vehicleSvc.Delete(context.Background(), vehicleID, domain.Actor{ID: "owner-1", Role: domain.RoleOwner})
		}()
		wg.Wait()

		// Either the start lost to the delete or the delete conflicted;
		// a deleted vehicle must never carry an ongoing trip.
		if vehicleRepo.GetVehicle(vehicleID) == nil && tripRepo.CountOngoingForVehicle(vehicleID) != 0 {
			t.Fatalf("vehicle %s deleted while an ongoing trip exists on it", vehicleID)
		}
	}
}

package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/service"
)

func newTripFixture() (*service.TripService, *MockTripRepository, *MockVehicleRepository, *MockLockStore) {
	tripRepo := NewMockTripRepository()
	vehicleRepo := NewMockVehicleRepository()
	lockStore := NewMockLockStore()
	svc := service.NewTripService(tripRepo, vehicleRepo, lockStore)
	return svc, tripRepo, vehicleRepo, lockStore
}

func addAssignedVehicle(vehicleRepo *MockVehicleRepository, vehicleID, driverID string) {
	vehicleRepo.AddVehicle(&domain.Vehicle{
		ID:               vehicleID,
		Registration:     "KA01AB1234",
		Status:           domain.VehicleStatusActive,
		AssignedDriverID: driverID,
	})
}

func TestTrip_StartByAssignedDriver(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	trip, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID:     "veh-1",
		StartLocation: domain.Location{Longitude: 77.59, Latitude: 12.97},
		Purpose:       "delivery run",
		Actor:         domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusOngoing {
		t.Errorf("expected status %s, got %s", domain.TripStatusOngoing, trip.Status)
	}
	if trip.DriverID != "driver-1" {
		t.Errorf("expected driver-1, got %s", trip.DriverID)
	}
	if trip.StartTime.IsZero() {
		t.Error("expected start time to be stamped")
	}
	if !trip.EndTime.IsZero() {
		t.Error("ongoing trip must not carry an end time")
	}
	if tripRepo.CountOngoingForVehicle("veh-1") != 1 {
		t.Error("expected one ongoing trip on the vehicle")
	}
}

func TestTrip_StartByManagerResolvesAssignee(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	trip, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID:     "veh-1",
		StartLocation: domain.Location{Longitude: 77.59, Latitude: 12.97},
		Actor:         domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.DriverID != "driver-1" {
		t.Errorf("trip driver should be the assignee, got %s", trip.DriverID)
	}
}

func TestTrip_StartOnUnassignedVehicleByManager_Fails(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "")

	_, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID:     "veh-1",
		StartLocation: domain.Location{Longitude: 77.59, Latitude: 12.97},
		Actor:         domain.Actor{ID: "manager-1", Role: domain.RoleManager},
	})
	if !errors.Is(err, service.ErrVehicleUnassigned) {
		t.Fatalf("expected ErrVehicleUnassigned, got %v", err)
	}
}

func TestTrip_StartByOtherDriver_Forbidden(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	_, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID:     "veh-1",
		StartLocation: domain.Location{Longitude: 77.59, Latitude: 12.97},
		Actor:         domain.Actor{ID: "driver-2", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTrip_SecondStartOnSameVehicle_Conflicts(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	actor := domain.Actor{ID: "driver-1", Role: domain.RoleDriver}
	loc := domain.Location{Longitude: 77.59, Latitude: 12.97}

	if _, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID: "veh-1", StartLocation: loc, Actor: actor,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID: "veh-1", StartLocation: loc, Actor: actor,
	})
	if !errors.Is(err, service.ErrVehicleHasOngoingTrip) {
		t.Fatalf("expected ErrVehicleHasOngoingTrip, got %v", err)
	}
}

func TestTrip_ConcurrentStarts_ExactlyOneSucceeds(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Start(context.Background(), service.StartTripRequest{
				VehicleID:     "veh-1",
				StartLocation: domain.Location{Longitude: 77.59, Latitude: 12.97},
				Actor:         domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrVehicleHasOngoingTrip):
		case errors.Is(err, service.ErrVehicleBusy):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one successful start, got %d", successes)
	}
	if got := tripRepo.CountOngoingForVehicle("veh-1"); got != 1 {
		t.Errorf("expected one ongoing trip, got %d", got)
	}
}

func TestTrip_AppendRoutePoint_OnlyTripDriver(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	// The trip's driver can append.
	point, err := svc.AppendRoutePoint(context.Background(), service.AppendRoutePointRequest{
		TripID: "trip-1", Longitude: 77.60, Latitude: 12.98, Speed: 35,
		Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Seq != 1 {
		t.Errorf("expected seq 1, got %d", point.Seq)
	}
	if point.RecordedAt.IsZero() {
		t.Error("expected server-stamped timestamp")
	}

	// Even an owner cannot append on a driver's behalf.
	_, err = svc.AppendRoutePoint(context.Background(), service.AppendRoutePointRequest{
		TripID: "trip-1", Longitude: 77.61, Latitude: 12.99, Speed: 35,
		Actor: domain.Actor{ID: "owner-1", Role: domain.RoleOwner},
	})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for owner append, got %v", err)
	}
}

func TestTrip_ConcurrentAppends_SeqAndTimestampsOrdered(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	const points = 20
	var wg sync.WaitGroup
	for i := 0; i < points; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AppendRoutePoint(context.Background(), service.AppendRoutePointRequest{
				TripID: "trip-1", Longitude: 77.60, Latitude: 12.98, Speed: 30,
				Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	trip := tripRepo.GetTrip("trip-1")
	if len(trip.Route) != points {
		t.Fatalf("expected %d route points, got %d", points, len(trip.Route))
	}

	route := append([]domain.RoutePoint(nil), trip.Route...)
	sort.Slice(route, func(i, j int) bool { return route[i].Seq < route[j].Seq })

	for i, p := range route {
		if p.Seq != i+1 {
			t.Fatalf("expected contiguous seq, got %d at position %d", p.Seq, i)
		}
		if i > 0 && p.RecordedAt.Before(route[i-1].RecordedAt) {
			t.Fatalf("timestamps must be non-decreasing in seq order")
		}
	}
}

func TestTrip_Complete_SetsTerminalState(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	trip, err := svc.Complete(context.Background(), service.CompleteTripRequest{
		TripID:      "trip-1",
		EndLocation: domain.Location{Longitude: 77.70, Latitude: 13.05},
		DistanceKm:  18.4,
		Actor:       domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected completed, got %s", trip.Status)
	}
	if trip.EndTime.IsZero() {
		t.Error("completed trip must carry an end time")
	}
	if trip.DistanceKm != 18.4 {
		t.Errorf("expected distance 18.4, got %f", trip.DistanceKm)
	}

	stored := tripRepo.GetTrip("trip-1")
	if stored.Status != domain.TripStatusCompleted {
		t.Errorf("stored trip not completed: %s", stored.Status)
	}
}

func TestTrip_Complete_DerivesDistanceFromRoute(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		VehicleID:     "veh-1",
		DriverID:      "driver-1",
		Status:        domain.TripStatusOngoing,
		StartLocation: domain.Location{Longitude: 77.5946, Latitude: 12.9716},
		Route: []domain.RoutePoint{
			{Seq: 1, Longitude: 77.6046, Latitude: 12.9816},
			{Seq: 2, Longitude: 77.6146, Latitude: 12.9916},
		},
		StartTime: time.Now(),
	})

	trip, err := svc.Complete(context.Background(), service.CompleteTripRequest{
		TripID:      "trip-1",
		EndLocation: domain.Location{Longitude: 77.6146, Latitude: 12.9916},
		Actor:       domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.DistanceKm <= 0 {
		t.Error("expected distance derived from the route")
	}
	// Two ~1.5km hops; anything wildly off means the haversine sum broke.
	if trip.DistanceKm < 1 || trip.DistanceKm > 10 {
		t.Errorf("derived distance implausible: %f km", trip.DistanceKm)
	}
}

func TestTrip_CompleteTwice_Conflicts(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	req := service.CompleteTripRequest{
		TripID:      "trip-1",
		EndLocation: domain.Location{Longitude: 77.70, Latitude: 13.05},
		Actor:       domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	}

	if _, err := svc.Complete(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Complete(context.Background(), req); !errors.Is(err, service.ErrTripNotOngoing) {
		t.Fatalf("expected ErrTripNotOngoing, got %v", err)
	}
}

func TestTrip_CompleteNegativeDistanceRejected(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	_, err := svc.Complete(context.Background(), service.CompleteTripRequest{
		TripID:      "trip-1",
		EndLocation: domain.Location{Longitude: 77.70, Latitude: 13.05},
		DistanceKm:  -4.2,
		Actor:       domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrInvalidDistance) {
		t.Fatalf("expected ErrInvalidDistance, got %v", err)
	}

	if trip := tripRepo.GetTrip("trip-1"); trip.Status != domain.TripStatusOngoing {
		t.Errorf("rejected completion must leave the trip ongoing, got %s", trip.Status)
	}
}

func TestTrip_Cancel_NoEndLocation(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusOngoing,
		StartTime: time.Now(),
	})

	trip, err := svc.Cancel(context.Background(), "trip-1", domain.Actor{ID: "driver-1", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected cancelled, got %s", trip.Status)
	}
	if trip.EndTime.IsZero() {
		t.Error("cancelled trip must carry an end time")
	}
	if trip.EndLocation.IsSet() {
		t.Error("cancelled trip must not record an end location")
	}

	// Route appends after cancellation are rejected.
	_, err = svc.AppendRoutePoint(context.Background(), service.AppendRoutePointRequest{
		TripID: "trip-1", Longitude: 77.60, Latitude: 12.98,
		Actor: domain.Actor{ID: "driver-1", Role: domain.RoleDriver},
	})
	if !errors.Is(err, service.ErrTripNotOngoing) {
		t.Fatalf("expected ErrTripNotOngoing, got %v", err)
	}
}

func TestTrip_VehicleFreeAfterCompletion(t *testing.T) {
	t.Parallel()

	svc, _, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")

	actor := domain.Actor{ID: "driver-1", Role: domain.RoleDriver}
	loc := domain.Location{Longitude: 77.59, Latitude: 12.97}

	first, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID: "veh-1", StartLocation: loc, Actor: actor,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Complete(context.Background(), service.CompleteTripRequest{
		TripID:      first.ID,
		EndLocation: domain.Location{Longitude: 77.70, Latitude: 13.05},
		Actor:       actor,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Start(context.Background(), service.StartTripRequest{
		VehicleID: "veh-1", StartLocation: loc, Actor: actor,
	}); err != nil {
		t.Fatalf("vehicle should be free for a new trip: %v", err)
	}
}

func TestTrip_Delete_OwnerOnly(t *testing.T) {
	t.Parallel()

	svc, tripRepo, vehicleRepo, _ := newTripFixture()
	addAssignedVehicle(vehicleRepo, "veh-1", "driver-1")
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		VehicleID: "veh-1",
		DriverID:  "driver-1",
		Status:    domain.TripStatusCompleted,
		StartTime: time.Now(),
	})

	err := svc.Delete(context.Background(), "trip-1", domain.Actor{ID: "manager-1", Role: domain.RoleManager})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for manager delete, got %v", err)
	}

	if err := svc.Delete(context.Background(), "trip-1", domain.Actor{ID: "owner-1", Role: domain.RoleOwner}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tripRepo.CountTrips() != 0 {
		t.Error("expected trip to be removed")
	}
}

func TestTrip_DriverListScopedToOwnTrips(t *testing.T) {
	t.Parallel()

	svc, tripRepo, _, _ := newTripFixture()
	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", VehicleID: "veh-1", DriverID: "driver-1", Status: domain.TripStatusCompleted})
	tripRepo.AddTrip(&domain.Trip{ID: "trip-2", VehicleID: "veh-2", DriverID: "driver-2", Status: domain.TripStatusOngoing})

	trips, err := svc.List(context.Background(), domain.Actor{ID: "driver-1", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != "trip-1" {
		t.Errorf("driver should only see their own trips, got %d", len(trips))
	}

	all, err := svc.List(context.Background(), domain.Actor{ID: "manager-1", Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("manager should see all trips, got %d", len(all))
	}

	// A driver reading another driver's trip is denied.
	if _, err := svc.Get(context.Background(), "trip-2", domain.Actor{ID: "driver-1", Role: domain.RoleDriver}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/redis"
	"fleettrack/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
	drivers  map[string]*domain.User

	// Counters for verification
	CreateCallCount       int32
	AssignDriverCallCount int32
	DeleteCallCount       int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
		drivers:  make(map[string]*domain.User),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

// AddDriverRecord registers a driver so detail reads can join it.
func (m *MockVehicleRepository) AddDriverRecord(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[user.ID] = user
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.Registration == vehicle.Registration {
			return repository.ErrConflict
		}
	}
	copy := *vehicle
	m.vehicles[vehicle.ID] = &copy
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetDetail(ctx context.Context, id string) (*domain.VehicleDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.detailLocked(vehicle), nil
}

func (m *MockVehicleRepository) detailLocked(vehicle *domain.Vehicle) *domain.VehicleDetail {
	detail := &domain.VehicleDetail{Vehicle: *vehicle}
	if vehicle.AssignedDriverID != "" {
		if driver, ok := m.drivers[vehicle.AssignedDriverID]; ok {
			detail.Driver = &domain.DriverRef{
				ID:    driver.ID,
				Name:  driver.Name,
				Email: driver.Email,
			}
		}
	}
	return detail
}

func (m *MockVehicleRepository) ListDetail(ctx context.Context) ([]*domain.VehicleDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.VehicleDetail, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		result = append(result, m.detailLocked(v))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockVehicleRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.VehicleDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.VehicleDetail, 0)
	for _, v := range m.vehicles {
		if v.AssignedDriverID == driverID {
			result = append(result, m.detailLocked(v))
		}
	}
	return result, nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.vehicles[vehicle.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, v := range m.vehicles {
		if id != vehicle.ID && v.Registration == vehicle.Registration {
			return repository.ErrConflict
		}
	}
	// The driver binding is owned by AssignDriver.
	binding := stored.AssignedDriverID
	copy := *vehicle
	copy.AssignedDriverID = binding
	m.vehicles[vehicle.ID] = &copy
	return nil
}

func (m *MockVehicleRepository) AssignDriver(ctx context.Context, vehicleID, driverID string) error {
	atomic.AddInt32(&m.AssignDriverCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[vehicleID]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.AssignedDriverID = driverID
	return nil
}

func (m *MockVehicleRepository) UnassignDriverAll(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.AssignedDriverID == driverID {
			v.AssignedDriverID = ""
		}
	}
	return nil
}

func (m *MockVehicleRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.vehicles, id)
	return nil
}

// GetVehicle returns the vehicle for test assertions.
func (m *MockVehicleRepository) GetVehicle(id string) *domain.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vehicles[id]
}

// CountVehicles returns the number of vehicles.
func (m *MockVehicleRepository) CountVehicles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vehicles)
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0)
	for _, u := range m.users {
		if u.Role == role {
			copy := *u
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// CountUsers returns the number of users.
func (m *MockUserRepository) CountUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. The
// mutating operations mirror the real store's atomicity under one mutex:
// Create rejects a second ongoing trip per vehicle, AppendRoutePoint
// assigns seq and timestamp inside the critical section, and Finish is a
// compare-and-swap on the ongoing status.
type MockTripRepository struct {
	mu    sync.Mutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	AppendCallCount int32
	FinishCallCount int32

	// Error injection
	CreateError error
	AppendError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.VehicleID == trip.VehicleID && t.Status == domain.TripStatusOngoing {
			return repository.ErrConflict
		}
	}
	copy := cloneTrip(trip)
	m.trips[trip.ID] = copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTrip(trip), nil
}

func (m *MockTripRepository) List(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		result = append(result, cloneTrip(t))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.DriverID == driverID {
			result = append(result, cloneTrip(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTripRepository) GetOngoingByVehicle(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.VehicleID == vehicleID && t.Status == domain.TripStatusOngoing {
			return cloneTrip(t), nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) AppendRoutePoint(ctx context.Context, tripID string, lng, lat, speed float64) (*domain.RoutePoint, error) {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return nil, m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if trip.Status != domain.TripStatusOngoing {
		return nil, repository.ErrConflict
	}
	point := domain.RoutePoint{
		Seq:        len(trip.Route) + 1,
		Longitude:  lng,
		Latitude:   lat,
		Speed:      speed,
		RecordedAt: time.Now(),
	}
	trip.Route = append(trip.Route, point)
	return &point, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Purpose = trip.Purpose
	stored.Notes = trip.Notes
	return nil
}

func (m *MockTripRepository) Finish(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.FinishCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != domain.TripStatusOngoing {
		return repository.ErrConflict
	}
	stored.Status = trip.Status
	stored.EndLocation = trip.EndLocation
	stored.EndTime = trip.EndTime
	stored.DistanceKm = trip.DistanceKm
	return nil
}

func (m *MockTripRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.trips, id)
	return nil
}

// GetTrip returns the trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil
	}
	return cloneTrip(trip)
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trips)
}

// CountOngoingForVehicle counts ongoing trips on a vehicle.
func (m *MockTripRepository) CountOngoingForVehicle(vehicleID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.trips {
		if t.VehicleID == vehicleID && t.Status == domain.TripStatusOngoing {
			count++
		}
	}
	return count
}

func cloneTrip(t *domain.Trip) *domain.Trip {
	copy := *t
	copy.Route = append([]domain.RoutePoint(nil), t.Route...)
	return &copy
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]domain.Location

	// Counters for verification
	SetCallCount int32

	// Error injection
	SetError error
	GetError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]domain.Location),
	}
}

func (m *MockLocationStore) Set(ctx context.Context, vehicleID string, loc domain.Location) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[vehicleID] = loc
	return nil
}

func (m *MockLocationStore) Get(ctx context.Context, vehicleID string) (domain.Location, error) {
	if m.GetError != nil {
		return domain.Location{}, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locations[vehicleID], nil
}

func (m *MockLocationStore) Remove(ctx context.Context, vehicleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, vehicleID)
	return nil
}

func (m *MockLocationStore) FindNearby(ctx context.Context, lng, lat, radiusKm float64) ([]redis.VehicleFix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Real geo filtering lives in Redis; the mock returns every real fix.
	result := make([]redis.VehicleFix, 0, len(m.locations))
	for id, loc := range m.locations {
		if !loc.IsSet() {
			continue
		}
		result = append(result, redis.VehicleFix{
			VehicleID: id,
			Lng:       loc.Longitude,
			Lat:       loc.Latitude,
		})
	}
	return result, nil
}

// HasLocation checks whether a vehicle has a stored location.
func (m *MockLocationStore) HasLocation(vehicleID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[vehicleID]
	return ok
}

// GetStored returns the stored location for assertions.
func (m *MockLocationStore) GetStored(vehicleID string) domain.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locations[vehicleID]
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:vehicle:" + vehicleID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:vehicle:"+vehicleID)
	return nil
}

// IsLocked checks whether a vehicle is locked (for test assertions).
func (m *MockLockStore) IsLocked(vehicleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:vehicle:"+vehicleID]
	return exists && time.Now().Before(expiry)
}

package domain

import "time"

// TripStatus represents the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusOngoing   TripStatus = "ongoing"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// RoutePoint is one waypoint in a trip's route. Seq is assigned by the
// store inside the serialized append, so RecordedAt is non-decreasing in
// Seq order.
type RoutePoint struct {
	Seq        int
	Longitude  float64
	Latitude   float64
	Speed      float64
	RecordedAt time.Time
}

// Trip represents a journey driven on a vehicle. VehicleID and DriverID
// are fixed at creation; DriverID is a point-in-time copy of the vehicle's
// assignee and does not track later re-assignment.
type Trip struct {
	ID            string
	VehicleID     string
	DriverID      string
	Status        TripStatus
	StartLocation Location
	EndLocation   Location
	Route         []RoutePoint
	StartTime     time.Time
	EndTime       time.Time
	DistanceKm    float64
	Purpose       string
	Notes         string
	CreatedAt     time.Time
}

// RouteDistanceKm sums the haversine distance over the trip's route,
// starting from the start location when it holds a real fix.
func (t *Trip) RouteDistanceKm() float64 {
	var total float64

	prevLng, prevLat := t.StartLocation.Longitude, t.StartLocation.Latitude
	havePrev := t.StartLocation.IsSet()

	for _, p := range t.Route {
		if havePrev {
			total += DistanceKm(prevLng, prevLat, p.Longitude, p.Latitude)
		}
		prevLng, prevLat = p.Longitude, p.Latitude
		havePrev = true
	}

	return total
}

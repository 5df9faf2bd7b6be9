package domain

import (
	"math"
	"testing"
)

func TestValidCoordinates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lng, lat float64
		want     bool
	}{
		{"bengaluru", 77.5946, 12.9716, true},
		{"sentinel origin", 0, 0, true},
		{"longitude bound", 180, 0, true},
		{"latitude bound", 0, -90, true},
		{"longitude overflow", 180.1, 0, false},
		{"latitude overflow", 0, 90.1, false},
		{"nan", math.NaN(), 0, false},
		{"inf", 0, math.Inf(1), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidCoordinates(tc.lng, tc.lat); got != tc.want {
				t.Errorf("ValidCoordinates(%f, %f) = %v, want %v", tc.lng, tc.lat, got, tc.want)
			}
		})
	}
}

func TestLocation_IsSet(t *testing.T) {
	t.Parallel()

	if (Location{}).IsSet() {
		t.Error("zero location is the unset sentinel")
	}
	if !(Location{Longitude: 77.59, Latitude: 12.97}).IsSet() {
		t.Error("a real fix must report set")
	}
	if !(Location{Longitude: 0, Latitude: 51.47}).IsSet() {
		t.Error("a fix on the prime meridian is still a real fix")
	}
}

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	// Bengaluru to Chennai is roughly 290 km great-circle.
	got := DistanceKm(77.5946, 12.9716, 80.2707, 13.0827)
	if got < 280 || got > 300 {
		t.Errorf("expected ~290 km, got %f", got)
	}

	if d := DistanceKm(77.59, 12.97, 77.59, 12.97); d != 0 {
		t.Errorf("distance to self must be zero, got %f", d)
	}
}

func TestTrip_RouteDistanceKm(t *testing.T) {
	t.Parallel()

	trip := &Trip{
		StartLocation: Location{Longitude: 77.5946, Latitude: 12.9716},
		Route: []RoutePoint{
			{Seq: 1, Longitude: 77.6046, Latitude: 12.9816},
			{Seq: 2, Longitude: 77.6146, Latitude: 12.9916},
		},
	}

	total := trip.RouteDistanceKm()
	legs := DistanceKm(77.5946, 12.9716, 77.6046, 12.9816) +
		DistanceKm(77.6046, 12.9816, 77.6146, 12.9916)
	if math.Abs(total-legs) > 1e-9 {
		t.Errorf("expected %f, got %f", legs, total)
	}

	// Sentinel start: the first hop is skipped, single point means zero.
	single := &Trip{Route: []RoutePoint{{Seq: 1, Longitude: 77.60, Latitude: 12.98}}}
	if d := single.RouteDistanceKm(); d != 0 {
		t.Errorf("single point with unset start must be zero, got %f", d)
	}

	if d := (&Trip{}).RouteDistanceKm(); d != 0 {
		t.Errorf("empty route must be zero, got %f", d)
	}
}

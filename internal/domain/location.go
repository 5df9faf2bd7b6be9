package domain

import (
	"math"
	"time"
)

// Location is a single reported fix for a vehicle. Coordinates of (0,0)
// are the "no fix yet" sentinel and never represent a real position.
type Location struct {
	Longitude   float64
	Latitude    float64
	Address     string
	Speed       float64
	LastUpdated time.Time
}

// IsSet reports whether the location holds a real fix.
func (l Location) IsSet() bool {
	return l.Longitude != 0 || l.Latitude != 0
}

// ValidCoordinates reports whether the pair is a usable fix: finite and
// inside the WGS84 range.
func ValidCoordinates(lng, lat float64) bool {
	if math.IsNaN(lng) || math.IsInf(lng, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance in kilometers between two fixes.
func DistanceKm(lng1, lat1, lng2, lat2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Package geofence decides whether a reported coordinate lies inside an
// event venue's circular boundary.
package geofence

import "math"

const (
	// EarthRadius is the mean Earth radius in meters used by Distance.
	EarthRadius = 6371000.0
	// DefaultRadius applies when a venue has no radius configured.
	DefaultRadius = 200.0
)

// Distance returns the haversine great-circle distance in meters.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Verify reports whether the check-in point is within radiusMeters of the
// venue. The boundary is inclusive. A non-positive radius means DefaultRadius.
func Verify(checkinLat, checkinLng, venueLat, venueLng, radiusMeters float64) bool {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadius
	}
	return Distance(checkinLat, checkinLng, venueLat, venueLng) <= radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

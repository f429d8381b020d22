// Package geofence implements the distance/radius evaluation for check-in
// positions and the GPS source priority rule. Everything here is pure and
// safe to call concurrently.
package geofence

import (
	"github.com/golang/geo/s2"

	"github.com/tubequest/checkin/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// DefaultRadiusMeters is the geofence radius applied when no override is
// configured (see config.GeofenceRadiusM).
const DefaultRadiusMeters = 750.0

// Evaluation is the pass/fail outcome of a single distance check.
type Evaluation struct {
	WithinRadius   bool
	DistanceMeters float64
}

// Distance returns the great-circle distance in meters between two points.
// Symmetric; identical points return exactly 0. Out-of-range latitudes and
// longitudes are evaluated mathematically, not rejected.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Evaluate computes the distance between a claimed position and a station and
// checks it against radiusMeters. A distance of exactly radiusMeters passes.
func Evaluate(userLat, userLng, stationLat, stationLng, radiusMeters float64) Evaluation {
	d := Distance(userLat, userLng, stationLat, stationLng)
	return Evaluation{
		WithinRadius:   d <= radiusMeters,
		DistanceMeters: d,
	}
}

// SelectSource picks which coordinate source to trust. Image-embedded
// coordinates always win when present, regardless of what the device reports;
// this is a fixed priority rule, never a quality comparison between the two.
func SelectSource(imageCoords, deviceCoords *domain.Coordinate) domain.GPSSource {
	if imageCoords != nil {
		return domain.SourceImage
	}
	if deviceCoords != nil {
		return domain.SourceDevice
	}
	return domain.SourceNone
}

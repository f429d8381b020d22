package geofence

import (
	"log/slog"

	"github.com/tubequest/checkin/internal/domain"
)

// Validate runs the full geofence check for one submission: pick the
// coordinate source, then evaluate the chosen coordinate against the station.
// The same radius is applied whichever source wins.
//
// When no coordinates are available the result is a definitive fail with a
// nil distance, which the decision engine maps to the no_gps_data reason.
//
// If log is non-nil, one structured audit line is emitted per call. The line
// is for traceability only and never influences the result.
func Validate(imageCoords, deviceCoords *domain.Coordinate, station domain.Coordinate, radiusMeters float64, log *slog.Logger) domain.GeofenceResult {
	source := SelectSource(imageCoords, deviceCoords)

	result := domain.GeofenceResult{
		Source:     source,
		RadiusUsed: radiusMeters,
	}

	if source != domain.SourceNone {
		chosen := deviceCoords
		if source == domain.SourceImage {
			chosen = imageCoords
		}
		eval := Evaluate(chosen.Lat, chosen.Lng, station.Lat, station.Lng, radiusMeters)
		result.WithinRadius = eval.WithinRadius
		result.DistanceMeters = &eval.DistanceMeters
	}

	if log != nil {
		outcome := "FAIL"
		if result.WithinRadius {
			outcome = "PASS"
		}
		attrs := []any{
			"result", outcome,
			"source", string(source),
			"radius_m", radiusMeters,
			"station_lat", station.Lat,
			"station_lng", station.Lng,
		}
		if imageCoords != nil {
			attrs = append(attrs, "image_lat", imageCoords.Lat, "image_lng", imageCoords.Lng)
		}
		if deviceCoords != nil {
			attrs = append(attrs, "device_lat", deviceCoords.Lat, "device_lng", deviceCoords.Lng)
		}
		if result.DistanceMeters != nil {
			attrs = append(attrs, "distance_m", *result.DistanceMeters)
		}
		log.Info("geofence validation", attrs...)
	}

	return result
}

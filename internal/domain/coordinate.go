package domain

// GPSSource tags where a coordinate pair came from. Provenance is carried
// through to the persisted visit because audit and tie-breaking depend on it;
// a coordinate is never stored without its source tag.
type GPSSource string

const (
	// SourceImage: coordinates embedded in the submitted photo's EXIF data.
	SourceImage GPSSource = "exif"
	// SourceDevice: coordinates reported by the submitting device.
	SourceDevice GPSSource = "device"
	// SourceNone: no usable coordinates were supplied.
	SourceNone GPSSource = "none"
)

// Coordinate is a (latitude, longitude) pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeofenceResult is the outcome of validating a claimed position against a
// station's geofence. DistanceMeters is nil exactly when Source is SourceNone,
// and WithinRadius is always false in that case.
type GeofenceResult struct {
	WithinRadius   bool
	DistanceMeters *float64
	Source         GPSSource
	RadiusUsed     float64
}

// OCRResult is the structured output of the external station-name recognizer.
// The pipeline consumes it as already-resolved input; the recognition model
// itself lives outside the core.
type OCRResult struct {
	Success     bool
	Confidence  float64
	RawText     string
	CleanedName string
}

package location

// Coordinate is a single position fix. Accuracy is in meters and is zero when
// the provider cannot estimate it.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// GeoFence is a circular region around a site.
type GeoFence struct {
	Center       Coordinate `json:"center" yaml:"center"`
	RadiusMeters float64    `json:"radius_meters" yaml:"radius_meters" validate:"gt=0"`
}

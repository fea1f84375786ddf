// Package geo provides pure distance and commute-feasibility calculations
// used when workers claim shifts at locations outside their home restaurant.
package geo

import (
	"math"
	"time"
)

// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
const EarthRadiusMiles = 3959.0

// MinBufferMinutes is the smallest acceptable slack between the estimated
// commute and the time actually available between two shifts.
const MinBufferMinutes = 10

// milesPerDegreeLat approximates one degree of latitude anywhere on Earth.
const milesPerDegreeLat = 69.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// CommuteConfig tunes the commute estimate.
type CommuteConfig struct {
	BaseMinutes   float64 `json:"baseMinutes"`
	SpeedMph      float64 `json:"speedMph"`
	TrafficFactor float64 `json:"trafficFactor"`
}

// DefaultCommuteConfig returns the estimate parameters used when a tenant has
// not configured its own.
func DefaultCommuteConfig() CommuteConfig {
	return CommuteConfig{
		BaseMinutes:   5,
		SpeedMph:      25,
		TrafficFactor: 1.3,
	}
}

// CommuteCheck is the outcome of a feasibility evaluation between two shifts.
type CommuteCheck struct {
	Feasible         bool `json:"feasible"`
	EstimatedMinutes int  `json:"estimatedMinutes"`
	AvailableMinutes int  `json:"availableMinutes"`
	BufferMinutes    int  `json:"bufferMinutes"`
}

// Distance returns the great-circle distance between two points in miles.
func Distance(a, b Point) float64 {
	latA := toRadians(a.Latitude)
	latB := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EstimateCommute converts a distance into a whole-minute commute estimate.
// The estimate rounds up; claim ordering near tie boundaries depends on this
// direction, so it must not change.
func EstimateCommute(distanceMiles float64, config CommuteConfig) int {
	if distanceMiles <= 0 {
		return 0
	}
	minutes := config.BaseMinutes + (distanceMiles/config.SpeedMph*60)*config.TrafficFactor
	return int(math.Ceil(minutes))
}

// CanCommute decides whether a worker finishing a shift at shiftAEnd can
// plausibly start another shift at shiftBStart given the distance between the
// two locations. Feasibility requires at least MinBufferMinutes of slack.
func CanCommute(shiftAEnd, shiftBStart time.Time, distanceMiles float64, config CommuteConfig) CommuteCheck {
	estimated := EstimateCommute(distanceMiles, config)
	available := int(shiftBStart.Sub(shiftAEnd).Minutes())
	buffer := available - estimated

	return CommuteCheck{
		Feasible:         buffer >= MinBufferMinutes,
		EstimatedMinutes: estimated,
		AvailableMinutes: available,
		BufferMinutes:    buffer,
	}
}

// Box is a coarse latitude/longitude rectangle.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point falls inside the box.
func (b Box) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// BoundingBox returns a rectangle guaranteed to contain every point within
// radiusMiles of center. It is a pre-filter for candidate queries; callers
// must still check exact distance against anything the box admits.
func BoundingBox(center Point, radiusMiles float64) Box {
	latDelta := radiusMiles / milesPerDegreeLat

	// Longitude degrees shrink toward the poles.
	cosLat := math.Cos(toRadians(center.Latitude))
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonDelta := radiusMiles / (milesPerDegreeLat * cosLat)

	return Box{
		MinLat: center.Latitude - latDelta,
		MaxLat: center.Latitude + latDelta,
		MinLon: center.Longitude - lonDelta,
		MaxLon: center.Longitude + lonDelta,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

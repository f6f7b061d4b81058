package geo

import (
	"math"

	"github.com/tidwall/geodesic"
)

// EarthRadiusMeters is the mean Earth radius used by HaversineMeters
const EarthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between a and b on a
// spherical Earth. Callers validate points beforehand; NaN propagates.
func HaversineMeters(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// GeodesicMeters returns the distance between a and b on the WGS84 ellipsoid.
// It is more precise than HaversineMeters and is the figure shown to users.
func GeodesicMeters(a, b Point) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(a.Latitude, a.Longitude, b.Latitude, b.Longitude, &s12, nil, nil)
	return s12
}

// InRange reports whether b lies within radiusMeters of a (haversine)
func InRange(a, b Point, radiusMeters float64) bool {
	return HaversineMeters(a, b) <= radiusMeters
}

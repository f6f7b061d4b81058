package geo

import "math"

// MetersPerDegree approximates the length of one degree of latitude
const MetersPerDegree = 111111.0

// minPoleCos keeps lonDelta finite when the center sits on a pole
const minPoleCos = 1e-9

// BoundingBox is an axis-aligned lat/lon rectangle used as a coarse
// pre-filter before exact distance checks. When MinLon > MaxLon the box
// crosses the antimeridian.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64

	// Center and RadiusMeters are the circle the box was built from.
	Center       Point
	RadiusMeters float64
}

// NewBoundingBox converts a center and radius into a lat/lon rectangle.
// The latitude range is clamped to [-90, 90]. A box that touches a pole, or
// whose longitude span would exceed 360°, covers every longitude.
func NewBoundingBox(center Point, radiusMeters float64) BoundingBox {
	latDelta := radiusMeters / MetersPerDegree

	box := BoundingBox{
		MinLat:       center.Latitude - latDelta,
		MaxLat:       center.Latitude + latDelta,
		MinLon:       -180,
		MaxLon:       180,
		Center:       center,
		RadiusMeters: radiusMeters,
	}

	reachesPole := false
	if box.MinLat <= -90 {
		box.MinLat = -90
		reachesPole = true
	}
	if box.MaxLat >= 90 {
		box.MaxLat = 90
		reachesPole = true
	}

	cos := math.Cos(toRadians(center.Latitude))
	if reachesPole || cos < minPoleCos {
		return box
	}

	lonDelta := radiusMeters / (MetersPerDegree * cos)
	if lonDelta >= 180 {
		return box
	}

	box.MinLon = center.Longitude - lonDelta
	box.MaxLon = center.Longitude + lonDelta
	if box.MinLon < -180 {
		box.MinLon += 360
	}
	if box.MaxLon > 180 {
		box.MaxLon -= 360
	}
	return box
}

// CrossesAntimeridian reports whether the longitude range wraps past ±180°
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.MinLon > b.MaxLon
}

// Contains reports whether p lies inside the box, bounds included
func (b BoundingBox) Contains(p Point) bool {
	if p.Latitude < b.MinLat || p.Latitude > b.MaxLat {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Longitude >= b.MinLon || p.Longitude <= b.MaxLon
	}
	return p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

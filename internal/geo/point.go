package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPoint is returned when a coordinate is outside the valid range
var ErrInvalidPoint = errors.New("invalid point")

// Point is a WGS84 coordinate in degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPoint builds a validated point
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Latitude: lat, Longitude: lon}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks latitude ∈ [-90, 90] and longitude ∈ [-180, 180]
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidPoint, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidPoint, p.Longitude)
	}
	return nil
}

// String formats the point the way it is stored in sessions and callback data
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

package search

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"placesbot/internal/geo"
)

var (
	// ErrInvalidRadius is returned for a radius that is not a positive finite number
	ErrInvalidRadius = errors.New("invalid radius")

	// ErrStoreUnavailable wraps any failure of the candidate store query
	ErrStoreUnavailable = errors.New("candidate store unavailable")
)

// Request is a validated proximity query
type Request struct {
	Origin       geo.Point
	RadiusMeters float64
	TypeFilter   string
	Keyword      string // optional, matched against the venue name
}

// NewRequest validates the origin and radius at construction
func NewRequest(origin geo.Point, radiusMeters float64, typeFilter, keyword string) (Request, error) {
	if err := origin.Validate(); err != nil {
		return Request{}, err
	}
	if math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) || radiusMeters <= 0 {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusMeters)
	}

	return Request{
		Origin:       origin,
		RadiusMeters: radiusMeters,
		TypeFilter:   strings.TrimSpace(typeFilter),
		Keyword:      strings.TrimSpace(keyword),
	}, nil
}

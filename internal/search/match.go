package search

import (
	"fmt"
	"strings"

	"placesbot/internal/models"
)

// TypeMatcher decides whether a venue satisfies a type filter
type TypeMatcher func(v models.Venue, typeFilter string) bool

// MatchTags admits venues that carry typeFilter as one of their discrete tags
func MatchTags(v models.Venue, typeFilter string) bool {
	if typeFilter == "" {
		return true
	}
	return v.HasType(typeFilter)
}

// MatchSubstring admits venues whose joined tag string contains typeFilter.
// This is how the Places table was historically filtered; it also admits
// tags that merely contain the filter, e.g. "internet_cafe" for "cafe".
func MatchSubstring(v models.Venue, typeFilter string) bool {
	if typeFilter == "" {
		return true
	}
	return strings.Contains(v.TypeString(), typeFilter)
}

// MatcherByName maps the TYPE_MATCH setting to a matcher
func MatcherByName(name string) (TypeMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tags":
		return MatchTags, nil
	case "substring":
		return MatchSubstring, nil
	default:
		return nil, fmt.Errorf("unknown type match mode %q (use tags or substring)", name)
	}
}

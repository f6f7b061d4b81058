package models

import (
	"strings"
	"time"

	"placesbot/internal/geo"
)

// Venue is a candidate place returned by a CandidateStore
type Venue struct {
	PlaceID          string     `json:"place_id"`
	Location         *geo.Point `json:"location,omitempty"` // nil when the row has no coordinates
	TypeTags         []string   `json:"types,omitempty"`
	Name             string     `json:"name"`
	FormattedAddress string     `json:"formatted_address"`
}

// HasType reports whether tag is one of the venue's discrete type tags
func (v Venue) HasType(tag string) bool {
	for _, t := range v.TypeTags {
		if t == tag {
			return true
		}
	}
	return false
}

// TypeString joins the tags the way the Places table stores them
func (v Venue) TypeString() string {
	return strings.Join(v.TypeTags, ",")
}

// ParseTypeTags splits a stored type column into discrete tags. Both the
// comma separated form and the JSON array form are accepted.
func ParseTypeTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		return nil
	}

	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.Trim(strings.TrimSpace(part), `"'`)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// RankedResult is a venue admitted by a search together with its distance
type RankedResult struct {
	Venue          Venue   `json:"venue"`
	DistanceMeters float64 `json:"distance_meters"`
}

// VenueDetails is the full detail record used to render a venue card
type VenueDetails struct {
	Venue

	WeekdayText   string         `json:"weekday_text,omitempty"`
	Rating        *float64       `json:"rating,omitempty"`
	PriceLevel    *int           `json:"price_level,omitempty"`
	URL           string         `json:"url,omitempty"`
	Website       string         `json:"website,omitempty"`
	Phone         string         `json:"international_phone_number,omitempty"`
	DineIn        *bool          `json:"dine_in,omitempty"`
	Delivery      *bool          `json:"delivery,omitempty"`
	Reservable    *bool          `json:"reservable,omitempty"`
	OpeningHours  *OpeningHours  `json:"opening_hours,omitempty"`
	GoogleReviews []GoogleReview `json:"reviews,omitempty"`
	PhotoRefs     []string       `json:"photo_refs,omitempty"`
}

// OpeningHours mirrors the opening_hours object of the Places API
type OpeningHours struct {
	Periods     []OpeningPeriod `json:"periods,omitempty"`
	WeekdayText []string        `json:"weekday_text,omitempty"`
}

// OpeningPeriod is one open/close pair. Close is nil for venues open 24/7.
type OpeningPeriod struct {
	Open  OpeningTime  `json:"open"`
	Close *OpeningTime `json:"close,omitempty"`
}

// OpeningTime is a weekday (0 = Sunday) and a local "HHMM" time
type OpeningTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

// Review is a review left by a bot user
type Review struct {
	ID        int64     `json:"id"`
	PlaceID   string    `json:"place_id"`
	UserID    int64     `json:"tg_user_id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Text      string    `json:"review"`
	CreatedAt time.Time `json:"date"`
}

// GoogleReview is a review copied from the Places API
type GoogleReview struct {
	AuthorName              string `json:"author_name"`
	Rating                  int    `json:"rating"`
	Text                    string `json:"text"`
	Time                    int64  `json:"time,omitempty"`
	RelativeTimeDescription string `json:"relative_time_description,omitempty"`
}

// Favorite links a user to a saved place
type Favorite struct {
	UserID    int64     `json:"tg_user_id"`
	PlaceID   string    `json:"place_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a registered bot user
type User struct {
	TelegramID  int64     `json:"tg_user_id"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Photo is either raw image bytes (mirrored table) or a remote URL (live API)
type Photo struct {
	Data []byte
	URL  string
}

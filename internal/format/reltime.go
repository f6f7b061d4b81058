package format

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"placesbot/internal/models"
)

// ParseRelativeTime turns a Places API relative_time_description such as
// "a week ago" or "3 months ago" into an approximate date before now. Months
// count as 30 days and years as 365.
func ParseRelativeTime(description string, now time.Time) (time.Time, bool) {
	desc := strings.ToLower(strings.TrimSpace(description))
	switch desc {
	case "":
		return time.Time{}, false
	case "in the last week":
		return now.AddDate(0, 0, -7), true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	case "today", "just now":
		return now, true
	}

	fields := strings.Fields(strings.TrimSuffix(desc, " ago"))
	if len(fields) != 2 {
		return time.Time{}, false
	}

	n := 1
	if fields[0] != "a" && fields[0] != "an" {
		v, err := strconv.Atoi(fields[0])
		if err != nil || v < 0 {
			return time.Time{}, false
		}
		n = v
	}

	switch strings.TrimSuffix(fields[1], "s") {
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week":
		return now.AddDate(0, 0, -7*n), true
	case "month":
		return now.AddDate(0, 0, -30*n), true
	case "year":
		return now.AddDate(0, 0, -365*n), true
	}
	return time.Time{}, false
}

// GoogleReviewTime is the review's timestamp, or the date parsed from its
// relative description when the timestamp is missing
func GoogleReviewTime(r models.GoogleReview, now time.Time) time.Time {
	if r.Time > 0 {
		return time.Unix(r.Time, 0)
	}
	t, _ := ParseRelativeTime(r.RelativeTimeDescription, now)
	return t
}

// SortGoogleReviews orders reviews newest first. Reviews without any date
// go last in their original order.
func SortGoogleReviews(reviews []models.GoogleReview, now time.Time) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return GoogleReviewTime(reviews[i], now).After(GoogleReviewTime(reviews[j], now))
	})
}

package format

import (
	"strconv"
	"time"

	"placesbot/internal/models"
)

const minutesPerWeek = 7 * 24 * 60

// OpenStatus is the computed open/closed state of a venue
type OpenStatus int

const (
	StatusUnknown OpenStatus = iota
	StatusOpen
	StatusClosed
)

// IsOpenAt evaluates Places API opening periods at t. Times in periods are
// local to the venue, so t should already be in the venue's zone. A period
// without a close time means the venue never closes.
func IsOpenAt(hours *models.OpeningHours, t time.Time) OpenStatus {
	if hours == nil || len(hours.Periods) == 0 {
		return StatusUnknown
	}

	now := weekMinute(int(t.Weekday()), t.Hour()*60+t.Minute())
	for _, p := range hours.Periods {
		open, ok := periodMinute(p.Open)
		if !ok {
			continue
		}
		if p.Close == nil {
			return StatusOpen
		}
		closeAt, ok := periodMinute(*p.Close)
		if !ok {
			continue
		}

		if closeAt > open {
			if now >= open && now < closeAt {
				return StatusOpen
			}
			continue
		}
		// Wraps past Saturday midnight
		if now >= open || now < closeAt {
			return StatusOpen
		}
	}
	return StatusClosed
}

func periodMinute(t models.OpeningTime) (int, bool) {
	if t.Day < 0 || t.Day > 6 || len(t.Time) != 4 {
		return 0, false
	}
	hhmm, err := strconv.Atoi(t.Time)
	if err != nil {
		return 0, false
	}
	h, m := hhmm/100, hhmm%100
	if h > 24 || m > 59 {
		return 0, false
	}
	return weekMinute(t.Day, h*60+m), true
}

func weekMinute(day, minuteOfDay int) int {
	return (day*24*60 + minuteOfDay) % minutesPerWeek
}

// Package format renders venues and reviews as Telegram message text.
package format

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"placesbot/internal/models"
	"placesbot/internal/paging"
)

const dateLayout = "02.01.2006"

var numberEmoji = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// NumberLabel is the button label of the n-th (1 based) list line
func NumberLabel(n int) string {
	if n >= 1 && n <= len(numberEmoji) {
		return numberEmoji[n-1]
	}
	return strconv.Itoa(n)
}

// TypeEmoji decorates a venue type
func TypeEmoji(venueType string) string {
	switch venueType {
	case "restaurant":
		return "🍽️"
	case "bar":
		return "🍹"
	default:
		return "☕️"
	}
}

// MapLink opens the venue in Google Maps
func MapLink(placeID string) string {
	return "https://www.google.com/maps/search/?api=1&query=Google&query_place_id=" + url.QueryEscape(placeID)
}

// ShortAddress keeps the first two comma separated parts of an address
func ShortAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

// Meters renders a distance rounded down to whole meters
func Meters(d float64) string {
	return fmt.Sprintf("%d m", int(d))
}

// ResultList renders one page of search results as numbered lines
func ResultList(page paging.ResultPage[models.RankedResult], venueType string) string {
	if page.TotalCount == 0 {
		return "Nothing found nearby 😕 Try a larger radius in settings."
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s Found %d places (page %d of %d):\n\n",
		TypeEmoji(venueType), page.TotalCount, page.PageIndex+1, paging.PageCount(page.TotalCount, page.PageSize))
	for i, r := range page.Items {
		fmt.Fprintf(&text, "%s %s - %s\n", NumberLabel(i+1), r.Venue.Name, Meters(r.DistanceMeters))
		if addr := ShortAddress(r.Venue.FormattedAddress); addr != "" {
			fmt.Fprintf(&text, "📍 %s\n", addr)
		}
		text.WriteByte('\n')
	}
	return strings.TrimRight(text.String(), "\n")
}

// Card holds what the detail card shows about one venue
type Card struct {
	Details   *models.VenueDetails
	VenueType string
	Favorite  bool
	// Distance is nil when the card is opened outside a search
	Distance *float64
	Now      time.Time
}

// DetailCard renders the venue detail message
func DetailCard(c Card) string {
	d := c.Details
	var text strings.Builder

	text.WriteString(TypeEmoji(c.VenueType) + " " + d.Name)
	if c.Favorite {
		text.WriteString("⭐️")
	}
	text.WriteString("\n\n")

	fmt.Fprintf(&text, "📍 Address: %s\n", d.FormattedAddress)
	if d.Phone != "" {
		fmt.Fprintf(&text, "📞 Phone: %s\n", strings.ReplaceAll(d.Phone, " ", ""))
	}
	switch IsOpenAt(d.OpeningHours, c.Now) {
	case StatusOpen:
		text.WriteString("🕒 Status: Open\n")
	case StatusClosed:
		text.WriteString("🕒 Status: Closed\n")
	default:
		text.WriteString("🕒 Status: Unknown\n")
	}
	if c.Distance != nil {
		fmt.Fprintf(&text, "📏 Distance: %s\n", Meters(*c.Distance))
	}
	if d.Rating != nil {
		fmt.Fprintf(&text, "⭐ Rating: %.1f\n", *d.Rating)
	} else {
		text.WriteString("⭐ Rating: unknown 😕\n")
	}
	if d.PriceLevel != nil {
		fmt.Fprintf(&text, "💰 Price level: %s\n", strings.Repeat("$", max(*d.PriceLevel, 1)))
	}
	if isTrue(d.DineIn) {
		text.WriteString("🪑 Dine-in\n")
	}
	if isTrue(d.Delivery) {
		text.WriteString("🚚 Delivery\n")
	}
	if isTrue(d.Reservable) {
		text.WriteString("📅 Reservations\n")
	}

	text.WriteString("\n🕓 Opening hours:\n")
	if hours := strings.TrimSpace(d.WeekdayText); hours != "" {
		text.WriteString(hours)
	} else {
		text.WriteString("unknown 😕")
	}
	return text.String()
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// UserReview renders a review left through the bot
func UserReview(r models.Review, position, total int) string {
	return review(r.Name, r.Score, r.CreatedAt, r.Text, position, total)
}

// GoogleReview renders a review copied from Google
func GoogleReview(r models.GoogleReview, position, total int, now time.Time) string {
	return review(r.AuthorName+" (Google)", r.Rating, GoogleReviewTime(r, now), r.Text, position, total)
}

func review(author string, score int, date time.Time, body string, position, total int) string {
	var text strings.Builder
	fmt.Fprintf(&text, "💬 Review %d/%d\n\n", position, total)
	fmt.Fprintf(&text, "👤 %s\n", author)
	fmt.Fprintf(&text, "⭐ %d/5\n", score)
	if !date.IsZero() {
		fmt.Fprintf(&text, "📅 %s\n", date.Format(dateLayout))
	}
	if body = strings.TrimSpace(body); body != "" {
		text.WriteString("\n" + body)
	}
	return strings.TrimRight(text.String(), "\n")
}

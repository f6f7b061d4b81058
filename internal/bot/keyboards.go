package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"placesbot/internal/format"
	"placesbot/internal/models"
	"placesbot/internal/paging"
	"placesbot/internal/session"
)

// Reply keyboard labels
const (
	btnSearch     = "🔍 Search places"
	btnSettings   = "⚙️ Settings"
	btnMyReviews  = "✏️ My reviews"
	btnFavorites  = "🌟 Favorites"
	btnRadius     = "📏 Change search radius"
	btnBack       = "🔙 Back"
	btnCafe       = "☕ Cafe"
	btnRestaurant = "🍽️ Restaurant"
	btnBar        = "🍹 Bar"
)

// venueTypes maps type buttons to Places API types
var venueTypes = map[string]string{
	btnCafe:       "cafe",
	btnRestaurant: "restaurant",
	btnBar:        "bar",
}

// Inline callback data. Parameterised ones end with ':'. Card buttons carry
// a session.CardRef key and carousel actions the item index.
const (
	cbListNext     = "list:next"
	cbListPrev     = "list:prev"
	cbSelect       = "sel:"
	cbItemNext     = "item:next"
	cbItemPrev     = "item:prev"
	cbItemBack     = "item:back"
	cbFavAdd       = "fav:add:"
	cbFavDel       = "fav:del:"
	cbReviews      = "rev:list:"
	cbReviewAdd    = "rev:add:"
	cbCarouselNext = "car:next"
	cbCarouselPrev = "car:prev"
	cbCarouselOpen = "car:open:"
	cbCarouselDel  = "car:del:"
	cbReviewEdit   = "car:edit:"
)

func mainMenu(registered bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSearch), tgbotapi.NewKeyboardButton(btnSettings)),
	}
	if registered {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMyReviews),
			tgbotapi.NewKeyboardButton(btnFavorites),
		))
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("📱 Share phone number")),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation("📍 Send location")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func settingsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnRadius)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// radiusKeyboard lays the allowed radii out two per row
func radiusKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, r := range session.AllowedRadii {
		row = append(row, tgbotapi.NewKeyboardButton(strconv.Itoa(r)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)))

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func typeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCafe),
			tgbotapi.NewKeyboardButton(btnRestaurant),
			tgbotapi.NewKeyboardButton(btnBar),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func scoreKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for s := 1; s <= 5; s++ {
		row = append(row, tgbotapi.NewKeyboardButton(strconv.Itoa(s)))
	}
	keyboard := tgbotapi.NewOneTimeReplyKeyboard(row)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// listKeyboard has one number button per item and the page arrows
func listKeyboard(page paging.ResultPage[models.RankedResult]) *tgbotapi.InlineKeyboardMarkup {
	if len(page.Items) == 0 {
		return nil
	}

	var numbers []tgbotapi.InlineKeyboardButton
	for i := range page.Items {
		numbers = append(numbers, tgbotapi.NewInlineKeyboardButtonData(
			format.NumberLabel(i+1),
			fmt.Sprintf("%s%d", cbSelect, page.StartIndex+i),
		))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{numbers}

	if nav := arrows(page.HasPrevious, page.HasNext, cbListPrev, cbListNext); len(nav) > 0 {
		rows = append(rows, nav)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// detailKeyboard carries the venue links and actions keyed by the card key.
// The arrow row is left out when the card is shown outside a search.
func detailKeyboard(d *models.VenueDetails, key string, favorite, registered, navigation, hasPrevious, hasNext bool) tgbotapi.InlineKeyboardMarkup {
	links := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonURL("🗺 Map", format.MapLink(d.PlaceID)),
	}
	if d.Website != "" {
		links = append(links, tgbotapi.NewInlineKeyboardButtonURL("🌐 Website", d.Website))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{links}

	if registered {
		favButton := tgbotapi.NewInlineKeyboardButtonData("⭐ Add to favorites", cbFavAdd+key)
		if favorite {
			favButton = tgbotapi.NewInlineKeyboardButtonData("✖️ Remove from favorites", cbFavDel+key)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(favButton))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Reviews", cbReviews+key),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Leave a review", cbReviewAdd+key),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Reviews", cbReviews+key),
		))
	}

	if navigation {
		nav := arrows(hasPrevious, hasNext, cbItemPrev, cbItemNext)
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("📋 List", cbItemBack))
		rows = append(rows, nav)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// carouselKeyboard navigates a one-item carousel plus extra action buttons
func carouselKeyboard(hasPrevious, hasNext bool, actions ...tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if len(actions) > 0 {
		rows = append(rows, actions)
	}
	if nav := arrows(hasPrevious, hasNext, cbCarouselPrev, cbCarouselNext); len(nav) > 0 {
		rows = append(rows, nav)
	}
	if len(rows) == 0 {
		return nil
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

func indexData(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}

func arrows(hasPrevious, hasNext bool, prev, next string) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	if hasPrevious {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️", prev))
	}
	if hasNext {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➡️", next))
	}
	return row
}

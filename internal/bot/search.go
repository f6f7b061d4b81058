package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"placesbot/internal/format"
	"placesbot/internal/models"
	"placesbot/internal/paging"
	"placesbot/internal/search"
	"placesbot/internal/session"
)

const (
	staleMessage  = "These results are out of date, please search again."
	staleCard     = "This card is out of date, please open the place again."
	staleCarousel = "This list is out of date, please open it again from the menu."
)

// runSearch searches around the stored location and sends the first page
func (b *Bot) runSearch(ctx context.Context, chatID int64, sess *session.Session, venueType string) {
	if sess.Location == nil {
		b.sendText(chatID, "📍 Please send your location so I know where to search.", locationKeyboard())
		return
	}

	req, err := search.NewRequest(*sess.Location, float64(sess.RadiusMeters), venueType, "")
	if err != nil {
		b.logger.Warn("Invalid search request", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendText(chatID, "Your location or radius looks invalid, please send the location again.", locationKeyboard())
		return
	}

	results, err := b.search.Search(ctx, req)
	if err != nil {
		b.logger.Error("Search failed",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("type", venueType),
		)
		b.sendText(chatID, "Search is unavailable right now, please try again later.", nil)
		return
	}

	setID := uuid.NewString()
	if err := b.sessions.SaveResults(ctx, chatID, setID, results); err != nil {
		b.logger.Error("Failed to save results", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendText(chatID, "Something went wrong, please try again later.", nil)
		return
	}

	b.clearDetail(chatID, sess)
	sess.ResultSetID = setID
	sess.TypeFilter = venueType
	sess.Carousel = session.CarouselNone
	*sess, _ = sess.Transition(session.Search, len(results), b.settings.PageSize)

	b.logger.Info("Search completed",
		zap.Int64("chat_id", chatID),
		zap.String("type", venueType),
		zap.Int("radius", sess.RadiusMeters),
		zap.Int("results", len(results)),
	)

	page := paging.Page(results, 0, b.settings.PageSize)
	sess.ListMessageID = b.sendText(chatID, format.ResultList(page, venueType), inlineMarkup(listKeyboard(page)))
}

// loadResults returns the active result set of sess. An expired set
// restarts the session.
func (b *Bot) loadResults(ctx context.Context, chatID int64, sess *session.Session) ([]models.RankedResult, bool) {
	if sess.ResultSetID == "" {
		b.sendText(chatID, staleMessage, nil)
		return nil, false
	}

	results, err := b.sessions.LoadResults(ctx, chatID, sess.ResultSetID)
	if errors.Is(err, session.ErrResultSetExpired) {
		b.sendText(chatID, staleMessage, nil)
		*sess, _ = sess.Transition(session.Restart, 0, b.settings.PageSize)
		return nil, false
	}
	if err != nil {
		b.logger.Error("Failed to load results", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendText(chatID, "Something went wrong, please try again later.", nil)
		return nil, false
	}
	return results, true
}

// navigateList handles the page arrows and number buttons of the list
// message. Pressing them while a card is open closes the card first.
func (b *Bot) navigateList(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, ev session.Event) {
	chatID := query.Message.Chat.ID
	if query.Message.MessageID != sess.ListMessageID || sess.State == session.StateIdle {
		b.sendText(chatID, staleMessage, nil)
		return
	}

	results, ok := b.loadResults(ctx, chatID, sess)
	if !ok {
		return
	}

	current := *sess
	if current.State == session.StateDetail {
		current, _ = current.Transition(session.Back, len(results), b.settings.PageSize)
	}
	next, ok := current.Transition(ev, len(results), b.settings.PageSize)
	if !ok {
		return
	}

	if sess.State == session.StateDetail {
		b.clearDetail(chatID, sess)
		next.DetailMessageID, next.PhotoMessageIDs = 0, nil
	}
	*sess = next

	switch sess.State {
	case session.StateListing:
		b.showListPage(chatID, sess, results)
	case session.StateDetail:
		b.showResultDetail(ctx, chatID, query.From.ID, sess, results)
	}
}

// navigateDetail handles the arrows and the list button of a result card
func (b *Bot) navigateDetail(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, ev session.Event) {
	chatID := query.Message.Chat.ID
	if sess.State != session.StateDetail || query.Message.MessageID != sess.DetailMessageID {
		b.sendText(chatID, staleMessage, nil)
		return
	}

	results, ok := b.loadResults(ctx, chatID, sess)
	if !ok {
		return
	}

	next, ok := sess.Transition(ev, len(results), b.settings.PageSize)
	if !ok {
		return
	}
	*sess = next

	b.clearDetail(chatID, sess)
	switch sess.State {
	case session.StateListing:
		b.showListPage(chatID, sess, results)
	case session.StateDetail:
		b.showResultDetail(ctx, chatID, query.From.ID, sess, results)
	}
}

// showListPage edits the list message to the session's page
func (b *Bot) showListPage(chatID int64, sess *session.Session, results []models.RankedResult) {
	page := paging.Page(results, sess.PageIndex, b.settings.PageSize)
	text := format.ResultList(page, sess.TypeFilter)

	if sess.ListMessageID == 0 {
		sess.ListMessageID = b.sendText(chatID, text, inlineMarkup(listKeyboard(page)))
		return
	}
	b.editText(chatID, sess.ListMessageID, text, listKeyboard(page))
}

// showResultDetail sends the card of the session's current item
func (b *Bot) showResultDetail(ctx context.Context, chatID, userID int64, sess *session.Session, results []models.RankedResult) {
	item, hasPrevious, hasNext, ok := paging.Item(results, sess.ItemIndex)
	if !ok {
		return
	}

	distance := item.DistanceMeters
	view, err := b.loadVenueCard(ctx, userID, item.Venue.PlaceID)
	if err != nil {
		b.reportCardError(chatID, item.Venue.PlaceID, err)
		return
	}

	sess.PhotoMessageIDs = b.sendPhotos(chatID, view.photos)
	text := b.cardText(view, sess.TypeFilter, &distance)
	key := sess.AddCard(item.Venue.PlaceID)
	keyboard := detailKeyboard(view.details, key, view.favorite, view.registered, true, hasPrevious, hasNext)
	sess.DetailMessageID = b.sendText(chatID, text, keyboard)
}

// clearDetail deletes the open card and its photos
func (b *Bot) clearDetail(chatID int64, sess *session.Session) {
	b.deleteMessages(chatID, sess.PhotoMessageIDs...)
	b.deleteMessages(chatID, sess.DetailMessageID)
	sess.DetailMessageID = 0
	sess.PhotoMessageIDs = nil
}

package bot

import (
	"context"
	"fmt"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/format"
	"placesbot/internal/models"
	"placesbot/internal/session"
)

// placeReviews is the reviews carousel of one venue: bot reviews first,
// then the Google ones, each newest first
type placeReviews struct {
	User   []models.Review       `json:"user"`
	Google []models.GoogleReview `json:"google"`
}

func (p placeReviews) len() int {
	return len(p.User) + len(p.Google)
}

// handleFavorites opens the favorites carousel
func (b *Bot) handleFavorites(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	chatID := message.Chat.ID
	if !b.requireRegistered(ctx, chatID, message.From.ID) {
		return
	}

	ids, err := b.users.ListFavorites(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to list favorites", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendText(chatID, "Failed to load favorites, please try again later.", nil)
		return
	}
	if len(ids) == 0 {
		b.sendText(chatID, "You have no favorite places yet. Add some from a place card ⭐", nil)
		return
	}

	if !b.saveList(ctx, chatID, session.CarouselFavorites, ids) {
		return
	}
	sess.Carousel = session.CarouselFavorites
	sess.CarouselIndex = 0

	text, keyboard := b.renderFavorite(ctx, ids, 0)
	sess.CarouselMessageID = b.sendText(chatID, text, inlineMarkup(keyboard))
}

// handleMyReviews opens the carousel of the user's own reviews
func (b *Bot) handleMyReviews(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	chatID := message.Chat.ID
	if !b.requireRegistered(ctx, chatID, message.From.ID) {
		return
	}

	reviews, err := b.users.ListUserReviews(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to list user reviews", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendText(chatID, "Failed to load your reviews, please try again later.", nil)
		return
	}
	if len(reviews) == 0 {
		b.sendText(chatID, "You have not left any reviews yet ✍️", nil)
		return
	}

	if !b.saveList(ctx, chatID, session.CarouselMyReviews, reviews) {
		return
	}
	sess.Carousel = session.CarouselMyReviews
	sess.CarouselIndex = 0

	text, keyboard := b.renderMyReview(ctx, reviews, 0)
	sess.CarouselMessageID = b.sendText(chatID, text, inlineMarkup(keyboard))
}

// handlePlaceReviews opens the reviews carousel of a venue
func (b *Bot) handlePlaceReviews(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, placeID string) {
	chatID := query.Message.Chat.ID

	var reviews placeReviews
	if b.users != nil {
		user, err := b.users.ListPlaceReviews(ctx, placeID)
		if err != nil {
			b.logger.Error("Failed to list place reviews", zap.Error(err), zap.String("place_id", placeID))
			b.sendText(chatID, "Failed to load reviews, please try again later.", nil)
			return
		}
		reviews.User = user
	}

	details, err := b.search.Details(ctx, placeID)
	if err != nil {
		b.reportCardError(chatID, placeID, err)
		return
	}
	reviews.Google = slices.Clone(details.GoogleReviews)
	format.SortGoogleReviews(reviews.Google, b.now())

	if reviews.len() == 0 {
		var keyboard any
		if b.isRegistered(ctx, query.From.ID) {
			keyboard = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✍️ Leave a review", cbReviewAdd+sess.AddCard(placeID)),
			))
		}
		b.sendText(chatID, "No reviews yet. Be the first! ✍️", keyboard)
		return
	}

	if !b.saveList(ctx, chatID, session.CarouselReviews, reviews) {
		return
	}
	sess.Carousel = session.CarouselReviews
	sess.CarouselIndex = 0
	sess.CarouselPlaceID = placeID

	text, keyboard := b.renderPlaceReview(reviews, 0)
	sess.CarouselMessageID = b.sendText(chatID, text, inlineMarkup(keyboard))
}

// navigateCarousel moves the open carousel by delta and edits its message
func (b *Bot) navigateCarousel(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, delta int) {
	chatID := query.Message.Chat.ID
	if !b.currentCarousel(query, sess) {
		return
	}
	index := sess.CarouselIndex + delta

	var (
		text     string
		keyboard *tgbotapi.InlineKeyboardMarkup
	)
	switch sess.Carousel {
	case session.CarouselFavorites:
		var ids []string
		if !b.loadList(ctx, chatID, sess, &ids) || index < 0 || index >= len(ids) {
			return
		}
		text, keyboard = b.renderFavorite(ctx, ids, index)
	case session.CarouselMyReviews:
		var reviews []models.Review
		if !b.loadList(ctx, chatID, sess, &reviews) || index < 0 || index >= len(reviews) {
			return
		}
		text, keyboard = b.renderMyReview(ctx, reviews, index)
	case session.CarouselReviews:
		var reviews placeReviews
		if !b.loadList(ctx, chatID, sess, &reviews) || index < 0 || index >= reviews.len() {
			return
		}
		text, keyboard = b.renderPlaceReview(reviews, index)
	default:
		b.sendText(chatID, "This list is closed, please open it again from the menu.", nil)
		return
	}

	sess.CarouselIndex = index
	b.editText(chatID, query.Message.MessageID, text, keyboard)
}

// currentCarousel reports whether query was pressed on the open carousel
// message. Buttons of an older carousel message are refused.
func (b *Bot) currentCarousel(query *tgbotapi.CallbackQuery, sess *session.Session) bool {
	if sess.Carousel == session.CarouselNone || query.Message.MessageID != sess.CarouselMessageID {
		b.sendText(query.Message.Chat.ID, staleCarousel, nil)
		return false
	}
	return true
}

// openCarouselPlace sends the card of the favorite at index
func (b *Bot) openCarouselPlace(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, index int) {
	var ids []string
	if !b.currentCarousel(query, sess) || sess.Carousel != session.CarouselFavorites {
		return
	}
	if !b.loadList(ctx, query.Message.Chat.ID, sess, &ids) || index >= len(ids) {
		return
	}
	b.sendVenueCard(ctx, query.Message.Chat.ID, query.From.ID, sess, ids[index])
}

// removeCarouselFavorite drops the favorite at index and shows the one
// that takes its place
func (b *Bot) removeCarouselFavorite(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, index int) {
	chatID := query.Message.Chat.ID
	var ids []string
	if !b.currentCarousel(query, sess) || sess.Carousel != session.CarouselFavorites {
		return
	}
	if !b.loadList(ctx, chatID, sess, &ids) || index >= len(ids) {
		return
	}
	if !b.requireRegistered(ctx, chatID, query.From.ID) {
		return
	}

	placeID := ids[index]
	if err := b.users.RemoveFavorite(ctx, query.From.ID, placeID); err != nil {
		b.logger.Error("Failed to remove favorite", zap.Error(err), zap.String("place_id", placeID))
		b.sendText(chatID, "Failed to update favorites, please try again later.", nil)
		return
	}

	ids = slices.Delete(ids, index, index+1)
	if !b.saveList(ctx, chatID, session.CarouselFavorites, ids) {
		return
	}
	if len(ids) == 0 {
		sess.Carousel = session.CarouselNone
		sess.CarouselIndex = 0
		b.editText(chatID, query.Message.MessageID, "You have no favorite places left.", nil)
		return
	}

	sess.CarouselIndex = min(index, len(ids)-1)
	text, keyboard := b.renderFavorite(ctx, ids, sess.CarouselIndex)
	b.editText(chatID, query.Message.MessageID, text, keyboard)
}

// editCarouselReview starts editing the review at index of "my reviews"
func (b *Bot) editCarouselReview(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, index int) {
	var reviews []models.Review
	if !b.currentCarousel(query, sess) || sess.Carousel != session.CarouselMyReviews {
		return
	}
	if !b.loadList(ctx, query.Message.Chat.ID, sess, &reviews) || index >= len(reviews) {
		return
	}
	review := reviews[index]
	b.startReview(ctx, query.Message.Chat.ID, query.From.ID, sess, review.PlaceID, &review)
}

func (b *Bot) renderFavorite(ctx context.Context, ids []string, index int) (string, *tgbotapi.InlineKeyboardMarkup) {
	header := fmt.Sprintf("🌟 Favorite %d/%d\n\n", index+1, len(ids))
	text := header + b.placeTitle(ctx, ids[index])

	return text, carouselKeyboard(index > 0, index+1 < len(ids),
		tgbotapi.NewInlineKeyboardButtonData("📖 Open", indexData(cbCarouselOpen, index)),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Remove", indexData(cbCarouselDel, index)),
	)
}

func (b *Bot) renderMyReview(ctx context.Context, reviews []models.Review, index int) (string, *tgbotapi.InlineKeyboardMarkup) {
	r := reviews[index]
	text := b.placeTitle(ctx, r.PlaceID) + "\n\n" + format.UserReview(r, index+1, len(reviews))

	return text, carouselKeyboard(index > 0, index+1 < len(reviews),
		tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", indexData(cbReviewEdit, index)),
	)
}

func (b *Bot) renderPlaceReview(reviews placeReviews, index int) (string, *tgbotapi.InlineKeyboardMarkup) {
	total := reviews.len()
	var text string
	if index < len(reviews.User) {
		text = format.UserReview(reviews.User[index], index+1, total)
	} else {
		text = format.GoogleReview(reviews.Google[index-len(reviews.User)], index+1, total, b.now())
	}
	return text, carouselKeyboard(index > 0, index+1 < total)
}

// placeTitle is the name and short address of a venue, or its id when the
// details cannot be loaded
func (b *Bot) placeTitle(ctx context.Context, placeID string) string {
	details, err := b.search.Details(ctx, placeID)
	if err != nil {
		b.logger.Warn("Failed to load place title", zap.Error(err), zap.String("place_id", placeID))
		return "🏠 " + placeID
	}
	title := "🏠 " + details.Name
	if addr := format.ShortAddress(details.FormattedAddress); addr != "" {
		title += "\n📍 " + addr
	}
	return title
}

func (b *Bot) saveList(ctx context.Context, chatID int64, carousel session.Carousel, v any) bool {
	if err := b.sessions.SaveList(ctx, chatID, string(carousel), v); err != nil {
		b.logger.Error("Failed to save carousel", zap.Error(err), zap.String("carousel", string(carousel)))
		b.sendText(chatID, "Something went wrong, please try again later.", nil)
		return false
	}
	return true
}

// loadList reads the open carousel's items into dst
func (b *Bot) loadList(ctx context.Context, chatID int64, sess *session.Session, dst any) bool {
	ok, err := b.sessions.LoadList(ctx, chatID, string(sess.Carousel), dst)
	if err != nil {
		b.logger.Error("Failed to load carousel", zap.Error(err), zap.String("carousel", string(sess.Carousel)))
		return false
	}
	if !ok {
		sess.Carousel = session.CarouselNone
		b.sendText(chatID, "This list has expired, please open it again from the menu.", nil)
		return false
	}
	return true
}

package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/session"
)

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	unlock := b.locks.lock(chatID)
	defer unlock()

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.Any("panic", r),
				zap.String("callback_data", query.Data),
			)
		}
	}()

	// Answer the callback query to remove loading state
	b.request(tgbotapi.NewCallback(query.ID, ""))

	sess, err := b.sessions.Load(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to load session", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}

	data := query.Data
	switch {
	case data == cbListNext:
		b.navigateList(ctx, query, sess, session.Next)
	case data == cbListPrev:
		b.navigateList(ctx, query, sess, session.Previous)
	case strings.HasPrefix(data, cbSelect):
		index, err := strconv.Atoi(strings.TrimPrefix(data, cbSelect))
		if err != nil {
			return
		}
		b.navigateList(ctx, query, sess, session.Select(index))
	case data == cbItemNext:
		b.navigateDetail(ctx, query, sess, session.Next)
	case data == cbItemPrev:
		b.navigateDetail(ctx, query, sess, session.Previous)
	case data == cbItemBack:
		b.navigateDetail(ctx, query, sess, session.Back)
	case strings.HasPrefix(data, cbFavAdd):
		b.handleFavoriteToggle(ctx, query, sess, strings.TrimPrefix(data, cbFavAdd), true)
	case strings.HasPrefix(data, cbFavDel):
		b.handleFavoriteToggle(ctx, query, sess, strings.TrimPrefix(data, cbFavDel), false)
	case strings.HasPrefix(data, cbReviews):
		if placeID, ok := b.cardPlace(chatID, sess, strings.TrimPrefix(data, cbReviews)); ok {
			b.handlePlaceReviews(ctx, query, sess, placeID)
		}
	case strings.HasPrefix(data, cbReviewAdd):
		if placeID, ok := b.cardPlace(chatID, sess, strings.TrimPrefix(data, cbReviewAdd)); ok {
			b.startReview(ctx, chatID, query.From.ID, sess, placeID, nil)
		}
	case data == cbCarouselNext:
		b.navigateCarousel(ctx, query, sess, 1)
	case data == cbCarouselPrev:
		b.navigateCarousel(ctx, query, sess, -1)
	case strings.HasPrefix(data, cbCarouselOpen):
		if index, ok := carouselIndex(data, cbCarouselOpen); ok {
			b.openCarouselPlace(ctx, query, sess, index)
		}
	case strings.HasPrefix(data, cbCarouselDel):
		if index, ok := carouselIndex(data, cbCarouselDel); ok {
			b.removeCarouselFavorite(ctx, query, sess, index)
		}
	case strings.HasPrefix(data, cbReviewEdit):
		if index, ok := carouselIndex(data, cbReviewEdit); ok {
			b.editCarouselReview(ctx, query, sess, index)
		}
	default:
		return
	}

	b.saveSession(ctx, sess)
}

func carouselIndex(data, prefix string) (int, bool) {
	index, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	return index, err == nil && index >= 0
}

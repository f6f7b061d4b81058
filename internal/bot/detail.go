package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"placesbot/internal/format"
	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/paging"
	"placesbot/internal/session"
	"placesbot/internal/storage"
)

// venueCard is everything a detail card is rendered from
type venueCard struct {
	details    *models.VenueDetails
	favorite   bool
	registered bool
	photos     []models.Photo
}

// loadVenueCard fetches the details, the user's flags and the photos of a
// venue concurrently. Only a details failure fails the card.
func (b *Bot) loadVenueCard(ctx context.Context, userID int64, placeID string) (*venueCard, error) {
	var card venueCard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		details, err := b.search.Details(gctx, placeID)
		if err != nil {
			return err
		}
		card.details = details
		return nil
	})
	g.Go(func() error {
		card.registered = b.isRegistered(gctx, userID)
		if !card.registered {
			return nil
		}
		favorite, err := b.users.IsFavorite(gctx, userID, placeID)
		if err != nil {
			b.logger.Warn("Failed to check favorite", zap.Error(err), zap.String("place_id", placeID))
			return nil
		}
		card.favorite = favorite
		return nil
	})
	g.Go(func() error {
		photos, err := b.places.GetPhotos(gctx, placeID, b.settings.PhotoLimit)
		if err != nil {
			b.logger.Warn("Failed to load photos", zap.Error(err), zap.String("place_id", placeID))
			return nil
		}
		card.photos = photos
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &card, nil
}

func (b *Bot) cardText(card *venueCard, venueType string, distance *float64) string {
	return format.DetailCard(format.Card{
		Details:   card.details,
		VenueType: venueType,
		Favorite:  card.favorite,
		Distance:  distance,
		Now:       b.now().In(b.settings.Location),
	})
}

func (b *Bot) reportCardError(chatID int64, placeID string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		b.sendText(chatID, "This place is no longer available 😕", nil)
		return
	}
	b.logger.Error("Failed to load venue card",
		zap.Error(err),
		zap.Int64("chat_id", chatID),
		zap.String("place_id", placeID),
	)
	b.sendText(chatID, "Failed to load the place, please try again later.", nil)
}

// distanceFrom is the geodesic distance from the stored location, if any
func distanceFrom(sess *session.Session, venue models.Venue) *float64 {
	if sess.Location == nil || venue.Location == nil {
		return nil
	}
	d := geo.GeodesicMeters(*sess.Location, *venue.Location)
	return &d
}

// sendVenueCard sends a standalone card, one not tied to a result set
func (b *Bot) sendVenueCard(ctx context.Context, chatID, userID int64, sess *session.Session, placeID string) {
	card, err := b.loadVenueCard(ctx, userID, placeID)
	if err != nil {
		b.reportCardError(chatID, placeID, err)
		return
	}

	b.sendPhotos(chatID, card.photos)
	text := b.cardText(card, cardType(card.details, sess), distanceFrom(sess, card.details.Venue))
	key := sess.AddCard(placeID)
	b.sendText(chatID, text, detailKeyboard(card.details, key, card.favorite, card.registered, false, false, false))
}

// cardType picks the emoji type of a card shown outside a search
func cardType(d *models.VenueDetails, sess *session.Session) string {
	for _, t := range []string{"restaurant", "bar", "cafe"} {
		if d.HasType(t) {
			return t
		}
	}
	return sess.TypeFilter
}

// cardPlace resolves the card key of a pressed button
func (b *Bot) cardPlace(chatID int64, sess *session.Session, key string) (string, bool) {
	placeID, ok := sess.CardPlace(key)
	if !ok {
		b.sendText(chatID, staleCard, nil)
	}
	return placeID, ok
}

// handleFavoriteToggle adds or removes a favorite and redraws the card the
// button was pressed on
func (b *Bot) handleFavoriteToggle(ctx context.Context, query *tgbotapi.CallbackQuery, sess *session.Session, key string, add bool) {
	chatID := query.Message.Chat.ID
	userID := query.From.ID
	placeID, ok := b.cardPlace(chatID, sess, key)
	if !ok || !b.requireRegistered(ctx, chatID, userID) {
		return
	}

	var err error
	if add {
		err = b.users.AddFavorite(ctx, userID, placeID)
	} else {
		err = b.users.RemoveFavorite(ctx, userID, placeID)
	}
	if err != nil {
		b.logger.Error("Failed to update favorite",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("place_id", placeID),
			zap.Bool("add", add),
		)
		b.sendText(chatID, "Failed to update favorites, please try again later.", nil)
		return
	}

	b.logger.Info("Favorite updated", zap.Int64("user_id", userID), zap.String("place_id", placeID), zap.Bool("add", add))

	card, err := b.loadVenueCard(ctx, userID, placeID)
	if err != nil {
		b.reportCardError(chatID, placeID, err)
		return
	}

	messageID := query.Message.MessageID
	if sess.State == session.StateDetail && messageID == sess.DetailMessageID {
		results, ok := b.loadResults(ctx, chatID, sess)
		if !ok {
			return
		}
		item, hasPrevious, hasNext, ok := paging.Item(results, sess.ItemIndex)
		if !ok || item.Venue.PlaceID != placeID {
			return
		}
		distance := item.DistanceMeters
		keyboard := detailKeyboard(card.details, key, card.favorite, card.registered, true, hasPrevious, hasNext)
		b.editText(chatID, messageID, b.cardText(card, sess.TypeFilter, &distance), &keyboard)
		return
	}

	keyboard := detailKeyboard(card.details, key, card.favorite, card.registered, false, false, false)
	b.editText(chatID, messageID, b.cardText(card, cardType(card.details, sess), distanceFrom(sess, card.details.Venue)), &keyboard)
}

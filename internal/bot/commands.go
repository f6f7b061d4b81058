package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/session"
)

// handleStart resets the chat and greets the user
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if err := b.sessions.Reset(ctx, chatID); err != nil {
		b.logger.Warn("Failed to reset session", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	b.saveSession(ctx, session.New(chatID, b.settings.DefaultRadius))

	if !b.isRegistered(ctx, message.From.ID) {
		text := `Welcome to the Places bot! ☕🍽️🍹

I can find cafes, restaurants and bars around you.
To save favorites and leave reviews, please share your phone number first.`
		b.sendText(chatID, text, contactKeyboard())
		return
	}

	b.showMainMenu(ctx, chatID, message.From.ID, "Welcome back! 👋 What are we looking for today?")
}

// handleContact registers the sender by the shared phone number
func (b *Bot) handleContact(ctx context.Context, message *tgbotapi.Message) {
	contact := message.Contact
	if contact.UserID != 0 && contact.UserID != message.From.ID {
		b.sendText(message.Chat.ID, "Please share your own phone number.", contactKeyboard())
		return
	}
	if b.users == nil {
		b.showMainMenu(ctx, message.Chat.ID, message.From.ID, "Registration is not available right now.")
		return
	}

	err := b.users.RegisterUser(ctx, models.User{
		TelegramID:  message.From.ID,
		PhoneNumber: contact.PhoneNumber,
		CreatedAt:   b.now(),
	})
	if err != nil {
		b.logger.Error("Failed to register user", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendText(message.Chat.ID, "Failed to register, please try again later.", nil)
		return
	}

	b.logger.Info("User registered", zap.Int64("user_id", message.From.ID))
	b.showMainMenu(ctx, message.Chat.ID, message.From.ID, "✅ Thanks, you are registered!")
}

// handleLocation remembers the location the next searches start from
func (b *Bot) handleLocation(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	point, err := geo.NewPoint(message.Location.Latitude, message.Location.Longitude)
	if err != nil {
		b.sendText(message.Chat.ID, "This location looks invalid, please send it again.", locationKeyboard())
		return
	}

	sess.Location = &point
	b.sendText(message.Chat.ID, "📍 Remembered your location. Pick what to look for:", typeKeyboard())
}

// handleSearchMenu offers the venue types, or asks for a location first
func (b *Bot) handleSearchMenu(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	if sess.Location == nil {
		b.sendText(message.Chat.ID, "📍 Please send your location so I know where to search.", locationKeyboard())
		return
	}
	b.sendText(message.Chat.ID, "What are we looking for?", typeKeyboard())
}

// handleSettings shows the settings menu
func (b *Bot) handleSettings(message *tgbotapi.Message) {
	b.sendText(message.Chat.ID, "⚙️ Settings", settingsKeyboard())
}

// handleRadius stores a radius picked from the radius keyboard
func (b *Bot) handleRadius(ctx context.Context, message *tgbotapi.Message, sess *session.Session, radius int) {
	if !session.IsAllowedRadius(radius) {
		b.sendText(message.Chat.ID, "Please pick one of the offered radii.", radiusKeyboard())
		return
	}

	sess.RadiusMeters = radius
	b.showMainMenu(ctx, message.Chat.ID, message.From.ID, fmt.Sprintf("✅ Search radius set to %d m", radius))
}

func (b *Bot) showMainMenu(ctx context.Context, chatID, userID int64, text string) {
	b.sendText(chatID, text, mainMenu(b.isRegistered(ctx, userID)))
}

func (b *Bot) isRegistered(ctx context.Context, userID int64) bool {
	if b.users == nil {
		return false
	}
	ok, err := b.users.IsRegistered(ctx, userID)
	if err != nil {
		b.logger.Warn("Failed to check registration", zap.Error(err), zap.Int64("user_id", userID))
		return false
	}
	return ok
}

// requireRegistered asks unregistered users for their contact
func (b *Bot) requireRegistered(ctx context.Context, chatID, userID int64) bool {
	if b.isRegistered(ctx, userID) {
		return true
	}
	b.sendText(chatID, "Please share your phone number to use favorites and reviews.", contactKeyboard())
	return false
}

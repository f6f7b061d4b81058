package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/session"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	unlock := b.locks.lock(chatID)
	defer unlock()

	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			b.sendText(chatID, "An error occurred while processing your request. Please try again.", nil)
		}
	}()

	sess, err := b.sessions.Load(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to load session", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendText(chatID, "Something went wrong, please try again later.", nil)
		return
	}

	switch {
	case message.IsCommand():
		// Any command interrupts an ongoing review conversation
		sess.Draft = nil
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message)
			return
		case "search":
			b.handleSearchMenu(ctx, message, sess)
		case "settings":
			b.handleSettings(message)
		case "favorites":
			b.handleFavorites(ctx, message, sess)
		case "reviews":
			b.handleMyReviews(ctx, message, sess)
		default:
			b.sendText(chatID, "Unknown command. Use /start to see the menu.", nil)
		}

	case message.Contact != nil:
		b.handleContact(ctx, message)

	case message.Location != nil:
		b.handleLocation(ctx, message, sess)

	case sess.Draft != nil:
		b.handleReviewConversation(ctx, message, sess)

	default:
		b.handleText(ctx, message, sess)
	}

	b.saveSession(ctx, sess)
}

// handleText routes reply keyboard buttons
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	text := strings.TrimSpace(message.Text)

	if venueType, ok := venueTypes[text]; ok {
		b.runSearch(ctx, message.Chat.ID, sess, venueType)
		return
	}
	if radius, err := strconv.Atoi(text); err == nil {
		b.handleRadius(ctx, message, sess, radius)
		return
	}

	switch text {
	case btnSearch:
		b.handleSearchMenu(ctx, message, sess)
	case btnSettings:
		b.handleSettings(message)
	case btnRadius:
		b.sendText(message.Chat.ID, "📏 Choose the search radius in meters:", radiusKeyboard())
	case btnBack:
		b.showMainMenu(ctx, message.Chat.ID, message.From.ID, "Main menu")
	case btnMyReviews:
		b.handleMyReviews(ctx, message, sess)
	case btnFavorites:
		b.handleFavorites(ctx, message, sess)
	default:
		*sess, _ = sess.Transition(session.Event{Kind: session.EventUnknown}, 0, b.settings.PageSize)
		b.showMainMenu(ctx, message.Chat.ID, message.From.ID, "I did not understand that. Please use the menu below.")
	}
}

func (b *Bot) saveSession(ctx context.Context, sess *session.Session) {
	if err := b.sessions.Save(ctx, sess); err != nil {
		b.logger.Error("Failed to save session", zap.Error(err), zap.Int64("chat_id", sess.ChatID))
	}
}

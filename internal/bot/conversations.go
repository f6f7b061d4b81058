package bot

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/models"
	"placesbot/internal/session"
)

const (
	maxReviewNameLength = 64
	maxReviewTextLength = 2000
)

// startReview begins the add review conversation, or the edit one when
// existing is set
func (b *Bot) startReview(ctx context.Context, chatID, userID int64, sess *session.Session, placeID string, existing *models.Review) {
	if placeID == "" || !b.requireRegistered(ctx, chatID, userID) {
		return
	}

	sess.Draft = &session.ReviewDraft{
		PlaceID: placeID,
		Step:    session.DraftName,
	}
	text := "✍️ How should we sign your review? Send your name:"
	if existing != nil {
		sess.Draft.ReviewID = existing.ID
		text = "✏️ Editing your review. Send the name to sign it with (it was \"" + existing.Name + "\"):"
	}

	b.sendText(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

// handleReviewConversation collects the name, score and text of a review
func (b *Bot) handleReviewConversation(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	chatID := message.Chat.ID
	draft := sess.Draft
	text := strings.TrimSpace(message.Text)

	if text == btnBack {
		sess.Draft = nil
		b.showMainMenu(ctx, chatID, message.From.ID, "Review cancelled.")
		return
	}
	if text == "" {
		b.sendText(chatID, "Please answer with text.", nil)
		return
	}

	switch draft.Step {
	case session.DraftName:
		if utf8.RuneCountInString(text) > maxReviewNameLength {
			b.sendText(chatID, "That name is too long, please send a shorter one.", nil)
			return
		}
		draft.Name = text
		draft.Step = session.DraftScore
		b.sendText(chatID, "⭐ Rate the place from 1 to 5:", scoreKeyboard())

	case session.DraftScore:
		score, err := strconv.Atoi(text)
		if err != nil || score < 1 || score > 5 {
			b.sendText(chatID, "Please send a whole number from 1 to 5.", scoreKeyboard())
			return
		}
		draft.Score = score
		draft.Step = session.DraftText
		b.sendText(chatID, "💬 Now write your review:", tgbotapi.NewRemoveKeyboard(true))

	case session.DraftText:
		if utf8.RuneCountInString(text) > maxReviewTextLength {
			b.sendText(chatID, "The review is too long, please shorten it.", nil)
			return
		}
		b.finishReview(ctx, message, sess, text)

	default:
		sess.Draft = nil
	}
}

func (b *Bot) finishReview(ctx context.Context, message *tgbotapi.Message, sess *session.Session, text string) {
	chatID := message.Chat.ID
	draft := sess.Draft

	review := models.Review{
		ID:        draft.ReviewID,
		PlaceID:   draft.PlaceID,
		UserID:    message.From.ID,
		Name:      draft.Name,
		Score:     draft.Score,
		Text:      text,
		CreatedAt: b.now(),
	}

	var err error
	if review.ID != 0 {
		err = b.users.UpdateReview(ctx, review)
	} else {
		review.ID, err = b.users.AddReview(ctx, review)
	}
	if err != nil {
		b.logger.Error("Failed to save review",
			zap.Error(err),
			zap.Int64("user_id", review.UserID),
			zap.String("place_id", review.PlaceID),
		)
		b.sendText(chatID, "Failed to save the review, please try again later.", nil)
		return
	}

	b.logger.Info("Review saved",
		zap.Int64("review_id", review.ID),
		zap.Int64("user_id", review.UserID),
		zap.String("place_id", review.PlaceID),
		zap.Int("score", review.Score),
	)

	sess.Draft = nil
	b.showMainMenu(ctx, chatID, message.From.ID, "✅ Thanks for your review!")
}

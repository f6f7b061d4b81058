package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/models"
)

// send delivers c and returns the id of the sent message, 0 on failure
func (b *Bot) send(c tgbotapi.Chattable) int {
	if b.api == nil {
		return 0 // For testing
	}

	msg, err := b.api.Send(c)
	if err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
		return 0
	}
	return msg.MessageID
}

// request calls a method whose result is not a message
func (b *Bot) request(c tgbotapi.Chattable) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(c); err != nil {
		b.logger.Warn("Telegram request failed", zap.Error(err))
	}
}

// sendText sends text with an optional reply or inline keyboard
func (b *Bot) sendText(chatID int64, text string, markup any) int {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return b.send(msg)
}

// editText replaces the text and inline keyboard of a sent message
func (b *Bot) editText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	b.request(edit)
}

// deleteMessages removes messages, ignoring zero ids
func (b *Bot) deleteMessages(chatID int64, ids ...int) {
	for _, id := range ids {
		if id != 0 {
			b.request(tgbotapi.NewDeleteMessage(chatID, id))
		}
	}
}

// sendPhotos sends photos as one media group and returns the message ids
func (b *Bot) sendPhotos(chatID int64, photos []models.Photo) []int {
	if b.api == nil || len(photos) == 0 {
		return nil
	}

	if len(photos) == 1 {
		if id := b.send(tgbotapi.NewPhoto(chatID, photoFile(photos[0], 0))); id != 0 {
			return []int{id}
		}
		return nil
	}

	media := make([]any, 0, len(photos))
	for i, p := range photos {
		media = append(media, tgbotapi.NewInputMediaPhoto(photoFile(p, i)))
	}

	msgs, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	if err != nil {
		b.logger.Warn("Failed to send photos", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}

	ids := make([]int, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.MessageID)
	}
	return ids
}

func photoFile(p models.Photo, i int) tgbotapi.RequestFileData {
	if len(p.Data) > 0 {
		return tgbotapi.FileBytes{Name: fmt.Sprintf("photo%d.jpg", i+1), Bytes: p.Data}
	}
	return tgbotapi.FileURL(p.URL)
}

// inlineMarkup turns an optional keyboard into a ReplyMarkup value
func inlineMarkup(kb *tgbotapi.InlineKeyboardMarkup) any {
	if kb == nil {
		return nil
	}
	return *kb
}

package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/paging"
	"placesbot/internal/session"
)

// NewBot creates a new Telegram bot
func NewBot(token string, deps Deps, settings Settings, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, deps, settings, logger), nil
}

// newBot wires a bot around api, which may be nil in tests
func newBot(api *tgbotapi.BotAPI, deps Deps, settings Settings, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range settings.AllowedUserIDs {
		allowedUsers[id] = true
	}

	if settings.PageSize <= 0 {
		settings.PageSize = paging.DefaultPageSize
	}
	if settings.DefaultRadius <= 0 {
		settings.DefaultRadius = session.DefaultRadiusMeters
	}
	if settings.PhotoLimit <= 0 {
		settings.PhotoLimit = defaultPhotoLimit
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}

	return &Bot{
		api:          api,
		search:       deps.Search,
		places:       deps.Places,
		users:        deps.Users,
		sessions:     deps.Sessions,
		metrics:      deps.Metrics,
		allowedUsers: allowedUsers,
		settings:     settings,
		locks:        newChatLocks(),
		logger:       logger,
		now:          time.Now,
	}
}

// GetAPI returns the bot API for testing
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}

func (b *Bot) isAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || b.allowedUsers[userID]
}

package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Start runs the bot in polling mode until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.logger.Info("Bot started successfully. Waiting for updates...")

	b.handleUpdates(ctx, updates)
	return nil
}

// StartWebhook sets up the bot to receive updates via webhook
func (b *Bot) StartWebhook(webhookURL string) error {
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + "/telegram-webhook")
	if err != nil {
		return err
	}
	webhookConfig.MaxConnections = 40

	if _, err := b.api.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return err
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}

	b.logger.Info("Bot configured for webhook mode")
	return nil
}

// HandleWebhookUpdate processes a single update
func (b *Bot) HandleWebhookUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil && update.Message.From != nil {
		userID := update.Message.From.ID
		if !b.isAllowed(userID) {
			b.logger.Warn("Unauthorized access attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.Message.From.UserName),
				zap.String("text", update.Message.Text),
			)
			b.sendText(update.Message.Chat.ID, "Sorry, you are not authorized to use this bot.", nil)
			return
		}
		b.metrics.IncUpdate("message")
		b.handleMessage(ctx, update.Message)
	}

	if update.CallbackQuery != nil {
		userID := update.CallbackQuery.From.ID
		if !b.isAllowed(userID) {
			b.logger.Warn("Unauthorized callback query attempt",
				zap.Int64("user_id", userID),
				zap.String("callback_data", update.CallbackQuery.Data),
			)
			return
		}
		b.metrics.IncUpdate("callback")
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// handleUpdates runs every update in its own goroutine. Updates of one chat
// still run one at a time, see chatLocks.
func (b *Bot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	for update := range updates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.HandleWebhookUpdate(ctx, update)
		}()
	}
	wg.Wait()
}

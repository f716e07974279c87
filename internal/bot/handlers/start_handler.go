package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler greets the user and makes sure a conversation exists.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}

		deps.Conversations.GetOrCreate(msg.Chat.ID, msg.Chat.Type, msg.Chat.Title, 0)

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   deps.Config.Messages.Welcome,
		}); err != nil {
			deps.Logger.ErrorContext(ctx, "Failed to send welcome", "error", err, "chat_id", msg.Chat.ID)
		}
	}
}

package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewClearHandler wipes the in-memory history for the chat and purges its
// archived rows. Group metadata survives the wipe.
func NewClearHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		chatID := msg.Chat.ID

		deps.Conversations.Clear(chatID)

		if deps.Archive != nil {
			dbCtx, cancel := context.WithTimeout(ctx, archiveSaveTimeout)
			if err := deps.Archive.DeleteMessagesInChat(dbCtx, chatID); err != nil {
				deps.Logger.WarnContext(ctx, "Failed to purge archived messages", "error", err, "chat_id", chatID)
			}
			cancel()
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   deps.Config.Messages.HistoryCleared,
		}); err != nil {
			deps.Logger.ErrorContext(ctx, "Failed to confirm clear", "error", err, "chat_id", chatID)
		}
	}
}

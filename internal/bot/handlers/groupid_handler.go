package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewGroupIDHandler reports the chat identifier, plus group metadata when
// invoked inside a group.
func NewGroupIDHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil {
			return
		}
		chatID := msg.Chat.ID

		var text string
		switch msg.Chat.Type {
		case models.ChatTypeGroup, models.ChatTypeSupergroup:
			text = fmt.Sprintf("Group: %s\nType: %s\nChat ID: %d", msg.Chat.Title, msg.Chat.Type, chatID)
			if info := deps.Conversations.GroupInfoFor(chatID); info != nil && !info.JoinedAt.IsZero() {
				text += fmt.Sprintf("\nTracked since: %s", info.JoinedAt.Format("2006-01-02"))
			}
		default:
			text = fmt.Sprintf("Chat ID: %d", chatID)
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			deps.Logger.ErrorContext(ctx, "Failed to send chat id", "error", err, "chat_id", chatID)
		}
	}
}

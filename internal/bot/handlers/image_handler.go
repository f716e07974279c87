package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gembot/internal/chat"
	"gembot/internal/textutil"
)

// NewImageHandler generates an image from the /image prompt.
func NewImageHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		chatID := msg.Chat.ID
		log := deps.Logger.With("handler", "image")

		prompt := textutil.ExtractCommandArgs(msg.Text, "image")
		if prompt == "" {
			if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: deps.Config.Messages.ImagePrompt}); err != nil {
				log.ErrorContext(ctx, "Failed to send prompt hint", "error", err, "chat_id", chatID)
			}
			return
		}

		if !deps.Limiter.Allow(msg.From.ID) {
			if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: deps.Config.Messages.RateLimited}); err != nil {
				log.ErrorContext(ctx, "Failed to send rate-limit notice", "error", err, "chat_id", chatID)
			}
			return
		}

		notice, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: deps.Config.Messages.ImageGenerating})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send generating notice", "error", err, "chat_id", chatID)
		}

		_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionUploadPhoto})

		aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
		defer cancel()
		imageData, err := deps.Gemini.GenerateImage(aiCtx, prompt)
		if err != nil {
			log.ErrorContext(ctx, "Image generation failed", "error", err, "chat_id", chatID)
			if notice != nil {
				if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: chatID, MessageID: notice.ID, Text: deps.Config.Messages.ImageGenFailed}); err != nil {
					log.ErrorContext(ctx, "Failed to edit generating notice", "error", err, "chat_id", chatID)
				}
			}
			return
		}

		caption := prompt
		if len(caption) > 200 {
			caption = caption[:200] + "..."
		}
		photo, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileUpload{Filename: "generated.png", Data: bytes.NewReader(imageData)},
			Caption: fmt.Sprintf("Generated: %s", caption),
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send generated photo", "error", err, "chat_id", chatID)
			return
		}
		if notice != nil {
			if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: notice.ID}); err != nil {
				log.WarnContext(ctx, "Failed to delete generating notice", "error", err, "chat_id", chatID)
			}
		}

		deps.Conversations.GetOrCreate(chatID, msg.Chat.Type, msg.Chat.Title, 0)
		deps.Conversations.Append(chatID, msg.Chat.Type, chat.Message{
			UserID:    msg.From.ID,
			ChatID:    chatID,
			MessageID: msg.ID,
			Text:      "/image " + prompt,
			Kind:      chat.KindCommand,
			Timestamp: time.Unix(int64(msg.Date), 0),
			Username:  msg.From.Username,
		})
		deps.Conversations.Append(chatID, msg.Chat.Type, chat.Message{
			UserID:    chat.BotUserID,
			ChatID:    chatID,
			MessageID: photo.ID,
			Text:      "[Generated image] " + prompt,
			Kind:      chat.KindGeneratedImage,
			Timestamp: time.Now().UTC(),
			Username:  "AI Assistant",
		})
		deps.Conversations.TrackBotMessage(chatID, photo.ID)
		deps.Stats.AddImageGenerated()
	}
}

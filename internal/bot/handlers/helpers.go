package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gembot/internal/chat"
	"gembot/internal/database"
	"gembot/internal/textutil"
)

const (
	photoDownloadTimeout = 30 * time.Second
	aiProcessingTimeout  = 2 * time.Minute
	sendMessageTimeout   = 10 * time.Second
	archiveSaveTimeout   = 5 * time.Second
	healthCheckTimeout   = 15 * time.Second
)

// ShouldRespondInGroup implements the group suppression rule: private chats
// always get a response; in groups the bot responds only when mentioned (by
// @username or a generic trigger word), when the message replies to any of
// the bot's messages, or when it replies to the bot's last tracked message.
func ShouldRespondInGroup(text string, chatType models.ChatType, botUsername string, isReplyToBot, isReplyToLastSent bool) bool {
	if chatType == models.ChatTypePrivate {
		return true
	}
	return textutil.IsBotMentioned(text, botUsername) || isReplyToBot || isReplyToLastSent
}

// replyInfo captures the reply-target metadata of an inbound message.
type replyInfo struct {
	toMessageID  int
	isReplyToBot bool
	repliedText  string
}

func extractReplyInfo(msg *models.Message, botID int64) replyInfo {
	var ri replyInfo
	if msg.ReplyToMessage == nil {
		return ri
	}
	ri.toMessageID = msg.ReplyToMessage.ID
	ri.repliedText = msg.ReplyToMessage.Text
	if msg.ReplyToMessage.From != nil {
		ri.isReplyToBot = msg.ReplyToMessage.From.IsBot && msg.ReplyToMessage.From.ID == botID
	}
	return ri
}

// contextPrefix builds the optional prefix prepended to the prompt: group
// name and a truncated preview of the message being replied to.
func contextPrefix(group *chat.GroupInfo, ri replyInfo) string {
	prefix := ""
	if group != nil {
		prefix = fmt.Sprintf("[Group: %s] ", group.GroupName)
	}
	if ri.isReplyToBot && ri.repliedText != "" {
		preview := ri.repliedText
		if runes := []rune(preview); len(runes) > 50 {
			preview = string(runes[:50])
		}
		prefix += fmt.Sprintf("[Reply to: %s...] ", preview)
	}
	return prefix
}

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
	"image/bmp":  {},
}

// ValidateImage checks the size and sniffed content type of inbound image
// data before it is handed to the AI client.
func ValidateImage(data []byte, maxSize int) error {
	if len(data) == 0 {
		return fmt.Errorf("image data is empty")
	}
	if len(data) > maxSize {
		return fmt.Errorf("image too large: %d bytes (max %d)", len(data), maxSize)
	}
	contentType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[contentType]; !ok {
		return fmt.Errorf("unsupported image format: %s", contentType)
	}
	return nil
}

// DownloadPhoto downloads a photo from Telegram's file API using the
// provided file ID. It returns the photo data and detected MIME type.
func DownloadPhoto(ctx context.Context, b *bot.Bot, token, fileID string, maxSize int) (data []byte, mimeType string, err error) {
	if token == "" || fileID == "" {
		return nil, "", fmt.Errorf("token and fileID are required for photo download")
	}

	downloadCtx, cancel := context.WithTimeout(ctx, photoDownloadTimeout)
	defer cancel()

	fileObj, err := b.GetFile(downloadCtx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file info from Telegram: %w", err)
	}
	if fileObj.FilePath == "" {
		return nil, "", fmt.Errorf("empty file path returned for file ID %s", fileID)
	}

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close download body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", fmt.Errorf("unexpected status %d downloading file: %s", resp.StatusCode, string(body))
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, int64(maxSize)+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("received empty file data")
	}

	return data, http.DetectContentType(data), nil
}

// bestPhoto selects the highest-resolution size variant of a photo.
func bestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	var best models.PhotoSize
	bestQuality := 0
	for _, p := range sizes {
		if q := p.Width * p.Height; q > bestQuality {
			bestQuality = q
			best = p
		}
	}
	return best
}

// archiveMessage writes a message to the durable archive, best effort: a
// failure is logged and never propagated to the handler.
func archiveMessage(ctx context.Context, deps HandlerDeps, msg chat.Message) {
	if deps.Archive == nil {
		return
	}
	dbCtx, cancel := context.WithTimeout(ctx, archiveSaveTimeout)
	defer cancel()

	err := deps.Archive.SaveMessage(dbCtx, &database.ArchivedMessage{
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		Kind:      string(msg.Kind),
		Content:   msg.Text,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		deps.Logger.WarnContext(ctx, "Failed to archive message", "chat_id", msg.ChatID, "error", err)
	}
}

// sendReply sends one reply chunk, records it in the conversation, tracks
// it as the bot's last sent message, and archives it. Send failures are
// logged and swallowed per the handler error policy.
func sendReply(ctx context.Context, b *bot.Bot, deps HandlerDeps, chatID int64, chatType models.ChatType, replyTo int, text string) {
	log := deps.Logger.With("handler", "chat")

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if replyTo > 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}
	sent, err := b.SendMessage(sendCtx, params)
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
		return
	}

	botMsg := chat.Message{
		UserID:    chat.BotUserID,
		ChatID:    chatID,
		MessageID: sent.ID,
		Text:      text,
		Kind:      chat.KindText,
		Timestamp: time.Now().UTC(),
		Username:  "AI Assistant",
	}
	deps.Conversations.Append(chatID, chatType, botMsg)
	deps.Conversations.TrackBotMessage(chatID, sent.ID)
	archiveMessage(ctx, deps, botMsg)
}

package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gembot/internal/chat"
	"gembot/internal/textutil"
)

// NewChatHandler returns the default handler that relays text and photo
// messages to the AI client and dispatches the segmented reply.
func NewChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatHandler{deps}.Handle
}

type chatHandler struct {
	deps HandlerDeps
}

func (h chatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if msg.Text == "" && msg.Caption == "" && len(msg.Photo) == 0 {
		return
	}
	// Commands are routed to their own handlers.
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chatID := msg.Chat.ID
	chatType := msg.Chat.Type

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	botInfo := deps.Config.Telegram.BotInfo
	ri := extractReplyInfo(msg, botInfo.ID)
	replyToLast := ri.toMessageID != 0 && ri.toMessageID == deps.Conversations.LastBotMessage(chatID)

	// Unaddressed group messages leave no trace: no history entry, no
	// rate-limit charge, no counters.
	if !ShouldRespondInGroup(text, chatType, botInfo.Username, ri.isReplyToBot, replyToLast) {
		log.DebugContext(ctx, "Suppressing group message", "chat_id", chatID)
		return
	}

	if !deps.Limiter.Allow(msg.From.ID) {
		log.InfoContext(ctx, "Rate limited", "user_id", msg.From.ID, "chat_id", chatID)
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: deps.Config.Messages.RateLimited}); err != nil {
			log.ErrorContext(ctx, "Failed to send rate-limit notice", "error", err, "chat_id", chatID)
		}
		return
	}

	if len(msg.Photo) > 0 {
		h.handlePhoto(ctx, b, msg, ri)
	} else {
		h.handleText(ctx, b, msg, ri)
	}
}

func (h chatHandler) handleText(ctx context.Context, b *bot.Bot, msg *models.Message, ri replyInfo) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")
	chatID := msg.Chat.ID

	inbound := chat.Message{
		UserID:           msg.From.ID,
		ChatID:           chatID,
		MessageID:        msg.ID,
		Text:             msg.Text,
		Kind:             chat.KindText,
		Timestamp:        time.Unix(int64(msg.Date), 0),
		Username:         msg.From.Username,
		ReplyToMessageID: ri.toMessageID,
		IsReplyToBot:     ri.isReplyToBot,
	}
	deps.Conversations.GetOrCreate(chatID, msg.Chat.Type, msg.Chat.Title, 0)
	deps.Conversations.Append(chatID, msg.Chat.Type, inbound)
	archiveMessage(ctx, deps, inbound)
	deps.Stats.AddMessage()

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	prefix := contextPrefix(deps.Conversations.GroupInfoFor(chatID), ri)
	history := deps.Conversations.ContextWindow(chatID, deps.Config.Bot.ContextMessages)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()
	resp, err := deps.Gemini.GenerateResponse(aiCtx, prefix+msg.Text, history)
	if err != nil {
		log.ErrorContext(ctx, "AI generation failed", "error", err, "chat_id", chatID)
		resp = deps.Config.Messages.AIError
	}

	for _, chunk := range textutil.Split(resp, deps.Config.Bot.MaxMessageLength) {
		sendReply(ctx, b, deps, chatID, msg.Chat.Type, msg.ID, chunk)
	}
}

func (h chatHandler) handlePhoto(ctx context.Context, b *bot.Bot, msg *models.Message, ri replyInfo) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")
	chatID := msg.Chat.ID

	notice, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: deps.Config.Messages.ImageAnalyzing})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send analyzing notice", "error", err, "chat_id", chatID)
	}

	editNotice := func(text string) {
		if notice == nil {
			return
		}
		if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: chatID, MessageID: notice.ID, Text: text}); err != nil {
			log.ErrorContext(ctx, "Failed to edit analyzing notice", "error", err, "chat_id", chatID)
		}
	}

	photo := bestPhoto(msg.Photo)
	data, mimeType, err := DownloadPhoto(ctx, b, deps.Config.Telegram.Token, photo.FileID, deps.Config.Bot.MaxImageSize)
	if err != nil {
		log.ErrorContext(ctx, "Photo download failed", "error", err, "chat_id", chatID)
		editNotice(deps.Config.Messages.GeneralError)
		return
	}

	// Validation failures get a user-facing explanation and no state
	// mutation.
	if err := ValidateImage(data, deps.Config.Bot.MaxImageSize); err != nil {
		log.WarnContext(ctx, "Invalid inbound image", "error", err, "chat_id", chatID)
		editNotice(deps.Config.Messages.ImageInvalid)
		return
	}

	inbound := chat.Message{
		UserID:           msg.From.ID,
		ChatID:           chatID,
		MessageID:        msg.ID,
		Text:             "[Photo] " + orDefault(msg.Caption, "Image analysis"),
		Kind:             chat.KindPhoto,
		Timestamp:        time.Unix(int64(msg.Date), 0),
		Username:         msg.From.Username,
		ReplyToMessageID: ri.toMessageID,
		IsReplyToBot:     ri.isReplyToBot,
	}
	deps.Conversations.GetOrCreate(chatID, msg.Chat.Type, msg.Chat.Title, 0)
	deps.Conversations.Append(chatID, msg.Chat.Type, inbound)
	archiveMessage(ctx, deps, inbound)
	deps.Stats.AddMessage()

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()
	analysis, err := deps.Gemini.AnalyzeImage(aiCtx, data, mimeType, msg.Caption)
	if err != nil {
		log.ErrorContext(ctx, "Image analysis failed", "error", err, "chat_id", chatID)
		editNotice(deps.Config.Messages.ImageAnalyzeFail)
		return
	}

	chunks := textutil.Split(analysis, deps.Config.Bot.MaxMessageLength)
	if notice == nil {
		sendReply(ctx, b, deps, chatID, msg.Chat.Type, msg.ID, chunks[0])
	}
	editNotice(chunks[0])
	if notice != nil {
		botMsg := chat.Message{
			UserID:    chat.BotUserID,
			ChatID:    chatID,
			MessageID: notice.ID,
			Text:      chunks[0],
			Kind:      chat.KindText,
			Timestamp: time.Now().UTC(),
			Username:  "AI Assistant",
		}
		deps.Conversations.Append(chatID, msg.Chat.Type, botMsg)
		deps.Conversations.TrackBotMessage(chatID, notice.ID)
		archiveMessage(ctx, deps, botMsg)
	}
	for _, chunk := range chunks[1:] {
		sendReply(ctx, b, deps, chatID, msg.Chat.Type, msg.ID, chunk)
	}

	deps.Stats.AddImageAnalyzed()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

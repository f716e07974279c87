package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gembot/internal/textutil"
)

// NewHealthHandler reports AI availability and runtime counters.
func NewHealthHandler(deps HandlerDeps) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil {
			return
		}
		chatID := msg.Chat.ID

		hcCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		health := deps.Gemini.HealthCheck(hcCtx)
		cancel()

		snap := deps.Stats.Snapshot()
		uptime := textutil.FormatUptime(deps.Stats.UptimeStart())

		text := fmt.Sprintf(
			"Bot status: %s\nAI text generation: %v\nUptime: %s\nMessages processed: %d\nImages analyzed: %d\nImages generated: %d\nActive conversations: %d",
			health.Status, health.TextGeneration, uptime,
			snap.TotalMessages, snap.ImagesAnalyzed, snap.ImagesGenerated, snap.Conversations,
		)
		if health.Detail != "" {
			text += "\nDetail: " + health.Detail
		}

		if deps.Archive != nil {
			dbCtx, cancel := context.WithTimeout(ctx, archiveSaveTimeout)
			if err := deps.Archive.Ping(dbCtx); err != nil {
				text += "\nArchive: unreachable"
			} else if count, err := deps.Archive.CountMessages(dbCtx); err == nil {
				text += fmt.Sprintf("\nArchived messages: %d", count)
			}
			cancel()
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			deps.Logger.ErrorContext(ctx, "Failed to send health report", "error", err, "chat_id", chatID)
		}
	}
}

// Package tasks implements the scheduled background tasks for the bot.
package tasks

import (
	"log/slog"

	"gembot/internal/chat"
	"gembot/internal/config"
	"gembot/internal/database"
	"gembot/internal/ratelimit"
)

// TaskDeps contains the dependencies shared by all scheduled tasks.
type TaskDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Conversations *chat.Store
	Limiter       *ratelimit.Limiter
	Archive       database.Store
}

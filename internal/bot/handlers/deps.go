// Package handlers contains the Telegram command and message handlers,
// along with their registration logic and shared helpers.
package handlers

import (
	"log/slog"

	"gembot/internal/chat"
	"gembot/internal/config"
	"gembot/internal/database"
	"gembot/internal/gemini"
	"gembot/internal/ratelimit"
)

// HandlerDeps provides dependencies for Telegram handlers. All shared state
// is constructed once at startup and injected here; handlers hold no
// package-level state.
type HandlerDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Conversations *chat.Store
	Limiter       *ratelimit.Limiter
	Stats         *chat.Stats
	Gemini        gemini.Client
	Archive       database.Store
}

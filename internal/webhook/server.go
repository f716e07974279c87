// Package webhook provides the HTTP surface for webhook mode: the update
// endpoint, status endpoints, and the automatic webhook registration flow.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"

	"gembot/internal/chat"
	"gembot/internal/config"
	"gembot/internal/gemini"
	"gembot/internal/textutil"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server exposes the status endpoints and, in webhook mode, the Telegram
// update endpoint.
type Server struct {
	logger *slog.Logger
	cfg    *config.Config
	stats  *chat.Stats
	gemini gemini.Client
	tgBot  *bot.Bot
	srv    *http.Server
}

// NewServer builds the HTTP server. The Telegram update handler is only
// mounted when webhookMode is true; polling mode keeps the status endpoints.
func NewServer(logger *slog.Logger, cfg *config.Config, stats *chat.Stats, geminiClient gemini.Client, tgBot *bot.Bot, webhookMode bool) *Server {
	s := &Server{
		logger: logger.With("component", "http_server"),
		cfg:    cfg,
		stats:  stats,
		gemini: geminiClient,
		tgBot:  tgBot,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleStatus)
	if webhookMode {
		mux.Handle("POST /webhook", tgBot.WebhookHandler())
	}

	s.srv = &http.Server{
		Addr:              cfg.Webhook.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed", "error", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
		s.logger.Info("HTTP server stopped")
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

type statusResponse struct {
	Status          string        `json:"status"`
	Bot             string        `json:"bot"`
	Uptime          string        `json:"uptime"`
	TotalMessages   int64         `json:"total_messages"`
	ImagesAnalyzed  int64         `json:"images_analyzed"`
	ImagesGenerated int64         `json:"images_generated"`
	Conversations   int64         `json:"conversations"`
	Groups          int64         `json:"groups"`
	AI              gemini.Health `json:"ai"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	hcCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	health := s.gemini.HealthCheck(hcCtx)

	botName := ""
	if s.cfg.Telegram.BotInfo != nil {
		botName = s.cfg.Telegram.BotInfo.Username
	}

	snap := s.stats.Snapshot()
	resp := statusResponse{
		// Top-level status reports server liveness only; the AI state is
		// nested so a degraded model never fails the webhook probe.
		Status:          "healthy",
		Bot:             botName,
		Uptime:          textutil.FormatUptime(s.stats.UptimeStart()),
		TotalMessages:   snap.TotalMessages,
		ImagesAnalyzed:  snap.ImagesAnalyzed,
		ImagesGenerated: snap.ImagesGenerated,
		Conversations:   snap.Conversations,
		Groups:          snap.Groups,
		AI:              health,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode status response", "error", err)
	}
}

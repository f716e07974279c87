// Package bot implements the core bot lifecycle and component orchestration.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"gembot/internal/chat"
	"gembot/internal/config"
	"gembot/internal/database"
	"gembot/internal/gemini"
	"gembot/internal/webhook"
)

// Bot is the main application object. It owns the Telegram listener, the
// HTTP server, the scheduler, and the webhook setup flow.
type Bot struct {
	logger       *slog.Logger
	cfg          *config.Config
	db           *sqlx.DB
	store        database.Store
	geminiClient gemini.Client
	tgBot        *tgbot.Bot
	scheduler    *Scheduler
	stats        *chat.Stats
}

// NewBot creates the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	geminiClient gemini.Client,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
	stats *chat.Stats,
) *Bot {
	return &Bot{
		logger:       logger.With("component", "bot_orchestrator"),
		cfg:          cfg,
		db:           db,
		store:        store,
		geminiClient: geminiClient,
		tgBot:        tgBot,
		scheduler:    scheduler,
		stats:        stats,
	}
}

// Run starts all components and blocks until the context is cancelled or a
// component fails.
//
// Mode resolution: "polling" skips webhook setup entirely, "webhook"
// requires a successful registration, and "auto" attempts registration and
// falls back to polling when no public URL can be verified.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "mode", b.cfg.Bot.Mode)

	g, gCtx := errgroup.WithContext(ctx)

	webhookCapable := b.cfg.Bot.Mode != "polling"
	server := webhook.NewServer(b.logger, b.cfg, b.stats, b.geminiClient, b.tgBot, webhookCapable)

	g.Go(func() error {
		return server.Run(gCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		useWebhook := false
		if webhookCapable {
			lc := webhook.NewLifecycle(b.logger, &b.cfg.Webhook, b.tgBot)
			useWebhook = lc.AutoSetup(gCtx)
			if !useWebhook && b.cfg.Bot.Mode == "webhook" {
				return fmt.Errorf("webhook mode requested but setup failed")
			}
		}

		if useWebhook {
			b.logger.Info("Starting Telegram webhook listener...")
			b.tgBot.StartWebhook(gCtx)
		} else {
			// A stale webhook registration blocks getUpdates.
			if _, err := b.tgBot.DeleteWebhook(gCtx, &tgbot.DeleteWebhookParams{}); err != nil && gCtx.Err() == nil {
				b.logger.Warn("Failed to clear webhook before polling", "error", err)
			}
			b.logger.Info("Starting Telegram polling listener...")
			b.tgBot.Start(gCtx)
		}
		b.logger.Info("Telegram listener stopped.")

		if gCtx.Err() == nil {
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

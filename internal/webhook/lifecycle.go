package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"

	"gembot/internal/config"
)

const (
	probeTimeout = 5 * time.Second
	probeBackoff = 2 * time.Second
)

// RegisterFunc registers a webhook URL with Telegram.
type RegisterFunc func(ctx context.Context, url string) error

// Lifecycle drives the automatic webhook setup: detect candidate public
// URLs, probe each until its health endpoint answers, then register the
// winner with Telegram.
type Lifecycle struct {
	logger     *slog.Logger
	cfg        *config.WebhookConfig
	httpClient *http.Client
	register   RegisterFunc
	lookupEnv  func(string) string
}

// NewLifecycle builds the setup flow around the given Telegram client.
func NewLifecycle(logger *slog.Logger, cfg *config.WebhookConfig, tgBot *bot.Bot) *Lifecycle {
	return &Lifecycle{
		logger:     logger.With("component", "webhook_setup"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: probeTimeout},
		register: func(ctx context.Context, url string) error {
			ok, err := tgBot.SetWebhook(ctx, &bot.SetWebhookParams{
				URL:            url,
				AllowedUpdates: []string{"message", "callback_query", "inline_query"},
				MaxConnections: 100,
			})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("telegram rejected webhook url %s", url)
			}
			return nil
		},
		lookupEnv: os.Getenv,
	}
}

// DetectPublicURLs returns the candidate base URLs in priority order. The
// configured base URL wins, then the hosting platform's environment hints.
func (l *Lifecycle) DetectPublicURLs() []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimRight(u, "/")
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	if l.cfg.BaseURL != "" {
		add(l.cfg.BaseURL)
	}
	if domain := l.lookupEnv("CUSTOM_DOMAIN"); domain != "" {
		add("https://" + domain)
	}
	if slug, owner := l.lookupEnv("REPL_SLUG"), l.lookupEnv("REPL_OWNER"); slug != "" && owner != "" {
		add(fmt.Sprintf("https://%s.%s.repl.co", slug, strings.ToLower(owner)))
	}
	if id := l.lookupEnv("REPL_ID"); id != "" {
		add(fmt.Sprintf("https://%s.replit.app", id))
	}

	return urls
}

// AutoSetup attempts to register a webhook and reports whether it succeeded.
// A false return is not fatal; the caller falls back to polling.
func (l *Lifecycle) AutoSetup(ctx context.Context) bool {
	candidates := l.DetectPublicURLs()
	if len(candidates) == 0 {
		l.logger.Info("No public URL candidates detected, skipping webhook setup")
		return false
	}

	l.logger.Info("Waiting for HTTP server before webhook setup", "wait", l.cfg.SetupWait, "candidates", len(candidates))
	select {
	case <-time.After(l.cfg.SetupWait):
	case <-ctx.Done():
		return false
	}

	for _, base := range candidates {
		if !l.probe(ctx, base) {
			continue
		}

		url := base + "/webhook"
		if err := l.register(ctx, url); err != nil {
			l.logger.Error("Webhook registration failed", "url", url, "error", err)
			continue
		}

		l.logger.Info("Webhook registered", "url", url)
		return true
	}

	l.logger.Warn("No webhook candidate could be verified and registered")
	return false
}

// probe checks that the candidate's health endpoint is reachable from the
// outside, retrying with a fixed backoff.
func (l *Lifecycle) probe(ctx context.Context, base string) bool {
	url := base + "/health"
	for attempt := 1; attempt <= l.cfg.SetupRetries; attempt++ {
		if ok := l.probeOnce(ctx, url); ok {
			l.logger.Info("Health probe succeeded", "url", url, "attempt", attempt)
			return true
		}

		l.logger.Debug("Health probe failed", "url", url, "attempt", attempt)
		if attempt == l.cfg.SetupRetries {
			break
		}
		select {
		case <-time.After(probeBackoff):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func (l *Lifecycle) probeOnce(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&status); err != nil {
		return false
	}
	return status.Status == "healthy"
}

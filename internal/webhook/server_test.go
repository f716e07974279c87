package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-telegram/bot/models"

	"gembot/internal/chat"
	"gembot/internal/config"
	"gembot/internal/gemini"
)

type stubAI struct {
	health gemini.Health
}

func (s stubAI) GenerateResponse(context.Context, string, []chat.ContextEntry) (string, error) {
	return "", nil
}

func (s stubAI) AnalyzeImage(context.Context, []byte, string, string) (string, error) {
	return "", nil
}

func (s stubAI) GenerateImage(context.Context, string) ([]byte, error) {
	return nil, nil
}

func (s stubAI) HealthCheck(context.Context) gemini.Health {
	return s.health
}

func TestServer_StatusEndpoint(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Webhook.ListenAddr = ":0"
	cfg.Telegram.BotInfo = &models.User{ID: 1, Username: "mybot"}

	stats := chat.NewStats()
	stats.AddMessage()
	stats.AddImageAnalyzed()

	ai := stubAI{health: gemini.Health{Status: "healthy", TextGeneration: true}}
	srv := NewServer(slog.Default(), cfg, stats, ai, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want %q", resp.Status, "healthy")
	}
	if resp.Bot != "mybot" {
		t.Errorf("bot = %q, want %q", resp.Bot, "mybot")
	}
	if resp.TotalMessages != 1 || resp.ImagesAnalyzed != 1 {
		t.Errorf("counters = %d/%d, want 1/1", resp.TotalMessages, resp.ImagesAnalyzed)
	}
}

func TestServer_StatusReportsLivenessNotAI(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Webhook.ListenAddr = ":0"

	ai := stubAI{health: gemini.Health{Status: "unhealthy", Detail: "quota exhausted"}}
	srv := NewServer(slog.Default(), cfg, chat.NewStats(), ai, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, req)

	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("top-level status = %q, want %q regardless of AI state", resp.Status, "healthy")
	}
	if resp.AI.Status != "unhealthy" {
		t.Errorf("nested AI status = %q, want %q", resp.AI.Status, "unhealthy")
	}
}

func TestServer_WebhookEndpointOnlyInWebhookMode(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Webhook.ListenAddr = ":0"

	srv := NewServer(slog.Default(), cfg, chat.NewStats(), stubAI{}, nil, false)

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, req)

	if rr.Code == http.StatusOK {
		t.Error("POST /webhook reachable in polling mode, want not mounted")
	}
}

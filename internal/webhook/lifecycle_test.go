package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gembot/internal/config"
)

func testLifecycle(cfg *config.WebhookConfig, env map[string]string) *Lifecycle {
	return &Lifecycle{
		logger:     slog.Default(),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Second},
		lookupEnv:  func(key string) string { return env[key] },
	}
}

func TestDetectPublicURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		env     map[string]string
		want    []string
	}{
		{
			name: "No candidates",
			env:  map[string]string{},
			want: nil,
		},
		{
			name:    "Configured base URL wins",
			baseURL: "https://bot.example.com/",
			env:     map[string]string{"CUSTOM_DOMAIN": "other.example.com"},
			want:    []string{"https://bot.example.com", "https://other.example.com"},
		},
		{
			name: "Slug and owner",
			env:  map[string]string{"REPL_SLUG": "mybot", "REPL_OWNER": "Alice"},
			want: []string{"https://mybot.alice.repl.co"},
		},
		{
			name: "Deployment id",
			env:  map[string]string{"REPL_ID": "abc-123"},
			want: []string{"https://abc-123.replit.app"},
		},
		{
			name: "Slug without owner ignored",
			env:  map[string]string{"REPL_SLUG": "mybot"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lc := testLifecycle(&config.WebhookConfig{BaseURL: tt.baseURL}, tt.env)
			got := lc.DetectPublicURLs()
			if len(got) != len(tt.want) {
				t.Fatalf("DetectPublicURLs() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAutoSetup_NoCandidatesFailsFast(t *testing.T) {
	t.Parallel()

	lc := testLifecycle(&config.WebhookConfig{SetupRetries: 3, SetupWait: time.Hour}, nil)
	lc.register = func(ctx context.Context, url string) error {
		t.Error("register called with no candidates")
		return nil
	}

	start := time.Now()
	if lc.AutoSetup(context.Background()) {
		t.Error("AutoSetup() = true, want false")
	}
	if time.Since(start) > time.Second {
		t.Error("AutoSetup() slept despite having no candidates")
	}
}

func TestAutoSetup_RegistersHealthyCandidate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	lc := testLifecycle(&config.WebhookConfig{BaseURL: srv.URL, SetupRetries: 2}, nil)

	var registered string
	lc.register = func(ctx context.Context, url string) error {
		registered = url
		return nil
	}

	if !lc.AutoSetup(context.Background()) {
		t.Fatal("AutoSetup() = false, want true")
	}
	if want := srv.URL + "/webhook"; registered != want {
		t.Errorf("registered URL = %q, want %q", registered, want)
	}
}

func TestAutoSetup_DegradedAIStillRegisters(t *testing.T) {
	t.Parallel()

	// Server liveness is what the probe verifies; the nested AI state must
	// not block registration.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","ai":{"status":"degraded","text_generation":false}}`))
	}))
	defer srv.Close()

	lc := testLifecycle(&config.WebhookConfig{BaseURL: srv.URL, SetupRetries: 1}, nil)

	var registered string
	lc.register = func(ctx context.Context, url string) error {
		registered = url
		return nil
	}

	if !lc.AutoSetup(context.Background()) {
		t.Fatal("AutoSetup() = false for a live server with degraded AI, want true")
	}
	if want := srv.URL + "/webhook"; registered != want {
		t.Errorf("registered URL = %q, want %q", registered, want)
	}
}

func TestAutoSetup_UnhealthyStatusRejected(t *testing.T) {
	t.Parallel()

	// "unhealthy" contains "healthy"; the comparison must be on the decoded
	// field, not a substring.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
	}))
	defer srv.Close()

	lc := testLifecycle(&config.WebhookConfig{BaseURL: srv.URL, SetupRetries: 1}, nil)
	lc.register = func(ctx context.Context, url string) error {
		t.Error("register called for an unhealthy candidate")
		return nil
	}

	if lc.AutoSetup(context.Background()) {
		t.Error("AutoSetup() = true for unhealthy status, want false")
	}
}

func TestAutoSetup_UnhealthyCandidateFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	lc := testLifecycle(&config.WebhookConfig{BaseURL: srv.URL, SetupRetries: 1}, nil)
	lc.register = func(ctx context.Context, url string) error {
		t.Error("register called for unreachable candidate")
		return nil
	}

	if lc.AutoSetup(context.Background()) {
		t.Error("AutoSetup() = true, want false")
	}
}

func TestAutoSetup_FallsThroughOnRegistrationError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	lc := testLifecycle(&config.WebhookConfig{BaseURL: srv.URL, SetupRetries: 1}, nil)
	lc.register = func(ctx context.Context, url string) error {
		return context.DeadlineExceeded
	}

	if lc.AutoSetup(context.Background()) {
		t.Error("AutoSetup() = true when registration failed, want false")
	}
}

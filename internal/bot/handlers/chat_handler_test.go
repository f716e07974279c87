package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gembot/internal/chat"
	"gembot/internal/config"
	"gembot/internal/ratelimit"
)

// fakeTelegramAPI serves just enough of the Bot API for handler tests:
// getMe answers with the bot identity, getFile fails, and every other
// method returns a generic sent message.
func fakeTelegramAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"Bot","username":"mybot"}}`))
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"file not found"}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":200,"date":1700000000,"chat":{"id":55,"type":"private"}}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testDeps(t *testing.T) (HandlerDeps, *chat.Store, *chat.Stats) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Telegram.BotInfo = &models.User{ID: 99, Username: "mybot"}
	cfg.Bot.MaxHistory = 20
	cfg.Bot.ContextMessages = 10
	cfg.Bot.MaxMessageLength = 4096
	cfg.Bot.MaxImageSize = 1 << 20
	cfg.Messages.RateLimited = "slow down"
	cfg.Messages.GeneralError = "something went wrong"
	cfg.Messages.ImageAnalyzing = "analyzing"
	cfg.Messages.ImageInvalid = "bad image"

	stats := chat.NewStats()
	store := chat.NewStore(cfg.Bot.MaxHistory, stats, slog.Default())

	return HandlerDeps{
		Logger:        slog.Default(),
		Config:        cfg,
		Conversations: store,
		Limiter:       ratelimit.New(100, 0),
		Stats:         stats,
	}, store, stats
}

func photoUpdate(chatType models.ChatType) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:    10,
			From:  &models.User{ID: 7, Username: "alice"},
			Chat:  models.Chat{ID: 55, Type: chatType},
			Date:  1700000000,
			Photo: []models.PhotoSize{{FileID: "f1", Width: 100, Height: 100}},
		},
	}
}

func TestChatHandler_FailedPhotoLeavesNoState(t *testing.T) {
	t.Parallel()

	srv := fakeTelegramAPI(t)
	b, err := tgbot.New("123456:testtoken", tgbot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("failed to create bot: %v", err)
	}

	deps, store, stats := testDeps(t)
	handler := NewChatHandler(deps)

	// getFile fails, so the photo never reaches analysis. Nothing may be
	// recorded for it.
	handler(context.Background(), b, photoUpdate(models.ChatTypePrivate))

	if got := store.Len(); got != 0 {
		t.Errorf("conversations = %d after failed photo, want 0", got)
	}
	snap := stats.Snapshot()
	if snap.TotalMessages != 0 {
		t.Errorf("total_messages = %d after failed photo, want 0", snap.TotalMessages)
	}
	if snap.Conversations != 0 {
		t.Errorf("conversations counter = %d after failed photo, want 0", snap.Conversations)
	}
}

func TestChatHandler_SuppressedGroupMessageLeavesNoState(t *testing.T) {
	t.Parallel()

	srv := fakeTelegramAPI(t)
	b, err := tgbot.New("123456:testtoken", tgbot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("failed to create bot: %v", err)
	}

	deps, store, stats := testDeps(t)
	handler := NewChatHandler(deps)

	update := &models.Update{
		ID: 2,
		Message: &models.Message{
			ID:   11,
			From: &models.User{ID: 7, Username: "alice"},
			Chat: models.Chat{ID: 66, Type: models.ChatTypeGroup, Title: "Some Group"},
			Date: 1700000000,
			Text: "nothing addressed to anyone in particular",
		},
	}
	handler(context.Background(), b, update)

	if got := store.Len(); got != 0 {
		t.Errorf("conversations = %d after suppressed message, want 0", got)
	}
	if snap := stats.Snapshot(); snap.TotalMessages != 0 {
		t.Errorf("total_messages = %d after suppressed message, want 0", snap.TotalMessages)
	}
}

func TestContextPrefix_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	ri := replyInfo{
		isReplyToBot: true,
		repliedText:  strings.Repeat("é", 60),
	}

	prefix := contextPrefix(nil, ri)
	if !utf8.ValidString(prefix) {
		t.Fatalf("contextPrefix produced invalid UTF-8: %q", prefix)
	}
	want := "[Reply to: " + strings.Repeat("é", 50) + "...] "
	if prefix != want {
		t.Errorf("contextPrefix = %q, want %q", prefix, want)
	}
}

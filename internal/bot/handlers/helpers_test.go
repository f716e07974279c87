package handlers_test

import (
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"

	"gembot/internal/bot/handlers"
)

func TestShouldRespondInGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		text              string
		chatType          models.ChatType
		isReplyToBot      bool
		isReplyToLastSent bool
		want              bool
	}{
		{"Private chat always responds", "anything at all", models.ChatTypePrivate, false, false, true},
		{"Group without trigger stays silent", "just chatting with friends", models.ChatTypeGroup, false, false, false},
		{"Group with username mention", "hey @mybot what do you think", models.ChatTypeGroup, false, false, true},
		{"Group with generic trigger", "bot, settle this argument", models.ChatTypeGroup, false, false, true},
		{"Supergroup without trigger", "nothing relevant here", models.ChatTypeSupergroup, false, false, false},
		{"Reply to a bot message", "no trigger words", models.ChatTypeGroup, true, false, true},
		{"Reply to last sent message", "no trigger words", models.ChatTypeGroup, false, true, true},
		{"Empty text in group", "", models.ChatTypeGroup, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := handlers.ShouldRespondInGroup(tt.text, tt.chatType, "mybot", tt.isReplyToBot, tt.isReplyToLastSent)
			if got != tt.want {
				t.Errorf("ShouldRespondInGroup(%q, %s) = %v, want %v", tt.text, tt.chatType, got, tt.want)
			}
		})
	}
}

// Minimal but valid headers for content sniffing.
var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0}
	gifHeader  = []byte("GIF89a\x00\x00\x00\x00")
)

func TestValidateImage(t *testing.T) {
	t.Parallel()

	const maxSize = 1 << 20

	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"Valid PNG", pngHeader, ""},
		{"Valid JPEG", jpegHeader, ""},
		{"Valid GIF", gifHeader, ""},
		{"Empty data", nil, "empty"},
		{"Oversized", make([]byte, maxSize+1), "too large"},
		{"Plain text rejected", []byte("definitely not an image, just text"), "unsupported image format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := handlers.ValidateImage(tt.data, maxSize)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateImage() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateImage() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

package textutil_test

import (
	"strings"
	"testing"

	"gembot/internal/textutil"
)

func TestSplit_ShortMessage(t *testing.T) {
	t.Parallel()

	chunks := textutil.Split("hello world", 4096)
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("Split() = %q, want single chunk %q", chunks, "hello world")
	}
}

func TestSplit_Empty(t *testing.T) {
	t.Parallel()

	chunks := textutil.Split("", 4096)
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("Split() = %q, want single empty chunk", chunks)
	}
}

func TestSplit_ParagraphBoundaries(t *testing.T) {
	t.Parallel()

	first := strings.Repeat("a", 60)
	second := strings.Repeat("b", 60)
	text := first + "\n\n" + second

	chunks := textutil.Split(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("Split() produced %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != first || chunks[1] != second {
		t.Errorf("Split() = %q, want paragraphs kept whole", chunks)
	}
}

func TestSplit_GroupsParagraphsThatFit(t *testing.T) {
	t.Parallel()

	text := "one\n\ntwo\n\nthree"
	chunks := textutil.Split(text, 100)
	if len(chunks) != 1 {
		t.Fatalf("Split() produced %d chunks, want 1: %q", len(chunks), chunks)
	}
	if chunks[0] != text {
		t.Errorf("Split() = %q, want %q", chunks[0], text)
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	t.Parallel()

	text := "This is the first sentence. This is the second sentence! Is this the third sentence?"
	chunks := textutil.Split(text, 40)

	for i, c := range chunks {
		if len(c) > 40 {
			t.Errorf("chunk %d exceeds limit: %d bytes", i, len(c))
		}
	}
	joined := strings.Join(chunks, " ")
	for _, want := range []string{"first sentence.", "second sentence!", "third sentence?"} {
		if !strings.Contains(joined, want) {
			t.Errorf("reassembled text missing %q: %q", want, joined)
		}
	}
}

func TestSplit_OversizedWordIsHardSplit(t *testing.T) {
	t.Parallel()

	word := strings.Repeat("x", 250)
	chunks := textutil.Split(word, 100)

	if len(chunks) != 3 {
		t.Fatalf("Split() produced %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d exceeds limit: %d bytes", i, len(c))
		}
	}
	if strings.Join(chunks, "") != word {
		t.Error("hard split lost content")
	}
}

func TestSplit_NeverExceedsLimit(t *testing.T) {
	t.Parallel()

	inputs := []string{
		strings.Repeat("word ", 500),
		strings.Repeat("One sentence here. ", 80),
		strings.Repeat("para\n\n", 100),
		strings.Repeat("z", 5000),
		"mixed " + strings.Repeat("q", 300) + " tail.\n\nNext paragraph with more words than fit on one line for sure.",
	}

	for _, maxLen := range []int{64, 128, 4096} {
		for _, input := range inputs {
			for i, c := range textutil.Split(input, maxLen) {
				if len(c) > maxLen {
					t.Errorf("maxLen=%d chunk %d has %d bytes", maxLen, i, len(c))
				}
			}
		}
	}
}

func TestIsBotMentioned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		username string
		want     bool
	}{
		{"Direct mention", "hello @mybot how are you", "mybot", true},
		{"No mention", "hello there everyone", "mybot", false},
		{"Bare username word", "mybot can you help", "mybot", true},
		{"Generic bot trigger", "hey bot, what time is it?", "mybot", true},
		{"Generic ai trigger", "ai, summarize this", "mybot", true},
		{"Generic assistant trigger", "Assistant: do the thing", "mybot", true},
		{"Trigger inside word ignored", "maintain the brain", "mybot", false},
		{"Case insensitive mention", "Hello @MyBot", "mybot", true},
		{"Empty text", "", "mybot", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := textutil.IsBotMentioned(tt.text, tt.username)
			if got != tt.want {
				t.Errorf("IsBotMentioned(%q, %q) = %v, want %v", tt.text, tt.username, got, tt.want)
			}
		})
	}
}

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		cmd  string
		want string
	}{
		{"Plain command with args", "/image a red fox", "image", "a red fox"},
		{"Command with bot suffix", "/image@mybot a red fox", "image", "a red fox"},
		{"No args", "/image", "image", ""},
		{"Trailing whitespace", "/image   ", "image", ""},
		{"Not the command", "hello /image fox", "image", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := textutil.ExtractCommandArgs(tt.text, tt.cmd)
			if got != tt.want {
				t.Errorf("ExtractCommandArgs(%q, %q) = %q, want %q", tt.text, tt.cmd, got, tt.want)
			}
		})
	}
}

// Package textutil provides text helpers for outbound message segmentation
// and inbound mention detection.
package textutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// Split breaks text into ordered chunks of at most maxLen bytes. Whole text
// that fits is returned as a single chunk. Splits happen preferentially at
// paragraph boundaries, then sentence boundaries, then word boundaries. A
// single word longer than maxLen is hard-split at rune boundaries so the
// length bound always holds. Chunks are trimmed of surrounding whitespace.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = 4096
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	cur := ""

	flush := func() {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			parts = append(parts, trimmed)
		}
		cur = ""
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		if len(cur)+len(paragraph)+2 <= maxLen {
			if cur != "" {
				cur += "\n\n" + paragraph
			} else {
				cur = paragraph
			}
			continue
		}

		flush()

		if len(paragraph) <= maxLen {
			cur = paragraph
			continue
		}

		for _, sentence := range splitSentences(paragraph) {
			if len(sentence) > maxLen {
				for _, word := range strings.Fields(sentence) {
					parts, cur = appendWord(parts, cur, word, maxLen)
				}
				continue
			}
			if len(cur)+len(sentence)+1 > maxLen {
				flush()
			}
			if cur != "" {
				cur += " " + sentence
			} else {
				cur = sentence
			}
		}
	}

	flush()
	return parts
}

// splitSentences cuts text after terminal punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	bounds := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, b := range bounds {
		// Cut after the punctuation run, before the whitespace.
		end := b[0]
		for end < b[1] && !unicode.IsSpace(rune(text[end])) {
			end++
		}
		sentences = append(sentences, text[start:end])
		start = b[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func appendWord(parts []string, cur, word string, maxLen int) ([]string, string) {
	if len(word) > maxLen {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			parts = append(parts, trimmed)
		}
		pieces := chunkRunes(word, maxLen)
		parts = append(parts, pieces[:len(pieces)-1]...)
		return parts, pieces[len(pieces)-1]
	}

	if len(cur)+len(word)+1 > maxLen {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			parts = append(parts, trimmed)
		}
		return parts, word
	}

	if cur != "" {
		return parts, cur + " " + word
	}
	return parts, word
}

// chunkRunes splits s into pieces of at most maxLen bytes without breaking
// UTF-8 sequences.
func chunkRunes(s string, maxLen int) []string {
	var pieces []string
	cur := ""
	for _, r := range s {
		if len(cur)+len(string(r)) > maxLen {
			pieces = append(pieces, cur)
			cur = ""
		}
		cur += string(r)
	}
	if cur != "" {
		pieces = append(pieces, cur)
	}
	return pieces
}

// Generic trigger words that address the bot in a group without an explicit
// @username mention.
var genericTriggers = map[string]struct{}{
	"bot":       {},
	"ai":        {},
	"assistant": {},
}

// IsBotMentioned reports whether the text addresses the bot, either by
// @username mention or by a generic trigger word. Matching is per word with
// surrounding punctuation stripped, case-insensitive.
func IsBotMentioned(text, botUsername string) bool {
	if text == "" {
		return false
	}

	lower := strings.ToLower(text)
	username := strings.ToLower(botUsername)

	if username != "" && strings.Contains(lower, "@"+username) {
		return true
	}

	for _, w := range strings.Fields(lower) {
		stripped := strings.TrimFunc(w, unicode.IsPunct)
		if stripped == "" {
			continue
		}
		if username != "" && stripped == username {
			return true
		}
		if _, ok := genericTriggers[stripped]; ok {
			return true
		}
	}
	return false
}

// ExtractCommandArgs returns the argument portion of a command message,
// tolerating the /command@botname form used in groups.
func ExtractCommandArgs(text, command string) string {
	re := regexp.MustCompile(`(?i)^/` + regexp.QuoteMeta(command) + `(?:@\S+)?\s*(.*)$`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// FormatUptime renders the elapsed time since start as "1d 2h 3m".
func FormatUptime(start time.Time) string {
	up := time.Since(start)
	days := int(up.Hours()) / 24
	hours := int(up.Hours()) % 24
	minutes := int(up.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
)

// Store owns all per-chat conversations. It is constructed once at startup
// and injected into every handler; access is serialized by a single mutex
// since per-chat contention is low.
type Store struct {
	mu            sync.Mutex
	conversations map[int64]*Conversation
	maxHistory    int
	stats         *Stats
	logger        *slog.Logger

	now func() time.Time
}

// NewStore creates a conversation store bounding each history to maxHistory
// messages. The Stats counters are shared with the rest of the application.
func NewStore(maxHistory int, stats *Stats, logger *slog.Logger) *Store {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		conversations: make(map[int64]*Conversation),
		maxHistory:    maxHistory,
		stats:         stats,
		logger:        logger.With("component", "chat_store"),
		now:           time.Now,
	}
}

// GetOrCreate returns the conversation for chatID, creating it on first use.
// GroupInfo is attached only when the chat is a group or supergroup and a
// title is known, and the conversation/group counters are incremented exactly
// once per chat ID. Idempotent for existing chats.
func (s *Store) GetOrCreate(chatID int64, chatType models.ChatType, title string, memberCount int) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(chatID, chatType, title, memberCount)
}

func (s *Store) getOrCreateLocked(chatID int64, chatType models.ChatType, title string, memberCount int) *Conversation {
	if conv, ok := s.conversations[chatID]; ok {
		return conv
	}

	now := s.now()
	conv := &Conversation{
		ChatID:      chatID,
		ChatType:    chatType,
		CreatedAt:   now,
		LastUpdated: now,
	}

	if (chatType == models.ChatTypeGroup || chatType == models.ChatTypeSupergroup) && title != "" {
		conv.GroupInfo = &GroupInfo{
			GroupID:     chatID,
			GroupName:   title,
			GroupType:   chatType,
			MemberCount: memberCount,
			JoinedAt:    now,
		}
		s.stats.groups.Add(1)
		s.logger.Info("Joined group", "chat_id", chatID, "title", title, "chat_type", chatType)
	}

	s.conversations[chatID] = conv
	s.stats.conversations.Add(1)
	return conv
}

// Append records a message in the chat's history, evicting the oldest
// entries so the history never exceeds the configured maximum.
func (s *Store) Append(chatID int64, chatType models.ChatType, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreateLocked(chatID, chatType, "", 0)
	conv.Messages = append(conv.Messages, msg)
	if len(conv.Messages) > s.maxHistory {
		conv.Messages = conv.Messages[len(conv.Messages)-s.maxHistory:]
	}
	conv.LastUpdated = s.now()
}

// ContextWindow returns up to maxMessages of the most recent text and
// command entries, mapped to role/content pairs for the AI call. Photo and
// generated-image entries are skipped. Every entry, including prior bot
// replies, is given the "user" role; the AI prompt relies on this uniform
// framing, so keep it when touching this code.
func (s *Store) ContextWindow(chatID int64, maxMessages int) []ContextEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[chatID]
	if !ok || maxMessages <= 0 {
		return nil
	}

	recent := conv.Messages
	if len(recent) > maxMessages {
		recent = recent[len(recent)-maxMessages:]
	}

	entries := make([]ContextEntry, 0, len(recent))
	for _, m := range recent {
		if m.Kind != KindText && m.Kind != KindCommand {
			continue
		}
		entries = append(entries, ContextEntry{Role: "user", Content: m.Text})
	}
	return entries
}

// Clear empties the chat's message history. The conversation itself and any
// attached GroupInfo survive.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[chatID]
	if !ok {
		return
	}
	conv.Messages = nil
	conv.LastUpdated = s.now()
}

// TrackBotMessage records the ID of the bot's latest outbound message in the
// chat, consulted by the group reply rule.
func (s *Store) TrackBotMessage(chatID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[chatID]; ok {
		conv.lastBotMessageID = messageID
	}
}

// LastBotMessage returns the ID of the bot's most recent message in the
// chat, or zero when none has been sent.
func (s *Store) LastBotMessage(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[chatID]; ok {
		return conv.lastBotMessageID
	}
	return 0
}

// GroupInfoFor returns a copy of the chat's group metadata, if any.
func (s *Store) GroupInfoFor(chatID int64) *GroupInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[chatID]
	if !ok || conv.GroupInfo == nil {
		return nil
	}
	gi := *conv.GroupInfo
	return &gi
}

// Len reports the number of live conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// HistoryLen reports the number of stored messages for a chat.
func (s *Store) HistoryLen(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[chatID]; ok {
		return len(conv.Messages)
	}
	return 0
}

// SweepIdle removes conversations whose last update is older than maxAge and
// returns how many were evicted. Group and conversation counters are not
// decremented; they count lifetime totals, not live entries.
func (s *Store) SweepIdle(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for chatID, conv := range s.conversations {
		if conv.LastUpdated.Before(cutoff) {
			delete(s.conversations, chatID)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Swept idle conversations", "removed", removed, "remaining", len(s.conversations))
	}
	return removed
}

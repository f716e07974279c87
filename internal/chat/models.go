// Package chat holds the in-memory conversation state for the bot: per-chat
// bounded message histories, group metadata, and process-wide counters.
// All state is process-local and lost on restart.
package chat

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// MessageKind classifies a conversation entry.
type MessageKind string

const (
	KindText           MessageKind = "text"
	KindPhoto          MessageKind = "photo"
	KindCommand        MessageKind = "command"
	KindGeneratedImage MessageKind = "generated_image"
)

// BotUserID is the sentinel sender identity recorded for the bot's own
// replies in a conversation.
const BotUserID int64 = 0

// Message is one immutable entry in a conversation history.
type Message struct {
	UserID           int64
	ChatID           int64
	MessageID        int
	Text             string
	Kind             MessageKind
	Timestamp        time.Time
	Username         string
	ReplyToMessageID int
	IsReplyToBot     bool
}

// GroupInfo holds metadata about a group chat, captured when the
// conversation is first created.
type GroupInfo struct {
	GroupID     int64
	GroupName   string
	GroupType   models.ChatType
	MemberCount int
	JoinedAt    time.Time
}

// Conversation is the bounded, ordered message history for a single chat.
// It is owned by the Store; callers must not retain references to its
// Messages slice across Store calls.
type Conversation struct {
	ChatID      int64
	ChatType    models.ChatType
	Messages    []Message
	GroupInfo   *GroupInfo
	CreatedAt   time.Time
	LastUpdated time.Time

	// lastBotMessageID is the ID of the most recent message the bot sent
	// in this chat, used by the group reply rule.
	lastBotMessageID int
}

// ContextEntry is one role/content pair handed to the AI client.
type ContextEntry struct {
	Role    string
	Content string
}

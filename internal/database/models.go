package database

import "time"

// ArchivedMessage is one row of the durable message log. It mirrors the
// in-memory conversation entry but survives restarts for auditing and the
// health surface.
type ArchivedMessage struct {
	ID        uint      `db:"id"`
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Kind      string    `db:"kind"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
	CreatedAt time.Time `db:"created_at"`
}

package database

import (
	"database/sql"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
)

// Task represents a to-do item owned by a single user. The owner is an opaque
// user identifier (the chat user id as text) so the store stays agnostic of
// the transport.
type Task struct {
	ID        int64  `db:"id"`
	UserID    string `db:"user_id"`
	Text      string `db:"text"`
	Done      bool   `db:"done"`
	CreatedAt string `db:"created_at"`
}

// Reminder represents a scheduled notification, optionally linked to a task
// of the same owner.
//
// RemindAt holds the fire instant in its canonical textual form; parsing is
// deferred to the scheduler so that malformed rows discovered at reconcile
// time can be self-healed instead of breaking reads. Sent is terminal for
// non-recurring reminders; recurring reminders roll RemindAt forward on each
// firing and keep Sent false.
type Reminder struct {
	ID       int64          `db:"id"`
	UserID   string         `db:"user_id"`
	TaskID   sql.NullInt64  `db:"task_id"`
	RemindAt string         `db:"remind_at"`
	Sent     bool           `db:"sent"`
	Repeat   sql.NullString `db:"repeat"`
}

// Recurrence returns the reminder's recurrence rule, treating an absent or
// unknown repeat value as none.
func (r *Reminder) Recurrence() clock.Recurrence {
	if !r.Repeat.Valid {
		return clock.RecurrenceNone
	}
	rec, ok := clock.ParseRecurrence(r.Repeat.String)
	if !ok {
		return clock.RecurrenceNone
	}
	return rec
}

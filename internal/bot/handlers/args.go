package handlers

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
)

// commandArgs splits a command message into its arguments, dropping the
// command token itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// reminderRequest is the parsed form of the /addreminder arguments.
type reminderRequest struct {
	remindAt string // normalized canonical form
	taskID   sql.NullInt64
	repeat   clock.Recurrence
}

// parseReminderArgs parses "/addreminder <YYYY-MM-DD HH:MM> [<task_id>] [daily|weekly]".
// The date and time may arrive as two separate arguments (the user typed a
// space); optional trailing arguments are a task id and/or a recurrence
// keyword in any order. The date/time is validated via clock.Parse, so an
// unparsable instant returns an error wrapping clock.ErrInvalidFormat and
// nothing is created.
func parseReminderArgs(args []string) (reminderRequest, error) {
	var req reminderRequest

	if len(args) == 0 {
		return req, fmt.Errorf("%w: missing date", clock.ErrInvalidFormat)
	}

	raw := args[0]
	rest := args[1:]

	// "2025-11-30 17:30" arrives as two tokens; glue them back together.
	if len(rest) > 0 && strings.Contains(rest[0], ":") {
		raw = raw + "T" + rest[0]
		rest = rest[1:]
	}

	for _, tok := range rest {
		if rec, ok := clock.ParseRecurrence(tok); ok {
			req.repeat = rec
			continue
		}
		if id, err := strconv.ParseInt(tok, 10, 64); err == nil && !req.taskID.Valid {
			req.taskID = sql.NullInt64{Int64: id, Valid: true}
			continue
		}
		return req, fmt.Errorf("%w: unexpected argument %q", clock.ErrInvalidFormat, tok)
	}

	parsed, err := clock.Parse(raw)
	if err != nil {
		return req, err
	}
	req.remindAt = clock.Format(parsed)
	return req, nil
}

// Package clock normalizes user-supplied date/time text into absolute instants
// and computes the delays and recurrence advances the reminder scheduler needs.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFormat indicates that a date/time string could not be parsed.
// It is the only scheduling error surfaced back to the user.
var ErrInvalidFormat = errors.New("invalid date/time format")

// MinDelay is the floor applied to delays of reminders that are already due.
// An overdue reminder fires near-immediately instead of being dropped.
const MinDelay = time.Second

// Recurrence describes how a reminder repeats after firing.
type Recurrence string

const (
	RecurrenceNone   Recurrence = ""
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// ParseRecurrence maps a user-supplied token to a Recurrence.
// Returns false if the token is not a known recurrence keyword.
func ParseRecurrence(token string) (Recurrence, bool) {
	switch strings.ToLower(token) {
	case string(RecurrenceDaily):
		return RecurrenceDaily, true
	case string(RecurrenceWeekly):
		return RecurrenceWeekly, true
	default:
		return RecurrenceNone, false
	}
}

// Accepted layouts, tried in order. Input is normalized first (space separator
// becomes 'T'), so only 'T'-separated layouts are listed. Layouts without an
// explicit offset are interpreted as UTC.
var layouts = []string{
	time.RFC3339,          // 2025-01-01T10:00:00Z / +02:00
	"2006-01-02T15:04:05", // seconds, no offset
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04", // canonical minute precision
}

// Parse converts text in the canonical form "YYYY-MM-DDTHH:MM" into an absolute
// instant. A literal space between date and time is accepted and normalized to
// 'T'; seconds and an explicit offset are optional. When no offset is present
// the instant is interpreted as UTC. Failures wrap ErrInvalidFormat.
func Parse(raw string) (time.Time, error) {
	s := strings.Replace(strings.TrimSpace(raw), " ", "T", 1)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
}

// Format renders an instant in the canonical textual form used in storage.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Delay returns how long to wait until target, measured from now. Targets in
// the past (or exactly now) yield MinDelay so the caller schedules immediate
// firing rather than rejecting the reminder.
func Delay(target, now time.Time) time.Duration {
	d := target.Sub(now)
	if d <= 0 {
		return MinDelay
	}
	return d
}

// NextOccurrence advances an instant by one recurrence interval. Advancement is
// a fixed duration: no calendar-aware month or DST adjustment.
func NextOccurrence(current time.Time, r Recurrence) (time.Time, error) {
	switch r {
	case RecurrenceDaily:
		return current.Add(24 * time.Hour), nil
	case RecurrenceWeekly:
		return current.Add(7 * 24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("no next occurrence for recurrence %q", r)
	}
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
)

// fire executes the side effect of a single reminder's due moment: compose the
// notification text, send it best-effort, then transition the reminder's
// state. Every failure inside this path is contained locally; nothing
// propagates to crash the scheduling loop or block other reminders.
//
// Within one reminder the steps are strictly sequential: send, persist the
// state change, then optionally re-arm. Never deletes a reminder.
func (s *Scheduler) fire(rem database.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	log := s.logger.With("reminder_id", rem.ID, "user_id", rem.UserID)
	log.InfoContext(ctx, "Firing reminder", "remind_at", rem.RemindAt)

	// The one-shot job has run; forget its handle so a re-arm below starts clean.
	s.Cancel(rem.ID)

	text := s.composeText(ctx, &rem)

	// Best-effort delivery, at-most-once. A transport failure must not prevent
	// the state transition: there is no retry queue, so blocking here would
	// only stall forward progress.
	if err := s.notifier.Send(ctx, rem.UserID, text); err != nil {
		log.WarnContext(ctx, "Failed to send reminder notification, continuing", "error", err)
	}

	s.transition(ctx, &rem)
}

// composeText resolves the notification text for a reminder. A linked task
// that no longer exists degrades to a placeholder rather than failing.
func (s *Scheduler) composeText(ctx context.Context, rem *database.Reminder) string {
	if !rem.TaskID.Valid {
		return s.msgs.Generic
	}

	task, err := s.store.GetTask(ctx, rem.UserID, rem.TaskID.Int64)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.WarnContext(ctx, "Task lookup failed at firing time, using placeholder",
				"reminder_id", rem.ID, "task_id", rem.TaskID.Int64, "error", err)
		}
		return fmt.Sprintf(s.msgs.TaskReminder, s.msgs.TaskDeleted)
	}
	return fmt.Sprintf(s.msgs.TaskReminder, task.Text)
}

// transition decides the reminder's resulting state after a firing:
// non-recurring reminders become terminal (sent = true); recurring ones roll
// remind_at forward one interval and are re-armed. Any failure while advancing
// a recurring reminder falls back to marking it sent, guaranteeing no
// infinite retry loop.
func (s *Scheduler) transition(ctx context.Context, rem *database.Reminder) {
	log := s.logger.With("reminder_id", rem.ID)

	recurrence := rem.Recurrence()
	if recurrence == clock.RecurrenceNone {
		if err := s.store.MarkReminderSent(ctx, rem.ID); err != nil {
			log.ErrorContext(ctx, "Failed to mark reminder sent", "error", err)
		}
		return
	}

	next, err := s.nextFireTime(rem, recurrence)
	if err != nil {
		// Fail-safe termination: a recurring reminder that cannot be advanced
		// is marked sent rather than retried forever.
		log.WarnContext(ctx, "Failed to compute next occurrence, terminating recurring reminder",
			"remind_at", rem.RemindAt, "error", err)
		if markErr := s.store.MarkReminderSent(ctx, rem.ID); markErr != nil {
			log.ErrorContext(ctx, "Failed to mark reminder sent after recurrence failure", "error", markErr)
		}
		return
	}

	changed, err := s.store.RescheduleReminder(ctx, rem.ID, clock.Format(next))
	if err != nil {
		log.ErrorContext(ctx, "Failed to persist next occurrence", "error", err)
		return
	}
	if !changed {
		// Row deleted while this firing was in flight: do not re-arm.
		log.InfoContext(ctx, "Reminder deleted during firing, not re-arming")
		return
	}

	rem.RemindAt = clock.Format(next)
	now := time.Now().UTC()
	s.arm(*rem, now.Add(clock.Delay(next, now)))
	log.InfoContext(ctx, "Recurring reminder re-armed", "next", rem.RemindAt, "recurrence", recurrence)
}

// nextFireTime parses the stored fire instant and advances it one interval.
func (s *Scheduler) nextFireTime(rem *database.Reminder, recurrence clock.Recurrence) (time.Time, error) {
	current, err := clock.Parse(rem.RemindAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored remind_at unparsable: %w", err)
	}
	return clock.NextOccurrence(current, recurrence)
}

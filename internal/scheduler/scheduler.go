// Package scheduler maintains the live set of reminder timers and fires due
// reminders. It holds no authoritative state of its own: timers are a derived,
// rebuildable view over the store rows with sent = false, re-derived by
// Reconcile at startup, after every reminder creation, and by the periodic
// safety sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
)

// Notifier is the outbound notification capability the firing engine needs.
// Implementations deliver text to the owner identified by userID; delivery is
// best-effort and failures are observed by the caller, never retried here.
type Notifier interface {
	Send(ctx context.Context, userID string, text string) error
}

// Messages holds the notification texts composed at firing time.
type Messages struct {
	TaskReminder string // format string, receives the linked task's text
	TaskDeleted  string // substituted task text when the linked task is gone
	Generic      string // used for reminders with no linked task
}

// DefaultMessages returns the built-in notification texts.
func DefaultMessages() Messages {
	return Messages{
		TaskReminder: "⏰ Reminder: %s",
		TaskDeleted:  "(deleted task)",
		Generic:      "⏰ Scheduled reminder.",
	}
}

// fireTimeout bounds a single firing: task lookup, send, state transition.
const fireTimeout = 30 * time.Second

// Scheduler arms one gocron one-time job per pending reminder and re-arms
// recurring reminders after each firing. At most one timer exists per reminder
// id; arming supersedes any prior timer for that id.
type Scheduler struct {
	logger   *slog.Logger
	store    database.Store
	notifier Notifier
	msgs     Messages
	sched    gocron.Scheduler

	mu      sync.Mutex
	armed   map[int64]gocron.Job
	running bool
}

// New creates a Scheduler. Timers are not armed until Reconcile is called and
// do not tick until Start.
func New(logger *slog.Logger, store database.Store, notifier Notifier, msgs Messages) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if msgs == (Messages{}) {
		msgs = DefaultMessages()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		logger:   logger.With("component", "scheduler"),
		store:    store,
		notifier: notifier,
		msgs:     msgs,
		sched:    s,
		armed:    make(map[int64]gocron.Job),
	}, nil
}

// Start begins the scheduler's internal ticking. Jobs armed before Start fire
// once it runs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.sched.Start()
	s.running = true
	s.logger.Info("Scheduler started", "armed", len(s.armed))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running firings to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	err := s.sched.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}

// Reconcile re-derives the timer set from every reminder with sent = false.
// Rows whose remind_at cannot be parsed are force-marked sent so they are
// never retried; all other pending rows get a timer armed at their due
// instant (overdue rows fire after the minimum delay). Timers for ids no
// longer pending are disarmed. Safe to call repeatedly; per-row failures are
// contained and never abort the pass.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	pending, err := s.store.PendingReminders(ctx)
	if err != nil {
		return fmt.Errorf("reconcile failed to load pending reminders: %w", err)
	}

	now := time.Now().UTC()
	armedCount := 0
	healedCount := 0
	keep := make(map[int64]bool, len(pending))

	for _, rem := range pending {
		fireAt, err := clock.Parse(rem.RemindAt)
		if err != nil {
			// Malformed row: mark it sent so it never blocks the pool.
			s.logger.WarnContext(ctx, "Reminder has unparsable remind_at, marking sent",
				"reminder_id", rem.ID, "remind_at", rem.RemindAt, "error", err)
			if markErr := s.store.MarkReminderSent(ctx, rem.ID); markErr != nil {
				s.logger.ErrorContext(ctx, "Failed to mark malformed reminder sent",
					"reminder_id", rem.ID, "error", markErr)
			}
			healedCount++
			continue
		}

		keep[rem.ID] = true
		s.arm(rem, now.Add(clock.Delay(fireAt, now)))
		armedCount++
	}

	s.disarmExcept(keep)

	s.logger.InfoContext(ctx, "Reconcile complete",
		"pending", len(pending), "armed", armedCount, "healed", healedCount)
	return nil
}

// Cancel disarms any timer for the given reminder id. Called after a user
// deletes a reminder; a firing already in flight degrades via the store's
// no-resurrection semantics instead.
func (s *Scheduler) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked(id)
}

// ArmedCount returns the number of currently armed timers.
func (s *Scheduler) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// arm schedules a one-time firing for the reminder at the given instant,
// superseding any timer already armed for its id.
func (s *Scheduler) arm(rem database.Reminder, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disarmLocked(rem.ID)

	job, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(s.fire, rem),
		gocron.WithName(fmt.Sprintf("reminder-%d", rem.ID)),
	)
	if err != nil {
		s.logger.Error("Failed to arm reminder timer",
			"reminder_id", rem.ID, "fire_at", at, "error", err)
		return
	}

	s.armed[rem.ID] = job
	s.logger.Debug("Armed reminder timer", "reminder_id", rem.ID, "fire_at", at)
}

func (s *Scheduler) disarmLocked(id int64) {
	if job, ok := s.armed[id]; ok {
		if err := s.sched.RemoveJob(job.ID()); err != nil {
			s.logger.Debug("Failed to remove timer job", "reminder_id", id, "error", err)
		}
		delete(s.armed, id)
	}
}

// disarmExcept removes armed timers whose ids are not in keep. This is how a
// deletion that raced an earlier arm is observed by the next reconcile.
func (s *Scheduler) disarmExcept(keep map[int64]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.armed {
		if !keep[id] {
			s.disarmLocked(id)
		}
	}
}

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
)

// fakeStore is an in-memory database.Store for scheduler tests.
type fakeStore struct {
	mu        sync.Mutex
	tasks     map[int64]database.Task
	reminders map[int64]database.Reminder

	failPending    bool
	failReschedule bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:     make(map[int64]database.Task),
		reminders: make(map[int64]database.Reminder),
	}
}

func (f *fakeStore) putReminder(rem database.Reminder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[rem.ID] = rem
}

func (f *fakeStore) reminder(t *testing.T, id int64) database.Reminder {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	rem, ok := f.reminders[id]
	if !ok {
		t.Fatalf("reminder %d not in store", id)
	}
	return rem
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) SaveTask(_ context.Context, task *database.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeStore) ListTasks(context.Context, string) ([]database.Task, error) { return nil, nil }

func (f *fakeStore) GetTask(_ context.Context, userID string, taskID int64) (*database.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, fmt.Errorf("task %d: %w", taskID, database.ErrNotFound)
	}
	return &task, nil
}

func (f *fakeStore) UpdateTaskText(context.Context, string, int64, string) (bool, error) {
	return false, nil
}

func (f *fakeStore) SetTaskDone(context.Context, string, int64, bool) (bool, error) {
	return false, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, _ string, taskID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, taskID)
	return true, nil
}

func (f *fakeStore) SaveReminder(_ context.Context, rem *database.Reminder) error {
	f.putReminder(*rem)
	return nil
}

func (f *fakeStore) ListReminders(context.Context, string) ([]database.Reminder, error) {
	return nil, nil
}

func (f *fakeStore) PendingReminders(context.Context) ([]database.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPending {
		return nil, errors.New("pending query failed")
	}
	var out []database.Reminder
	for _, rem := range f.reminders {
		if !rem.Sent {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (f *fakeStore) GetReminder(_ context.Context, id int64) (*database.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rem, ok := f.reminders[id]
	if !ok {
		return nil, fmt.Errorf("reminder %d: %w", id, database.ErrNotFound)
	}
	return &rem, nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rem, ok := f.reminders[id]; ok {
		rem.Sent = true
		f.reminders[id] = rem
	}
	return nil
}

func (f *fakeStore) RescheduleReminder(_ context.Context, id int64, remindAt string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReschedule {
		return false, errors.New("reschedule failed")
	}
	rem, ok := f.reminders[id]
	if !ok {
		return false, nil
	}
	rem.RemindAt = remindAt
	rem.Sent = false
	f.reminders[id] = rem
	return true, nil
}

func (f *fakeStore) DeleteReminder(_ context.Context, userID string, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rem, ok := f.reminders[id]
	if !ok || rem.UserID != userID {
		return false, nil
	}
	delete(f.reminders, id)
	return true, nil
}

func (f *fakeStore) GetStats(context.Context) (*database.Stats, error) { return &database.Stats{}, nil }

func (f *fakeStore) RunMaintenance(context.Context) error { return nil }

// fakeNotifier records sent notifications and can simulate transport failure.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	notif chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notif: make(chan string, 16)}
}

func (n *fakeNotifier) Send(_ context.Context, userID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("transport down")
	}
	n.sent = append(n.sent, userID+": "+text)
	select {
	case n.notif <- text:
	default:
	}
	return nil
}

func (n *fakeNotifier) lastSent(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no notification sent")
	}
	return n.sent[len(n.sent)-1]
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newTestScheduler(t *testing.T, store database.Store, notifier Notifier) *Scheduler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(log, store, notifier, Messages{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		_ = s.sched.Shutdown()
	})
	return s
}

func nullTask(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

func TestFireNonRecurringBecomesTerminal(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	rem := database.Reminder{ID: 1, UserID: "42", RemindAt: "2025-01-01T10:00"}
	store.putReminder(rem)

	s.fire(rem)

	if got := notifier.lastSent(t); !strings.Contains(got, s.msgs.Generic) {
		t.Errorf("notification = %q, want generic text %q", got, s.msgs.Generic)
	}
	if !store.reminder(t, 1).Sent {
		t.Error("non-recurring reminder not marked sent after firing")
	}
	if s.ArmedCount() != 0 {
		t.Errorf("armed count = %d, want 0", s.ArmedCount())
	}

	// A later reconcile must not re-arm a terminal reminder.
	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if s.ArmedCount() != 0 {
		t.Errorf("reconcile re-armed a sent reminder, armed count = %d", s.ArmedCount())
	}
}

func TestFireResolvesLinkedTaskText(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	if err := store.SaveTask(context.Background(), &database.Task{ID: 7, UserID: "42", Text: "Buy milk"}); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}
	rem := database.Reminder{ID: 1, UserID: "42", TaskID: nullTask(7), RemindAt: "2025-01-01T08:00"}
	store.putReminder(rem)

	s.fire(rem)

	if got := notifier.lastSent(t); !strings.Contains(got, "Buy milk") {
		t.Errorf("notification = %q, want task text embedded", got)
	}
}

func TestFireDeletedTaskDegradesToPlaceholder(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	// Task 9 never existed (or was deleted); the reminder still fires.
	rem := database.Reminder{
		ID: 1, UserID: "42", TaskID: nullTask(9),
		RemindAt: "2025-01-01T08:00",
		Repeat:   sql.NullString{String: "daily", Valid: true},
	}
	store.putReminder(rem)

	s.fire(rem)

	if got := notifier.lastSent(t); !strings.Contains(got, s.msgs.TaskDeleted) {
		t.Errorf("notification = %q, want placeholder %q", got, s.msgs.TaskDeleted)
	}

	// Degraded text must not break recurrence: remind_at still advances.
	after := store.reminder(t, 1)
	if after.Sent {
		t.Error("recurring reminder marked sent after firing")
	}
	want := clock.Format(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC))
	if after.RemindAt != want {
		t.Errorf("remind_at = %q, want %q", after.RemindAt, want)
	}
}

func TestFireRecurringAdvancesExactly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		repeat   string
		fires    int
		interval time.Duration
	}{
		{"daily once", "daily", 1, 24 * time.Hour},
		{"daily three times", "daily", 3, 24 * time.Hour},
		{"weekly once", "weekly", 1, 168 * time.Hour},
		{"weekly twice", "weekly", 2, 168 * time.Hour},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			notifier := newFakeNotifier()
			s := newTestScheduler(t, store, notifier)

			start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
			store.putReminder(database.Reminder{
				ID: 1, UserID: "42",
				RemindAt: "2025-01-01T08:00",
				Repeat:   sql.NullString{String: tc.repeat, Valid: true},
			})

			for i := 0; i < tc.fires; i++ {
				s.fire(store.reminder(t, 1))
			}

			after := store.reminder(t, 1)
			if after.Sent {
				t.Error("recurring reminder must never be marked sent by normal firing")
			}
			want := clock.Format(start.Add(time.Duration(tc.fires) * tc.interval))
			if after.RemindAt != want {
				t.Errorf("after %d firings remind_at = %q, want %q", tc.fires, after.RemindAt, want)
			}
			if notifier.sentCount() != tc.fires {
				t.Errorf("sent %d notifications, want %d", notifier.sentCount(), tc.fires)
			}
			if s.ArmedCount() != 1 {
				t.Errorf("armed count = %d, want 1 (re-armed)", s.ArmedCount())
			}
		})
	}
}

func TestFireSendFailureStillTransitions(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	notifier.fail = true
	s := newTestScheduler(t, store, notifier)

	rem := database.Reminder{ID: 1, UserID: "42", RemindAt: "2025-01-01T10:00"}
	store.putReminder(rem)

	s.fire(rem)

	if !store.reminder(t, 1).Sent {
		t.Error("send failure prevented the state transition")
	}
}

func TestFireDeletedReminderIsNotResurrected(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	rem := database.Reminder{
		ID: 1, UserID: "42",
		RemindAt: "2025-01-01T08:00",
		Repeat:   sql.NullString{String: "daily", Valid: true},
	}
	store.putReminder(rem)

	// User deletes the reminder while the firing is in flight.
	if _, err := store.DeleteReminder(context.Background(), "42", 1); err != nil {
		t.Fatalf("DeleteReminder failed: %v", err)
	}

	s.fire(rem)

	store.mu.Lock()
	_, exists := store.reminders[1]
	store.mu.Unlock()
	if exists {
		t.Error("firing resurrected a deleted reminder row")
	}
	if s.ArmedCount() != 0 {
		t.Errorf("armed count = %d, want 0 after deleted-row firing", s.ArmedCount())
	}
}

func TestFireRecurringRescheduleErrorLeavesRowAlone(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failReschedule = true
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	rem := database.Reminder{
		ID: 1, UserID: "42",
		RemindAt: "2025-01-01T08:00",
		Repeat:   sql.NullString{String: "weekly", Valid: true},
	}
	store.putReminder(rem)

	s.fire(rem)

	after := store.reminder(t, 1)
	if after.RemindAt != "2025-01-01T08:00" {
		t.Errorf("remind_at changed despite reschedule error: %q", after.RemindAt)
	}
	if s.ArmedCount() != 0 {
		t.Error("re-armed despite failed persistence")
	}
}

func TestFireRecurringUnparsableTimeTerminates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	// Recurrence advance cannot parse the stored instant: fail-safe terminate.
	rem := database.Reminder{
		ID: 1, UserID: "42",
		RemindAt: "not-a-date",
		Repeat:   sql.NullString{String: "daily", Valid: true},
	}
	store.putReminder(rem)

	s.fire(rem)

	if !store.reminder(t, 1).Sent {
		t.Error("recurring reminder with unparsable remind_at not terminated")
	}
	if s.ArmedCount() != 0 {
		t.Error("terminated reminder left an armed timer")
	}
}

func TestReconcileMarksMalformedRowsSent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	store.putReminder(database.Reminder{ID: 1, UserID: "42", RemindAt: "not-a-date"})
	store.putReminder(database.Reminder{ID: 2, UserID: "42", RemindAt: "2099-01-01T10:00"})

	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if !store.reminder(t, 1).Sent {
		t.Error("malformed reminder not force-marked sent")
	}
	if store.reminder(t, 2).Sent {
		t.Error("well-formed reminder incorrectly marked sent")
	}
	if s.ArmedCount() != 1 {
		t.Errorf("armed count = %d, want 1", s.ArmedCount())
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	store.putReminder(database.Reminder{ID: 1, UserID: "42", RemindAt: "2099-01-01T10:00"})
	store.putReminder(database.Reminder{ID: 2, UserID: "42", RemindAt: "2099-06-01T10:00"})

	for i := 0; i < 3; i++ {
		if err := s.Reconcile(context.Background()); err != nil {
			t.Fatalf("Reconcile #%d failed: %v", i+1, err)
		}
	}

	// Re-arming supersedes: still exactly one timer per pending reminder.
	if s.ArmedCount() != 2 {
		t.Errorf("armed count after repeated reconciles = %d, want 2", s.ArmedCount())
	}
}

func TestReconcileDisarmsDeletedReminders(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	store.putReminder(database.Reminder{ID: 1, UserID: "42", RemindAt: "2099-01-01T10:00"})
	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if s.ArmedCount() != 1 {
		t.Fatalf("armed count = %d, want 1", s.ArmedCount())
	}

	if _, err := store.DeleteReminder(context.Background(), "42", 1); err != nil {
		t.Fatalf("DeleteReminder failed: %v", err)
	}
	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if s.ArmedCount() != 0 {
		t.Errorf("armed count after delete+reconcile = %d, want 0", s.ArmedCount())
	}
}

func TestReconcilePropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failPending = true
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	if err := s.Reconcile(context.Background()); err == nil {
		t.Error("Reconcile succeeded despite store failure")
	}
}

func TestCancelDisarmsTimer(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	store.putReminder(database.Reminder{ID: 1, UserID: "42", RemindAt: "2099-01-01T10:00"})
	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	s.Cancel(1)
	if s.ArmedCount() != 0 {
		t.Errorf("armed count after Cancel = %d, want 0", s.ArmedCount())
	}

	// Cancelling an unknown id is a no-op.
	s.Cancel(99)
}

func TestOverdueReminderFiresNearImmediately(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := newFakeNotifier()
	s := newTestScheduler(t, store, notifier)

	// Due an hour ago: delay floors to MinDelay instead of being skipped.
	past := time.Now().UTC().Add(-time.Hour)
	store.putReminder(database.Reminder{ID: 1, UserID: "42", RemindAt: clock.Format(past)})

	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		if err := s.Stop(); err != nil {
			t.Logf("Stop returned error: %v", err)
		}
	}()

	select {
	case <-notifier.notif:
	case <-time.After(5 * time.Second):
		t.Fatal("overdue reminder did not fire within 5s")
	}

	// Give the state transition a moment to persist.
	deadline := time.Now().Add(2 * time.Second)
	for !store.reminder(t, 1).Sent {
		if time.Now().After(deadline) {
			t.Fatal("fired reminder not marked sent")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

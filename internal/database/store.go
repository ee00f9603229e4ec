package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound indicates that a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Stats summarizes stored data for the admin /stats command.
type Stats struct {
	Tasks            int64 `db:"tasks"`
	TasksDone        int64 `db:"tasks_done"`
	Reminders        int64 `db:"reminders"`
	RemindersPending int64 `db:"reminders_pending"`
}

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts. All mutations
// are atomic at the row level: sent and remind_at never change independently
// within one operation.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveTask inserts a new task and assigns its ID.
	SaveTask(ctx context.Context, task *Task) error

	// ListTasks retrieves all tasks of a user, ordered by id ascending.
	ListTasks(ctx context.Context, userID string) ([]Task, error)

	// GetTask retrieves a task by (owner, id). Returns ErrNotFound if absent.
	GetTask(ctx context.Context, userID string, taskID int64) (*Task, error)

	// UpdateTaskText replaces a task's text. Returns false if no row matched.
	UpdateTaskText(ctx context.Context, userID string, taskID int64, text string) (bool, error)

	// SetTaskDone marks a task completed or pending. Returns false if no row matched.
	SetTaskDone(ctx context.Context, userID string, taskID int64, done bool) (bool, error)

	// DeleteTask removes a task. Returns false if no row matched.
	DeleteTask(ctx context.Context, userID string, taskID int64) (bool, error)

	// SaveReminder inserts a new reminder and assigns its ID.
	SaveReminder(ctx context.Context, reminder *Reminder) error

	// ListReminders retrieves all reminders of a user, ordered by remind_at ascending.
	ListReminders(ctx context.Context, userID string) ([]Reminder, error)

	// PendingReminders retrieves every reminder with sent = false, across all users.
	// This is the source the scheduler derives its timers from.
	PendingReminders(ctx context.Context) ([]Reminder, error)

	// GetReminder retrieves a reminder by id. Returns ErrNotFound if absent.
	GetReminder(ctx context.Context, id int64) (*Reminder, error)

	// MarkReminderSent sets sent = true, making the reminder terminal.
	MarkReminderSent(ctx context.Context, id int64) error

	// RescheduleReminder sets a new remind_at and clears sent in one statement.
	// Returns false if the row no longer exists, so a firing in flight for a
	// deleted reminder cannot resurrect it.
	RescheduleReminder(ctx context.Context, id int64, remindAt string) (bool, error)

	// DeleteReminder removes a reminder owned by userID. Returns false if no
	// row matched, including when the id belongs to another user.
	DeleteReminder(ctx context.Context, userID string, id int64) (bool, error)

	// GetStats returns aggregate counts over tasks and reminders.
	GetStats(ctx context.Context) (*Stats, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveTask(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("cannot save nil task")
	}
	if task.UserID == "" {
		return fmt.Errorf("task must have a non-empty user_id")
	}
	if task.Text == "" {
		return fmt.Errorf("task must have non-empty text")
	}

	query := `
        INSERT INTO tasks (user_id, text, done, created_at)
        VALUES (:user_id, :text, :done, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, task)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving task", "user_id", task.UserID, "error", err)
		return fmt.Errorf("failed to save task for user %s: %w", task.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		task.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving task",
			"user_id", task.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Task saved successfully", "user_id", task.UserID, "task_id", task.ID)
	return nil
}

func (s *sqlxStore) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var tasks []Task
	query := `
        SELECT id, user_id, text, done, created_at
        FROM tasks
        WHERE user_id = ?
        ORDER BY id;
    `
	if err := s.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing tasks", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

func (s *sqlxStore) GetTask(ctx context.Context, userID string, taskID int64) (*Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var task Task
	query := `
        SELECT id, user_id, text, done, created_at
        FROM tasks
        WHERE user_id = ? AND id = ?;
    `
	err := s.db.GetContext(ctx, &task, query, userID, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d for user %s: %w", taskID, userID, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting task", "user_id", userID, "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to get task %d for user %s: %w", taskID, userID, err)
	}
	return &task, nil
}

func (s *sqlxStore) UpdateTaskText(ctx context.Context, userID string, taskID int64, text string) (bool, error) {
	if text == "" {
		return false, fmt.Errorf("task text cannot be empty")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET text = ? WHERE user_id = ? AND id = ?;`, text, userID, taskID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating task text", "user_id", userID, "task_id", taskID, "error", err)
		return false, fmt.Errorf("failed to update task %d for user %s: %w", taskID, userID, err)
	}
	return rowChanged(result), nil
}

func (s *sqlxStore) SetTaskDone(ctx context.Context, userID string, taskID int64, done bool) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET done = ? WHERE user_id = ? AND id = ?;`, done, userID, taskID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error setting task done flag", "user_id", userID, "task_id", taskID, "error", err)
		return false, fmt.Errorf("failed to set done flag on task %d for user %s: %w", taskID, userID, err)
	}
	return rowChanged(result), nil
}

func (s *sqlxStore) DeleteTask(ctx context.Context, userID string, taskID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = ? AND id = ?;`, userID, taskID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting task", "user_id", userID, "task_id", taskID, "error", err)
		return false, fmt.Errorf("failed to delete task %d for user %s: %w", taskID, userID, err)
	}
	return rowChanged(result), nil
}

func (s *sqlxStore) SaveReminder(ctx context.Context, reminder *Reminder) error {
	if reminder == nil {
		return fmt.Errorf("cannot save nil reminder")
	}
	if reminder.UserID == "" {
		return fmt.Errorf("reminder must have a non-empty user_id")
	}
	if reminder.RemindAt == "" {
		return fmt.Errorf("reminder must have a non-empty remind_at")
	}

	query := `
        INSERT INTO reminders (user_id, task_id, remind_at, sent, repeat)
        VALUES (:user_id, :task_id, :remind_at, :sent, :repeat);
    `
	result, err := s.db.NamedExecContext(ctx, query, reminder)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving reminder", "user_id", reminder.UserID, "error", err)
		return fmt.Errorf("failed to save reminder for user %s: %w", reminder.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		reminder.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving reminder",
			"user_id", reminder.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Reminder saved successfully",
		"user_id", reminder.UserID, "reminder_id", reminder.ID, "remind_at", reminder.RemindAt)
	return nil
}

func (s *sqlxStore) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var reminders []Reminder
	query := `
        SELECT id, user_id, task_id, remind_at, sent, repeat
        FROM reminders
        WHERE user_id = ?
        ORDER BY remind_at;
    `
	if err := s.db.SelectContext(ctx, &reminders, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing reminders", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list reminders for user %s: %w", userID, err)
	}
	return reminders, nil
}

func (s *sqlxStore) PendingReminders(ctx context.Context) ([]Reminder, error) {
	var reminders []Reminder
	query := `
        SELECT id, user_id, task_id, remind_at, sent, repeat
        FROM reminders
        WHERE sent = 0;
    `
	if err := s.db.SelectContext(ctx, &reminders, query); err != nil {
		s.logger.ErrorContext(ctx, "Error loading pending reminders", "error", err)
		return nil, fmt.Errorf("failed to load pending reminders: %w", err)
	}

	s.logger.DebugContext(ctx, "Loaded pending reminders", "count", len(reminders))
	return reminders, nil
}

func (s *sqlxStore) GetReminder(ctx context.Context, id int64) (*Reminder, error) {
	var reminder Reminder
	query := `
        SELECT id, user_id, task_id, remind_at, sent, repeat
        FROM reminders
        WHERE id = ?;
    `
	err := s.db.GetContext(ctx, &reminder, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reminder %d: %w", id, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting reminder", "reminder_id", id, "error", err)
		return nil, fmt.Errorf("failed to get reminder %d: %w", id, err)
	}
	return &reminder, nil
}

func (s *sqlxStore) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE reminders SET sent = 1 WHERE id = ?;`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking reminder sent", "reminder_id", id, "error", err)
		return fmt.Errorf("failed to mark reminder %d sent: %w", id, err)
	}

	s.logger.DebugContext(ctx, "Reminder marked sent", "reminder_id", id)
	return nil
}

func (s *sqlxStore) RescheduleReminder(ctx context.Context, id int64, remindAt string) (bool, error) {
	if remindAt == "" {
		return false, fmt.Errorf("remind_at cannot be empty")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET remind_at = ?, sent = 0 WHERE id = ?;`, remindAt, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error rescheduling reminder", "reminder_id", id, "error", err)
		return false, fmt.Errorf("failed to reschedule reminder %d: %w", id, err)
	}

	changed := rowChanged(result)
	if !changed {
		// Row was deleted while the firing was in flight. The update matching
		// nothing is what keeps a deleted reminder from being resurrected.
		s.logger.DebugContext(ctx, "Reschedule matched no row, reminder was deleted", "reminder_id", id)
	}
	return changed, nil
}

func (s *sqlxStore) DeleteReminder(ctx context.Context, userID string, id int64) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("user_id cannot be empty")
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE user_id = ? AND id = ?;`, userID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting reminder", "reminder_id", id, "error", err)
		return false, fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}
	return rowChanged(result), nil
}

func (s *sqlxStore) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	query := `
        SELECT
            (SELECT COUNT(*) FROM tasks) AS tasks,
            (SELECT COUNT(*) FROM tasks WHERE done = 1) AS tasks_done,
            (SELECT COUNT(*) FROM reminders) AS reminders,
            (SELECT COUNT(*) FROM reminders WHERE sent = 0) AS reminders_pending;
    `
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Error collecting stats", "error", err)
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return &stats, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed.")
	return nil
}

// rowChanged reports whether an exec affected at least one row. Drivers that
// cannot report affected rows are treated as a change.
func rowChanged(result sql.Result) bool {
	affected, err := result.RowsAffected()
	if err != nil {
		return true
	}
	return affected > 0
}

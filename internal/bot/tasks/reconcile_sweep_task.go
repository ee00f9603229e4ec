package tasks

import (
	"context"
	"fmt"
)

// newReconcileSweepTask creates the scheduled task that realigns the armed
// reminder timers with the database. The sweep catches anything a missed
// event could leave behind: rows created outside the bot process, timers
// lost to transient store errors, rows deleted without a cancel.
func newReconcileSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "reconcile_sweep")

	return func(ctx context.Context) error {
		if err := deps.Scheduler.Reconcile(ctx); err != nil {
			log.ErrorContext(ctx, "Reconcile sweep failed", "error", err)
			return fmt.Errorf("reconcile sweep failed: %w", err)
		}
		log.DebugContext(ctx, "Reconcile sweep completed", "armed", deps.Scheduler.ArmedCount())
		return nil
	}
}

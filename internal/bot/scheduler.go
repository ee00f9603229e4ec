package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/JeissonPachon/telegram-taskbot/internal/bot/tasks"
	"github.com/JeissonPachon/telegram-taskbot/internal/config"
)

// CronRunner manages the recurring background tasks (maintenance, reconcile
// sweep) using the gocron library. One-shot reminder timers live in the
// scheduler package; this runner only drives cron-expression jobs.
type CronRunner struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewCronRunner creates a new cron runner instance.
func NewCronRunner(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*CronRunner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "cron_runner")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &CronRunner{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start schedules and starts all enabled tasks based on the configuration.
func (r *CronRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("cron runner is already running")
	}

	if r.cfg == nil || len(r.cfg.Tasks) == 0 {
		r.logger.Warn("No scheduler tasks configured.")
		r.scheduler.Start()
		r.running = true
		return nil
	}

	scheduledCount := 0
	for taskName, taskConfig := range r.cfg.Tasks {
		if !taskConfig.Enabled {
			r.logger.Info("Skipping disabled task", "task_name", taskName)
			continue
		}

		taskFunc, exists := r.taskMap[taskName]
		if !exists {
			r.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
			continue
		}

		if taskConfig.Schedule == "" {
			r.logger.Warn("Scheduled task enabled but has empty schedule, skipping", "task_name", taskName)
			continue
		}

		_, err := r.scheduler.NewJob(
			gocron.CronJob(taskConfig.Schedule, false),
			gocron.NewTask(
				func(ctx context.Context, name string) {
					r.logger.Info("Running scheduled task", "task_name", name)
					startTime := time.Now()
					if taskErr := taskFunc(ctx); taskErr != nil {
						r.logger.Error("Scheduled task failed", "task_name", name, "error", taskErr)
					}
					r.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
				},
				context.Background(),
				taskName,
			),
			gocron.WithName(taskName),
		)
		if err != nil {
			r.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
			continue
		}

		r.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule)
		scheduledCount++
	}

	r.scheduler.Start()
	r.running = true
	r.logger.Info("Cron runner initialized and started", "tasks_scheduled", scheduledCount)

	return nil
}

// Stop gracefully stops the runner, waiting for running jobs to complete.
func (r *CronRunner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		r.logger.Info("Cron runner is not running, nothing to stop.")
		return nil
	}

	err := r.scheduler.Shutdown()
	if err != nil {
		r.logger.Error("Error during cron runner shutdown", "error", err)
	} else {
		r.logger.Info("Cron runner stopped gracefully.")
	}

	r.running = false
	return err
}

// Package tasks implements the bot's background scheduled tasks: database
// maintenance and the periodic reminder reconcile sweep.
package tasks

import (
	"log/slog"

	"github.com/JeissonPachon/telegram-taskbot/internal/config"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
	"github.com/JeissonPachon/telegram-taskbot/internal/scheduler"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Store     database.Store
	Scheduler *scheduler.Scheduler
	Config    *config.Config
}

package handlers

import (
	"log/slog"

	"github.com/JeissonPachon/telegram-taskbot/internal/config"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
	"github.com/JeissonPachon/telegram-taskbot/internal/gemini"
	"github.com/JeissonPachon/telegram-taskbot/internal/scheduler"
)

// HandlerDeps provides dependencies for Telegram command handlers.
// GeminiClient is nil when the AI quick-capture feature is not configured.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	Scheduler    *scheduler.Scheduler
	GeminiClient gemini.Client
}

// Package main contains the entrypoint for the task bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/JeissonPachon/telegram-taskbot/internal/bot"
	"github.com/JeissonPachon/telegram-taskbot/internal/bot/handlers"
	"github.com/JeissonPachon/telegram-taskbot/internal/bot/tasks"
	"github.com/JeissonPachon/telegram-taskbot/internal/config"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
	"github.com/JeissonPachon/telegram-taskbot/internal/gemini"
	"github.com/JeissonPachon/telegram-taskbot/internal/logger"
	"github.com/JeissonPachon/telegram-taskbot/internal/scheduler"
	"github.com/JeissonPachon/telegram-taskbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// reminder engine, bot, cron runner), handles graceful shutdown, and returns
// an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	var gemClient gemini.Client
	if cfg.Gemini.Enabled() {
		gemClient, err = gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
		log.Info("AI quick-capture enabled", "model", cfg.Gemini.ModelName)
	} else {
		log.Info("AI quick-capture disabled (no API key configured)")
	}

	// The Telegram bot and the reminder engine reference each other (handlers
	// arm timers, firings send messages). The default handler closes over
	// hDeps so it sees the scheduler wired in below, after the bot exists.
	hDeps := handlers.HandlerDeps{
		Logger:       log,
		Config:       cfg,
		Store:        store,
		GeminiClient: gemClient,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			handlers.NewCaptureHandler(hDeps)(ctx, b, update)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	msgs := scheduler.Messages{
		TaskReminder: cfg.Messages.ReminderTask,
		TaskDeleted:  cfg.Messages.ReminderDeleted,
		Generic:      cfg.Messages.ReminderGeneric,
	}
	reminders, err := scheduler.New(log, store, telegram.NewNotifier(tg, log), msgs)
	if err != nil {
		log.Error("Failed to create reminder engine", "error", err)
		return 1
	}
	hDeps.Scheduler = reminders

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:    log,
		Store:     store,
		Scheduler: reminders,
		Config:    cfg,
	}
	cronRunner, err := bot.NewCronRunner(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create cron runner", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, tg, reminders, cronRunner)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

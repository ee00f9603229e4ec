// Package bot wires the Telegram listener, the reminder engine, and the
// background cron runner together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/JeissonPachon/telegram-taskbot/internal/config"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
	"github.com/JeissonPachon/telegram-taskbot/internal/scheduler"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger     *slog.Logger
	cfg        *config.Config
	db         *sqlx.DB
	store      database.Store
	tgBot      *tgbot.Bot
	reminders  *scheduler.Scheduler
	cronRunner *CronRunner
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	tgBot *tgbot.Bot,
	reminders *scheduler.Scheduler,
	cronRunner *CronRunner,
) *Bot {
	return &Bot{
		logger:     logger.With("component", "bot_orchestrator"),
		cfg:        cfg,
		db:         db,
		store:      store,
		tgBot:      tgBot,
		reminders:  reminders,
		cronRunner: cronRunner,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on
// context cancellation. It returns an error if any component fails during
// startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting reminder engine...")
		if err := b.reminders.Start(); err != nil {
			b.logger.Error("Failed to start reminder engine", "error", err)
			return fmt.Errorf("failed to start reminder engine: %w", err)
		}

		// Recover persisted pending reminders before serving new ones.
		if err := b.reminders.Reconcile(gCtx); err != nil {
			b.logger.Error("Initial reminder reconcile failed", "error", err)
			return fmt.Errorf("initial reminder reconcile failed: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping reminder engine...")

		if err := b.reminders.Stop(); err != nil {
			b.logger.Error("Error stopping reminder engine", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting cron runner...")
		if err := b.cronRunner.Start(); err != nil {
			b.logger.Error("Failed to start cron runner", "error", err)
			return fmt.Errorf("failed to start cron runner: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping cron runner...")

		if err := b.cronRunner.Stop(); err != nil {
			b.logger.Error("Error stopping cron runner", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

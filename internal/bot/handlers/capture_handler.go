package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
)

// NewCaptureHandler returns the default handler for non-command messages.
// When an AI client is configured, free text becomes a task suggestion that
// is stored directly; otherwise the user is nudged toward the commands.
func NewCaptureHandler(deps HandlerDeps) bot.HandlerFunc {
	return captureHandler{deps}.Handle
}

type captureHandler struct {
	deps HandlerDeps
}

func (h captureHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "capture")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return
	}
	chatID := update.Message.Chat.ID
	owner := fmt.Sprintf("%d", update.Message.From.ID)

	if h.deps.GeminiClient == nil {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.FreeTextHint)
		return
	}

	suggestion, err := h.deps.GeminiClient.SuggestTask(ctx, text)
	if err != nil {
		log.ErrorContext(ctx, "Failed to get task suggestion", "error", err, "user_id", owner)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.FreeTextHint)
		return
	}

	task := &database.Task{
		UserID:    owner,
		Text:      suggestion.Text,
		CreatedAt: clock.Format(time.Now().UTC()),
	}
	if err := h.deps.Store.SaveTask(ctx, task); err != nil {
		log.ErrorContext(ctx, "Failed to save suggested task", "error", err, "user_id", owner)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	confirmation := fmt.Sprintf("Task added (id=%d): %s", task.ID, task.Text)

	// A mentioned time becomes a one-shot reminder on the new task. The
	// suggestion is advisory, so a bad instant only drops the reminder.
	if suggestion.RemindAt != "" {
		if at, err := clock.Parse(suggestion.RemindAt); err == nil {
			rem := &database.Reminder{
				UserID:   owner,
				TaskID:   sql.NullInt64{Int64: task.ID, Valid: true},
				RemindAt: clock.Format(at),
			}
			if err := h.deps.Store.SaveReminder(ctx, rem); err != nil {
				log.ErrorContext(ctx, "Failed to save suggested reminder", "error", err, "task_id", task.ID)
			} else {
				if err := h.deps.Scheduler.Reconcile(ctx); err != nil {
					log.ErrorContext(ctx, "Failed to reconcile scheduler after save", "error", err, "reminder_id", rem.ID)
				}
				confirmation += fmt.Sprintf("\nReminder set for %s.", rem.RemindAt)
			}
		} else {
			log.WarnContext(ctx, "Ignoring unparsable suggested time", "remind_at", suggestion.RemindAt)
		}
	}

	log.InfoContext(ctx, "Task captured from free text", "user_id", owner, "task_id", task.ID)
	reply(ctx, b, log, chatID, confirmation)
}

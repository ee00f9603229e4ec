package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
)

// NewAddReminderHandler returns a handler for the /addreminder command.
func NewAddReminderHandler(deps HandlerDeps) bot.HandlerFunc {
	return addReminderHandler{deps}.Handle
}

type addReminderHandler struct {
	deps HandlerDeps
}

func (h addReminderHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "addreminder")

	chatID, owner, args, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	req, err := parseReminderArgs(args)
	if err != nil {
		if errors.Is(err, clock.ErrInvalidFormat) {
			reply(ctx, b, log, chatID, h.deps.Config.Messages.InvalidDate)
		} else {
			reply(ctx, b, log, chatID, "Usage: /addreminder 2026-01-15 09:00 [<task_id>] [daily|weekly]")
		}
		return
	}

	if req.taskID.Valid {
		if _, err := h.deps.Store.GetTask(ctx, owner, req.taskID.Int64); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				reply(ctx, b, log, chatID, h.deps.Config.Messages.NotFound)
				return
			}
			log.ErrorContext(ctx, "Failed to look up linked task", "error", err, "user_id", owner, "task_id", req.taskID.Int64)
			reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
			return
		}
	}

	rem := &database.Reminder{
		UserID:   owner,
		TaskID:   req.taskID,
		RemindAt: req.remindAt,
	}
	if req.repeat != clock.RecurrenceNone {
		rem.Repeat.Valid = true
		rem.Repeat.String = string(req.repeat)
	}
	if err := h.deps.Store.SaveReminder(ctx, rem); err != nil {
		log.ErrorContext(ctx, "Failed to save reminder", "error", err, "user_id", owner)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	// Arming goes through a full reconcile so the timer index stays the
	// single source of truth for what is scheduled.
	if err := h.deps.Scheduler.Reconcile(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to reconcile scheduler after save", "error", err, "reminder_id", rem.ID)
	}

	log.InfoContext(ctx, "Reminder created", "user_id", owner, "reminder_id", rem.ID, "remind_at", rem.RemindAt)
	reply(ctx, b, log, chatID, fmt.Sprintf("Reminder set (id=%d) for %s.", rem.ID, rem.RemindAt))
}

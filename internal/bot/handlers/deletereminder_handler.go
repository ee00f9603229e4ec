package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDeleteReminderHandler returns a handler for the /deletereminder command.
func NewDeleteReminderHandler(deps HandlerDeps) bot.HandlerFunc {
	return deleteReminderHandler{deps}.Handle
}

type deleteReminderHandler struct {
	deps HandlerDeps
}

func (h deleteReminderHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "deletereminder")

	chatID, owner, args, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	if len(args) < 1 {
		reply(ctx, b, log, chatID, "Usage: /deletereminder <num>")
		return
	}

	remID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.InvalidNumber)
		return
	}

	changed, err := h.deps.Store.DeleteReminder(ctx, owner, remID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to delete reminder", "error", err, "user_id", owner, "reminder_id", remID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !changed {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NotFound)
		return
	}

	// Drop any armed timer so the deleted reminder can no longer fire.
	h.deps.Scheduler.Cancel(remID)

	log.InfoContext(ctx, "Reminder deleted", "user_id", owner, "reminder_id", remID)
	reply(ctx, b, log, chatID, fmt.Sprintf("Reminder #%d deleted.", remID))
}

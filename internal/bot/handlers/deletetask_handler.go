package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDeleteTaskHandler returns a handler for the /deletetask command.
func NewDeleteTaskHandler(deps HandlerDeps) bot.HandlerFunc {
	return deleteTaskHandler{deps}.Handle
}

type deleteTaskHandler struct {
	deps HandlerDeps
}

func (h deleteTaskHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "deletetask")

	chatID, owner, args, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	if len(args) < 1 {
		reply(ctx, b, log, chatID, "Usage: /deletetask <num>")
		return
	}

	taskID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.InvalidNumber)
		return
	}

	changed, err := h.deps.Store.DeleteTask(ctx, owner, taskID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to delete task", "error", err, "user_id", owner, "task_id", taskID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !changed {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NotFound)
		return
	}

	log.InfoContext(ctx, "Task deleted", "user_id", owner, "task_id", taskID)
	reply(ctx, b, log, chatID, fmt.Sprintf("Task #%d deleted.", taskID))
}

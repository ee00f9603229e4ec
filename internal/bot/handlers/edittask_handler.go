package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewEditTaskHandler returns a handler for the /edittask command.
func NewEditTaskHandler(deps HandlerDeps) bot.HandlerFunc {
	return editTaskHandler{deps}.Handle
}

type editTaskHandler struct {
	deps HandlerDeps
}

func (h editTaskHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "edittask")

	chatID, owner, args, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	if len(args) < 2 {
		reply(ctx, b, log, chatID, "Usage: /edittask <num> <new text>")
		return
	}

	taskID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.InvalidNumber)
		return
	}
	newText := strings.Join(args[1:], " ")

	changed, err := h.deps.Store.UpdateTaskText(ctx, owner, taskID, newText)
	if err != nil {
		log.ErrorContext(ctx, "Failed to update task", "error", err, "user_id", owner, "task_id", taskID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !changed {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NotFound)
		return
	}

	reply(ctx, b, log, chatID, fmt.Sprintf("Task #%d updated.", taskID))
}

package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSetDoneHandler returns a handler for the /complete and /pending
// commands; done selects which transition the handler applies.
func NewSetDoneHandler(deps HandlerDeps, done bool) bot.HandlerFunc {
	return setDoneHandler{deps: deps, done: done}.Handle
}

type setDoneHandler struct {
	deps HandlerDeps
	done bool
}

func (h setDoneHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	name := "pending"
	if h.done {
		name = "complete"
	}
	log := h.deps.Logger.With("handler", name)

	chatID, owner, args, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	if len(args) < 1 {
		reply(ctx, b, log, chatID, fmt.Sprintf("Usage: /%s <num>", name))
		return
	}

	taskID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.InvalidNumber)
		return
	}

	changed, err := h.deps.Store.SetTaskDone(ctx, owner, taskID, h.done)
	if err != nil {
		log.ErrorContext(ctx, "Failed to set task done flag", "error", err, "user_id", owner, "task_id", taskID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !changed {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NotFound)
		return
	}

	if h.done {
		reply(ctx, b, log, chatID, fmt.Sprintf("Task #%d marked as completed.", taskID))
	} else {
		reply(ctx, b, log, chatID, fmt.Sprintf("Task #%d marked as pending.", taskID))
	}
}

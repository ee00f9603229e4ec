package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewListTasksHandler returns a handler for the /listtasks command. The same
// handler serves the menu callback, so it accepts both message and callback
// query updates.
func NewListTasksHandler(deps HandlerDeps) bot.HandlerFunc {
	return listTasksHandler{deps}.Handle
}

type listTasksHandler struct {
	deps HandlerDeps
}

func (h listTasksHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "listtasks")

	chatID, owner, _, ok := messageContext(update)
	if !ok {
		if update.CallbackQuery == nil {
			log.WarnContext(ctx, "Received update with nil message and callback", "update_id", update.ID)
			return
		}
		owner = strconv.FormatInt(update.CallbackQuery.From.ID, 10)
		chatID = update.CallbackQuery.From.ID
	}

	tasks, err := h.deps.Store.ListTasks(ctx, owner)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list tasks", "error", err, "user_id", owner)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(tasks) == 0 {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NoTasks)
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Your tasks:\n\n")
	for _, task := range tasks {
		status := "⏳"
		if task.Done {
			status = "✅"
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s\n", task.ID, status, task.Text))
	}
	reply(ctx, b, log, chatID, sb.String())
}

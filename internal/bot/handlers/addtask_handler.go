package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
	"github.com/JeissonPachon/telegram-taskbot/internal/database"
)

// NewAddTaskHandler returns a handler for the /addtask command.
func NewAddTaskHandler(deps HandlerDeps) bot.HandlerFunc {
	return addTaskHandler{deps}.Handle
}

type addTaskHandler struct {
	deps HandlerDeps
}

func (h addTaskHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "addtask")

	chatID, owner, args, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	text := strings.Join(args, " ")
	if text == "" {
		reply(ctx, b, log, chatID, "Usage: /addtask Buy bread")
		return
	}

	task := &database.Task{
		UserID:    owner,
		Text:      text,
		CreatedAt: clock.Format(time.Now().UTC()),
	}
	if err := h.deps.Store.SaveTask(ctx, task); err != nil {
		log.ErrorContext(ctx, "Failed to save task", "error", err, "user_id", owner)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Task created", "user_id", owner, "task_id", task.ID)
	reply(ctx, b, log, chatID, fmt.Sprintf("Task added (id=%d): %s", task.ID, text))
}

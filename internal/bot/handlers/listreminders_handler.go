package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewListRemindersHandler returns a handler for the /listreminders command.
func NewListRemindersHandler(deps HandlerDeps) bot.HandlerFunc {
	return listRemindersHandler{deps}.Handle
}

type listRemindersHandler struct {
	deps HandlerDeps
}

func (h listRemindersHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "listreminders")

	chatID, owner, _, ok := messageContext(update)
	if !ok {
		if update.CallbackQuery == nil {
			log.WarnContext(ctx, "Received update with nil message and callback", "update_id", update.ID)
			return
		}
		owner = strconv.FormatInt(update.CallbackQuery.From.ID, 10)
		chatID = update.CallbackQuery.From.ID
	}

	reminders, err := h.deps.Store.ListReminders(ctx, owner)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list reminders", "error", err, "user_id", owner)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(reminders) == 0 {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NoReminders)
		return
	}

	var sb strings.Builder
	sb.WriteString("⏰ Your reminders:\n\n")
	for _, rem := range reminders {
		line := fmt.Sprintf("%d. %s", rem.ID, rem.RemindAt)
		if rem.Repeat.Valid && rem.Repeat.String != "" {
			line += " (" + rem.Repeat.String + ")"
		}
		if rem.TaskID.Valid {
			line += fmt.Sprintf(" → task #%d", rem.TaskID.Int64)
		}
		if rem.Sent {
			line += " [sent]"
		}
		sb.WriteString(line + "\n")
	}
	reply(ctx, b, log, chatID, sb.String())
}

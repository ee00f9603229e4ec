package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the admin-only /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	chatID, _, _, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	stats, err := h.deps.Store.GetStats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to collect stats", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	text := fmt.Sprintf(
		"📊 Bot statistics\n\nTasks: %d (%d done)\nReminders: %d (%d pending)\nArmed timers: %d",
		stats.Tasks, stats.TasksDone,
		stats.Reminders, stats.RemindersPending,
		h.deps.Scheduler.ArmedCount(),
	)
	reply(ctx, b, log, chatID, text)
}

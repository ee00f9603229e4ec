package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// messageContext extracts the pieces every command handler needs from an
// update. ok is false when the update has no usable message or sender.
func messageContext(update *models.Update) (chatID int64, owner string, args []string, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, "", nil, false
	}
	chatID = update.Message.Chat.ID
	owner = strconv.FormatInt(update.Message.From.ID, 10)
	args = commandArgs(update.Message.Text)
	return chatID, owner, args, true
}

// reply sends text to a chat and logs delivery failures.
func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

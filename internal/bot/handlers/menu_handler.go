package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// menuCallbackPrefix namespaces the callback data of menu buttons so the
// callback handler only receives clicks it owns.
const menuCallbackPrefix = "menu:"

// NewMenuHandler returns a handler for the /menu command. It presents the
// main actions as an inline keyboard.
func NewMenuHandler(deps HandlerDeps) bot.HandlerFunc {
	return menuHandler{deps}.Handle
}

type menuHandler struct {
	deps HandlerDeps
}

func (h menuHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "menu")

	chatID, _, _, ok := messageContext(update)
	if !ok {
		log.WarnContext(ctx, "Received update with nil message or sender", "update_id", update.ID)
		return
	}

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📋 My tasks", CallbackData: menuCallbackPrefix + "listtasks"},
				{Text: "⏰ My reminders", CallbackData: menuCallbackPrefix + "listreminders"},
			},
			{
				{Text: "❓ Help", CallbackData: menuCallbackPrefix + "help"},
			},
		},
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "What would you like to do?",
		ReplyMarkup: keyboard,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send menu", "error", err, "chat_id", chatID)
	}
}

// NewMenuCallbackHandler returns a handler for clicks on the /menu keyboard.
func NewMenuCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return menuCallbackHandler{deps}.Handle
}

type menuCallbackHandler struct {
	deps HandlerDeps
}

func (h menuCallbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "menu_callback")

	if update.CallbackQuery == nil {
		log.WarnContext(ctx, "Received update with nil callback query", "update_id", update.ID)
		return
	}

	// Always acknowledge the click so the client stops its spinner.
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "error", err)
	}

	action := strings.TrimPrefix(update.CallbackQuery.Data, menuCallbackPrefix)
	switch action {
	case "listtasks":
		NewListTasksHandler(h.deps)(ctx, b, update)
	case "listreminders":
		NewListRemindersHandler(h.deps)(ctx, b, update)
	case "help":
		chatID := update.CallbackQuery.From.ID
		reply(ctx, b, log, chatID, h.deps.Config.Messages.Help)
	default:
		log.WarnContext(ctx, "Unknown menu action", "action", action)
	}
}

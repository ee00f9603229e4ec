package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
)

// Notifier delivers reminder notifications through the Telegram bot API.
// It implements the scheduler's Notifier interface; the owner identifier is
// the chat id in its stored textual form.
type Notifier struct {
	bot    *bot.Bot
	logger *slog.Logger
}

// NewNotifier creates a Notifier backed by the given bot instance.
func NewNotifier(b *bot.Bot, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		bot:    b,
		logger: logger.With("component", "notifier"),
	}
}

// Send delivers text to the user identified by userID. Errors are returned to
// the caller for observation; the firing engine treats them as best-effort.
func (n *Notifier) Send(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", userID, err)
	}

	_, err = n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification to chat %d: %w", chatID, err)
	}

	n.logger.DebugContext(ctx, "Notification sent", "chat_id", chatID)
	return nil
}

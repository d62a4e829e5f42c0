// Package telegram implements the alert port by pushing formatted
// notifications to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gemScoutBot/internal/ports"
)

// Notifier sends alert events to a single chat. Notify is fire-and-forget:
// the send happens on its own goroutine with a bounded timeout and can
// never block the monitor loop.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger ports.Logger
}

// New creates a Telegram notifier.
func New(token string, chatID int64, logger ports.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram token and chat ID are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for telegram notifier")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Notifier{api: api, chatID: chatID, logger: logger}, nil
}

// Notify formats and sends the event without blocking the caller.
func (n *Notifier) Notify(event ports.AlertEvent) {
	text := format(event)
	go func() {
		done := make(chan error, 1)
		go func() {
			msg := tgbotapi.NewMessage(n.chatID, text)
			msg.ParseMode = tgbotapi.ModeMarkdown
			_, err := n.api.Send(msg)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				n.logger.Warn(context.Background(), "telegram send failed", map[string]interface{}{
					"kind": string(event.Kind), "error": err.Error(),
				})
			}
		case <-time.After(15 * time.Second):
			n.logger.Warn(context.Background(), "telegram send timed out", map[string]interface{}{
				"kind": string(event.Kind),
			})
		}
	}()
}

// format renders one alert event as a chat message.
func format(event ports.AlertEvent) string {
	switch event.Kind {
	case ports.AlertPositionOpened:
		return fmt.Sprintf("🟢 *Position opened*\n`%s` on %s\nfill price: %.8f", event.Address, event.Venue, event.Price)
	case ports.AlertExitTriggered:
		return fmt.Sprintf("🔴 *Exit %s*\n`%s`\nsold %.0f%% at %.8f (PnL %.1f%%)",
			event.CloseReason, event.Address, event.Percent, event.Price, event.PnLPercent)
	case ports.AlertEntryRejected:
		return fmt.Sprintf("⚠️ *Entry rejected*\n`%s`\n%s", event.Address, event.Detail)
	case ports.AlertExitRejected:
		return fmt.Sprintf("⚠️ *Exit rejected*\n`%s` (%.0f%%, %s)\n%s",
			event.Address, event.Percent, event.CloseReason, event.Detail)
	case ports.AlertConnectionState:
		return fmt.Sprintf("📡 *Venue %s* is now %s", event.Venue, event.VenueState)
	default:
		return fmt.Sprintf("%s %s", event.Kind, event.Address)
	}
}

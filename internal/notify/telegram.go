package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"signal-router/internal/models"
)

// TelegramNotifier posts decision summaries to a Telegram chat.
type TelegramNotifier struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// NewTelegramNotifier creates a Telegram notifier. The chatID is the
// numeric chat identifier as a string.
func NewTelegramNotifier(token, chatID string) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chat: &tele.Chat{ID: id}}, nil
}

// NotifyDecision implements Notifier.
func (t *TelegramNotifier) NotifyDecision(_ context.Context, d *models.Decision) error {
	msg := fmt.Sprintf("%s %s", d.Status, d.Symbol)
	if d.Side != "" {
		msg += fmt.Sprintf("\n%s x%d %s", d.Side, d.Quantity, d.Product)
	}
	if d.Contract != "" {
		msg += "\ncontract: " + d.Contract
	}
	if d.OrderID != "" {
		msg += "\norder: " + d.OrderID
	}
	if d.Reason != "" {
		msg += "\nreason: " + d.Reason
	}

	_, err := t.bot.Send(t.chat, msg)
	return err
}

var _ Notifier = (*TelegramNotifier)(nil)

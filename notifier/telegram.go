package notifier

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"parking-finder/utils"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram sends messages to one chat through a bot.
type Telegram struct {
	bot    messageSender
	chat   tele.ChatID
	logger *utils.Logger
}

// NewTelegram creates a send-only bot for chatID. No updates are polled.
func NewTelegram(token string, chatID int64, logger *utils.Logger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}
	return &Telegram{bot: bot, chat: tele.ChatID(chatID), logger: logger}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts text with Markdown formatting. When Telegram rejects the
// markup, the text is sent again without it.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, DisableWebPagePreview: true}
	msg, err := t.bot.Send(t.chat, text, opts)
	if err != nil {
		t.logger.Debug("[telegram] markdown send failed (%v), retrying as plain text", err)
		msg, err = t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	}
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}

	t.logger.Debug("[telegram] notification sent, message id: %d", msg.ID)
	return nil
}

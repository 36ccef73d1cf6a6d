package notify

import (
	"context"
	"fmt"

	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// PushSender delivers reminders as Telegram messages to the attorney's chat.
type PushSender struct {
	client telegram.Client
}

func NewPushSender(client telegram.Client) *PushSender {
	return &PushSender{client: client}
}

func (s *PushSender) Send(_ context.Context, to *attorney.Attorney, subject, body string) error {
	text := fmt.Sprintf("⏰ %s\n\n%s", subject, body)
	if err := s.client.SendMessage(to.TelegramID, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("telegram push to %d: %w", to.TelegramID, err)
	}
	return nil
}

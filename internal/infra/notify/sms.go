package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"deadline_tracker_bot/internal/app"
	"deadline_tracker_bot/internal/domain/attorney"

	"github.com/sirupsen/logrus"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// smsMaxBody keeps a reminder within a few SMS segments.
const smsMaxBody = 480

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSSender delivers reminders as text messages through Twilio.
type SMSSender struct {
	api        messageCreator
	fromNumber string
	logger     *logrus.Entry
}

// NewSMSSender creates a Twilio client bound to the configured sender number.
func NewSMSSender(accountSID, authToken, fromNumber string, logger *logrus.Entry) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	return &SMSSender{api: client.Api, fromNumber: fromNumber, logger: logger}
}

func (s *SMSSender) Send(_ context.Context, to *attorney.Attorney, subject, body string) error {
	recipient := normalizePhone(to.Phone.String)
	if !to.Phone.Valid || recipient == "" {
		return app.ErrNoRecipientAddress
	}
	sender := normalizePhone(s.fromNumber)
	if sender == "" {
		return fmt.Errorf("twilio sender number is not configured")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(truncateSMS(subject + "\n" + body))

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.WithFields(logrus.Fields{"sid": *resp.Sid, "attorney_id": to.ID}).Debug("Twilio message accepted")
	}
	return nil
}

// truncateSMS shortens text to smsMaxBody bytes without splitting a rune.
func truncateSMS(text string) string {
	if len(text) <= smsMaxBody {
		return text
	}
	const ellipsis = "..."
	cut := smsMaxBody - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + ellipsis
}

func normalizePhone(number string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(number), " ", "")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "+") {
		return trimmed
	}
	return "+" + trimmed
}

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"deadline_tracker_bot/internal/app"
	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/infra/config"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

type sendMailFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// EmailSender delivers reminders as plain-text mail over SMTP.
type EmailSender struct {
	cfg      config.SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (s *EmailSender) Send(_ context.Context, to *attorney.Attorney, subject, body string) error {
	if !to.Email.Valid || to.Email.String == "" {
		return app.ErrNoRecipientAddress
	}

	msg, err := s.compose(to, subject, body)
	if err != nil {
		return fmt.Errorf("failed to compose reminder email: %w", err)
	}

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.From, []string{to.Email.String}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to.Email.String, err)
	}
	return nil
}

func (s *EmailSender) compose(to *attorney.Attorney, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{{Name: "Deadline Tracker", Address: s.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Name: to.FullName(), Address: to.Email.String}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

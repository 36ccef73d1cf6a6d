// internal/infra/telegram/client.go
package telegram

import (
	"io"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID} // Attorneys talk to the bot in a direct chat
	_, err := tba.bot.Send(recipient, text, options)
	return err
}

// SendDocument uploads content as a file attachment.
func (tba *TelebotAdapter) SendDocument(recipientChatID int64, fileName string, content io.Reader, caption string) error {
	doc := &telebot.Document{
		File:     telebot.FromReader(content),
		FileName: fileName,
		Caption:  caption,
	}
	_, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, doc)
	return err
}

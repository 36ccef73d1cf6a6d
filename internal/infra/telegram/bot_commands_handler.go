// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/domain/reminder"
	"deadline_tracker_bot/internal/infra/config"
	idb "deadline_tracker_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const attorneyHelp = "`/new_deadline <case_id> <YYYY-MM-DDTHH:MM> [priority 1-5] [caption]`\n - Register a deadline.\n\n" +
	"`/edit_deadline <deadline_id> <caption|due|priority|owner> <value>`\n - Change a deadline. Only the administrator can change the owner (`none` unassigns).\n\n" +
	"`/deadlines [status] [high|medium|low] [case=<id>]`\n - List deadlines, earliest first.\n\n" +
	"`/stats`\n - Urgent, this week, pending and completed counts.\n\n" +
	"`/remind <deadline_id> [lead times] [| channels]`\n - Schedule reminders, e.g. `/remind <id> 1 day, 2 hours | email, sms`.\n\n" +
	"`/reminders <deadline_id>`\n - Show scheduled reminders.\n\n" +
	"`/done <deadline_id>`, `/done_all <id...|all>`\n - Mark deadlines complete.\n\n" +
	"`/snooze <deadline_id> <YYYY-MM-DDTHH:MM>`\n - Hide a deadline until the given time.\n\n" +
	"`/calendar [filters]`\n - Download deadlines as an .ics file.\n\n"

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cfg *config.AppConfig, // For AdminTelegramID
	attorneyRepo attorney.Repository,
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == cfg.AdminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hello, %s! You are the administrator. Use /help for the command list.", c.Sender().FirstName))
		}

		a, err := attorneyRepo.GetByTelegramID(ctx, senderID)
		if err == nil {
			if a.IsActive {
				logCtx.WithField("attorney_id", a.ID).Info("User identified as Active Attorney")
				return c.Send(fmt.Sprintf("Hello, %s! I track your case deadlines and send reminders. Use /help to get started.", a.FirstName))
			}
			logCtx.WithField("attorney_id", a.ID).Info("User identified as Inactive Attorney")
			return c.Send("Your account is inactive. Please contact the administrator.")
		} else if !errors.Is(err, idb.ErrAttorneyNotFound) {
			logCtx.WithError(err).Error("Error checking attorney status for /start command")
			return c.Send("Could not check your status. Please try again later.")
		}

		logCtx.Info("User is unknown")
		return c.Send("Hello! I am a deadline reminder bot for attorneys. Ask the administrator to add you.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		footer := "Lead times: " + strings.Join(reminder.LeadTimeLabels(), ", ") + ".\nChannels: email, sms, push."

		if senderID == cfg.AdminTelegramID {
			var helpText strings.Builder
			helpText.WriteString("Administrator commands:\n\n")
			helpText.WriteString("`/add_attorney <TelegramID> <FirstName> [LastName]`\n - Register an attorney.\n\n")
			helpText.WriteString("`/remove_attorney <TelegramID>`\n - Deactivate an attorney (reminders stop).\n\n")
			helpText.WriteString("`/list_attorneys [active|all]`\n - List attorneys.\n\n")
			helpText.WriteString("`/contact <TelegramID> <email|phone> <value>`\n - Set reminder contact details.\n\n")
			helpText.WriteString("Deadline commands (all deadlines):\n\n")
			helpText.WriteString(attorneyHelp)
			helpText.WriteString(footer)
			return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}

		a, err := attorneyRepo.GetByTelegramID(ctx, senderID)
		if err == nil {
			if a.IsActive {
				logCtx.WithField("attorney_id", a.ID).Info("Sending attorney help")
				return c.Send("Commands:\n\n"+attorneyHelp+footer, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
			}
			return c.Send("Your account is inactive. Please contact the administrator.")
		} else if !errors.Is(err, idb.ErrAttorneyNotFound) {
			logCtx.WithError(err).Error("Error checking attorney status for /help command")
			return c.Send("Could not check your status. Please try again later.")
		}

		logCtx.Info("User is unknown, sending restricted help.")
		return c.Send("No commands are available to you. Ask the administrator to add you.")
	})
}

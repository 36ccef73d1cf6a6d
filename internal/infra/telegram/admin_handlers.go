package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"deadline_tracker_bot/internal/app"
	"deadline_tracker_bot/internal/domain/attorney"
	idb "deadline_tracker_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgUnauthorized = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers handlers for admin commands.
// It requires the bot instance, admin service, and the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/add_attorney", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_attorney",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		args := c.Args()
		// Expected format: /add_attorney <TelegramID> <FirstName> [LastName]
		if len(args) < 2 || len(args) > 3 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Usage: /add_attorney <TelegramID> <FirstName> [LastName]")
		}

		attorneyTelegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: Telegram ID must be a number.")
		}

		firstName := args[1]
		if strings.TrimSpace(firstName) == "" {
			return c.Send("Error: first name cannot be empty.")
		}

		var lastName string
		if len(args) == 3 {
			lastName = args[2]
		}

		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"attorney_telegram_id": attorneyTelegramID,
			"first_name":           firstName,
			"last_name":            lastName,
		})

		newAttorney, err := adminService.AddAttorney(ctx, c.Sender().ID, attorneyTelegramID, firstName, lastName)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(msgUnauthorized)
			case errors.Is(err, app.ErrAttorneyAlreadyExists):
				logWithError.Warn("Attorney already exists")
				return c.Send(fmt.Sprintf("Error: an attorney with Telegram ID %d already exists.", attorneyTelegramID))
			default:
				logWithError.Error("Failed to add attorney")
				return c.Send("Could not add the attorney. Please try again later.")
			}
		}

		handlerLogger.WithField("new_attorney_id", newAttorney.ID).Info("Attorney added successfully")
		return c.Send(fmt.Sprintf("Attorney %s (ID: %d) added.", newAttorney.FullName(), newAttorney.TelegramID))
	})

	b.Handle("/remove_attorney", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_attorney",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /remove_attorney <TelegramID>")
		}

		attorneyTelegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			handlerLogger.WithField("arg", args[0]).Warn("Invalid Telegram ID format")
			return c.Send("Error: Telegram ID must be a number.")
		}
		handlerLogger = handlerLogger.WithField("attorney_telegram_id", attorneyTelegramID)

		removed, err := adminService.RemoveAttorney(ctx, c.Sender().ID, attorneyTelegramID)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(msgUnauthorized)
			case errors.Is(err, idb.ErrAttorneyNotFound):
				logWithError.Warn("Attorney to remove not found")
				return c.Send(fmt.Sprintf("No attorney with Telegram ID %d.", attorneyTelegramID))
			case errors.Is(err, app.ErrAttorneyAlreadyInactive):
				logWithError.Warn("Attorney already inactive")
				return c.Send(fmt.Sprintf("Attorney %s (ID: %d) was already deactivated.", removed.FullName(), removed.TelegramID))
			default:
				logWithError.Error("Failed to remove attorney")
				return c.Send("Could not remove the attorney. Please try again later.")
			}
		}

		handlerLogger.WithField("removed_attorney_id", removed.ID).Info("Attorney deactivated")
		return c.Send(fmt.Sprintf("Attorney %s (ID: %d) deactivated. Their deadlines stay, reminders stop.", removed.FullName(), removed.TelegramID))
	})

	b.Handle("/list_attorneys", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/list_attorneys",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		listType := "active"
		if args := c.Args(); len(args) > 0 {
			listType = strings.ToLower(args[0])
		}
		handlerLogger = handlerLogger.WithField("list_type", listType)

		var list []*attorney.Attorney
		var err error
		var title string

		switch listType {
		case "active":
			title = "Active attorneys"
			list, err = adminService.ListActiveAttorneys(ctx, c.Sender().ID)
		case "all":
			title = "All attorneys"
			list, err = adminService.ListAllAttorneys(ctx, c.Sender().ID)
		default:
			handlerLogger.Warn("Invalid list type argument")
			return c.Send("Use 'active' or 'all', or leave it empty to list active attorneys.")
		}

		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(msgUnauthorized)
			}
			logWithError.Error("Failed to get list of attorneys")
			return c.Send("Could not load attorneys. Please try again later.")
		}

		if len(list) == 0 {
			if listType == "active" {
				return c.Send("No active attorneys.")
			}
			return c.Send("No attorneys registered.")
		}

		handlerLogger.WithField("attorneys_count", len(list)).Info("Successfully retrieved attorney list")

		var response strings.Builder
		response.WriteString(fmt.Sprintf("--- %s ---\n", title))
		for _, a := range list {
			status := "inactive"
			if a.IsActive {
				status = "active"
			}
			response.WriteString(fmt.Sprintf("ID: %d, Telegram ID: %d, Name: %s, Email: %s, Phone: %s, Status: %s\n",
				a.ID, a.TelegramID, a.FullName(), orDash(a.Email.String), orDash(a.Phone.String), status))
		}
		return c.Send(response.String())
	})

	b.Handle("/contact", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/contact",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		// Expected format: /contact <TelegramID> <email|phone> <value>
		args := c.Args()
		if len(args) < 3 {
			return c.Send("Usage: /contact <TelegramID> <email|phone> <value>")
		}
		attorneyTelegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: Telegram ID must be a number.")
		}

		updated, err := adminService.SetContact(ctx, c.Sender().ID, attorneyTelegramID, args[1], strings.Join(args[2:], " "))
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrInvalidContact):
				logWithError.Warn("Invalid contact value")
				return c.Send("Error: " + err.Error() + ".")
			case errors.Is(err, idb.ErrAttorneyNotFound):
				return c.Send(fmt.Sprintf("No attorney with Telegram ID %d.", attorneyTelegramID))
			default:
				logWithError.Error("Failed to update contact")
				return c.Send("Could not update the contact. Please try again later.")
			}
		}
		return c.Send(fmt.Sprintf("Updated %s for %s.", strings.ToLower(args[1]), updated.FullName()))
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

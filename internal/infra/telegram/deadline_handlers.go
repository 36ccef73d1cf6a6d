// internal/infra/telegram/deadline_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"deadline_tracker_bot/internal/app"
	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/domain/deadline"
	"deadline_tracker_bot/internal/domain/reminder"
	tg "deadline_tracker_bot/internal/domain/telegram"
	idb "deadline_tracker_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// maxListed caps how many deadline cards one /deadlines call sends.
const maxListed = 15

const msgNotRegistered = "You are not registered. Ask the administrator to add you."

// userMessage maps service errors to the text shown to the user. The flag is
// false for unexpected errors, which the caller logs at error level.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, idb.ErrDeadlineNotFound):
		return "Deadline not found.", true
	case errors.Is(err, app.ErrNoFutureReminders):
		return "Select at least one reminder time in the future.", true
	case errors.Is(err, app.ErrUnknownLeadTime):
		return fmt.Sprintf("Error: %v. Available: %s.", err, strings.Join(reminder.LeadTimeLabels(), ", ")), true
	case errors.Is(err, app.ErrUnknownChannel):
		return fmt.Sprintf("Error: %v. Available: email, sms, push.", err), true
	case errors.Is(err, app.ErrInvalidDueAt),
		errors.Is(err, app.ErrDueAtNotFuture),
		errors.Is(err, app.ErrInvalidPriority),
		errors.Is(err, app.ErrInvalidSnooze),
		errors.Is(err, app.ErrDeadlineClosed),
		errors.Is(err, app.ErrNoDeadlinesSelected),
		errors.Is(err, app.ErrEmptyPatch):
		return "Error: " + err.Error() + ".", true
	}
	return "Something went wrong. Please try again later.", false
}

type deadlineHandlers struct {
	ctx             context.Context
	service         *app.DeadlineService
	attorneyRepo    attorney.Repository
	client          tg.Client
	adminTelegramID int64
	logger          *logrus.Entry
}

// RegisterDeadlineHandlers wires the deadline commands and the inline buttons
// attached to deadline cards.
func RegisterDeadlineHandlers(
	ctx context.Context,
	b *telebot.Bot,
	service *app.DeadlineService,
	attorneyRepo attorney.Repository,
	client tg.Client,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	h := &deadlineHandlers{
		ctx:             ctx,
		service:         service,
		attorneyRepo:    attorneyRepo,
		client:          client,
		adminTelegramID: adminTelegramID,
		logger:          baseLogger.WithField("handler_group", "deadlines"),
	}

	b.Handle("/new_deadline", h.withRequester("/new_deadline", h.newDeadline))
	b.Handle("/edit_deadline", h.withRequester("/edit_deadline", h.editDeadline))
	b.Handle("/deadlines", h.withRequester("/deadlines", h.listDeadlines))
	b.Handle("/stats", h.withRequester("/stats", h.stats))
	b.Handle("/remind", h.withRequester("/remind", h.remind))
	b.Handle("/reminders", h.withRequester("/reminders", h.reminders))
	b.Handle("/done", h.withRequester("/done", h.done))
	b.Handle("/done_all", h.withRequester("/done_all", h.doneAll))
	b.Handle("/snooze", h.withRequester("/snooze", h.snooze))
	b.Handle("/calendar", h.withRequester("/calendar", h.calendar))
	b.Handle(telebot.OnCallback, h.withRequester("callback", h.callback))
}

type requesterHandler func(c telebot.Context, r requester, log *logrus.Entry) error

func (h *deadlineHandlers) withRequester(name string, next requesterHandler) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		log := h.logger.WithFields(logrus.Fields{
			"handler":   name,
			"sender_id": c.Sender().ID,
		})
		log.Info("Command received")

		r, err := resolveRequester(h.ctx, h.attorneyRepo, h.adminTelegramID, c.Sender().ID)
		if err != nil {
			if errors.Is(err, errNotRegistered) {
				log.Warn("Unregistered user")
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: msgNotRegistered})
				}
				return c.Send(msgNotRegistered)
			}
			log.WithError(err).Error("Failed to resolve sender")
			return c.Send("Something went wrong. Please try again later.")
		}
		return next(c, r, log)
	}
}

func (h *deadlineHandlers) replyError(c telebot.Context, log *logrus.Entry, err error) error {
	msg, expected := userMessage(err)
	if expected {
		log.WithError(err).Warn("Request rejected")
	} else {
		log.WithError(err).Error("Request failed")
	}
	return c.Send(msg)
}

// loadOwned fetches a deadline and checks the requester may act on it.
func (h *deadlineHandlers) loadOwned(r requester, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a deadline id", idb.ErrDeadlineNotFound, raw)
	}
	d, err := h.service.GetDeadline(h.ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !r.canTouch(d) {
		return uuid.Nil, idb.ErrDeadlineNotFound
	}
	return id, nil
}

// /new_deadline <case_id> <due> [priority] [caption...]
func (h *deadlineHandlers) newDeadline(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Usage: /new_deadline <case_id> <YYYY-MM-DDTHH:MM> [priority 1-5] [caption]")
	}

	dueAt, err := app.ParseDueAt(args[1], h.service.Location())
	if err != nil {
		return h.replyError(c, log, err)
	}

	in := app.NewDeadlineInput{
		CaseID:  args[0],
		DueAt:   dueAt,
		OwnerID: r.ownerID(),
	}
	rest := args[2:]
	if len(rest) > 0 {
		if p, err := strconv.Atoi(rest[0]); err == nil {
			in.Priority = p
			rest = rest[1:]
		}
	}
	in.CaseCaption = strings.Join(rest, " ")

	d, err := h.service.CreateDeadline(h.ctx, in)
	if err != nil {
		return h.replyError(c, log, err)
	}
	log.WithField("deadline_id", d.ID).Info("Deadline created via bot")

	view := app.DeadlineView{Deadline: d, Urgency: d.Urgency(time.Now())}
	return c.Send("Deadline created.\n\n"+formatDeadline(view, h.service.Location()), deadlineMarkup(d.ID))
}

// /edit_deadline <deadline_id> <caption|due|priority|owner> <value...>
func (h *deadlineHandlers) editDeadline(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) < 3 {
		return c.Send("Usage: /edit_deadline <deadline_id> <" + strings.ReplaceAll(editFields, ", ", "|") + "> <value>")
	}
	id, err := h.loadOwned(r, args[0])
	if err != nil {
		return h.replyError(c, log, err)
	}
	field, value := strings.ToLower(args[1]), strings.Join(args[2:], " ")

	var patch app.DeadlinePatch
	if field == "owner" {
		if !r.isAdmin {
			log.Warn("Non-admin tried to reassign a deadline")
			return c.Send(msgUnauthorized)
		}
		ownerID, err := h.resolveOwner(value)
		if err != nil {
			if errors.Is(err, idb.ErrAttorneyNotFound) {
				return c.Send(fmt.Sprintf("No active attorney with Telegram ID %s.", value))
			}
			var numErr *strconv.NumError
			if errors.As(err, &numErr) {
				return c.Send("Error: owner must be a Telegram ID or 'none'.")
			}
			return h.replyError(c, log, err)
		}
		patch.OwnerID = &ownerID
	} else {
		patch, err = parseDeadlineEdit(field, value, h.service.Location())
		if err != nil {
			if _, expected := userMessage(err); expected {
				return h.replyError(c, log, err)
			}
			return c.Send("Error: " + err.Error() + ".")
		}
	}

	d, err := h.service.UpdateDeadline(h.ctx, id, patch)
	if err != nil {
		return h.replyError(c, log, err)
	}
	log.WithFields(logrus.Fields{"deadline_id": d.ID, "field": field}).Info("Deadline edited via bot")

	view := app.DeadlineView{Deadline: d, Urgency: d.Urgency(time.Now())}
	return c.Send("Deadline updated.\n\n"+formatDeadline(view, h.service.Location()), deadlineMarkup(d.ID))
}

// resolveOwner maps an attorney Telegram ID to the attorney id stored on
// deadlines. "none" unassigns.
func (h *deadlineHandlers) resolveOwner(value string) (int64, error) {
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return 0, nil
	}
	telegramID, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, err
	}
	a, err := h.attorneyRepo.GetByTelegramID(h.ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if !a.IsActive {
		return 0, idb.ErrAttorneyNotFound
	}
	return a.ID, nil
}

// /deadlines [status] [high|medium|low] [case=<id>]
func (h *deadlineHandlers) listDeadlines(c telebot.Context, r requester, log *logrus.Entry) error {
	f, err := parseListFilter(c.Args())
	if err != nil {
		return c.Send(fmt.Sprintf("Error: %v. Use a status (open, snoozed, missed, done), a priority (high, medium, low) or case=<id>.", err))
	}
	f.OwnerID = r.ownerScope()

	views, err := h.service.ListDeadlines(h.ctx, f)
	if err != nil {
		return h.replyError(c, log, err)
	}
	if len(views) == 0 {
		return c.Send("No deadlines match.")
	}
	log.WithField("count", len(views)).Info("Listing deadlines")

	header := fmt.Sprintf("Deadlines: %d", len(views))
	if len(views) > maxListed {
		header = fmt.Sprintf("Deadlines: %d (showing the first %d)", len(views), maxListed)
		views = views[:maxListed]
	}
	if err := c.Send(header); err != nil {
		return err
	}
	for _, v := range views {
		if err := c.Send(formatDeadline(v, h.service.Location()), deadlineMarkup(v.Deadline.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (h *deadlineHandlers) stats(c telebot.Context, r requester, log *logrus.Entry) error {
	s, err := h.service.Stats(h.ctx, r.ownerScope())
	if err != nil {
		return h.replyError(c, log, err)
	}
	return c.Send(formatStats(s))
}

// /remind <deadline_id> [lead times] [| channels]
func (h *deadlineHandlers) remind(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Send("Usage: /remind <deadline_id> [1 day, 2 hours] [| email, sms, push]")
	}
	id, err := h.loadOwned(r, args[0])
	if err != nil {
		return h.replyError(c, log, err)
	}

	payload := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.Message().Payload), args[0]))
	leadTimes, channels := parseReminderPayload(payload)

	records, err := h.service.ScheduleReminders(h.ctx, id, leadTimes, channels)
	if err != nil {
		return h.replyError(c, log, err)
	}
	return c.Send(fmt.Sprintf("Scheduled %d reminder(s):\n%s", len(records), formatReminders(records, h.service.Location())))
}

func (h *deadlineHandlers) reminders(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /reminders <deadline_id>")
	}
	id, err := h.loadOwned(r, args[0])
	if err != nil {
		return h.replyError(c, log, err)
	}
	records, err := h.service.ListReminders(h.ctx, id)
	if err != nil {
		return h.replyError(c, log, err)
	}
	return c.Send(formatReminders(records, h.service.Location()))
}

func (h *deadlineHandlers) done(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /done <deadline_id>")
	}
	id, err := h.loadOwned(r, args[0])
	if err != nil {
		return h.replyError(c, log, err)
	}
	d, err := h.service.MarkComplete(h.ctx, id)
	if err != nil {
		return h.replyError(c, log, err)
	}
	return c.Send(fmt.Sprintf("Marked done: %s (%s).", d.CaseCaption, d.CaseID))
}

// /done_all <id> [id...] or /done_all all
func (h *deadlineHandlers) doneAll(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Send("Usage: /done_all <deadline_id> [deadline_id...] or /done_all all")
	}

	var ids []uuid.UUID
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		views, err := h.service.ListDeadlines(h.ctx, app.DeadlineFilter{OwnerID: r.ownerScope()})
		if err != nil {
			return h.replyError(c, log, err)
		}
		for _, v := range views {
			if v.Deadline.Status != deadline.StatusDone {
				ids = append(ids, v.Deadline.ID)
			}
		}
	} else {
		parsed, err := parseDeadlineIDs(args)
		if err != nil {
			return c.Send("Error: " + err.Error() + ".")
		}
		for _, id := range parsed {
			d, err := h.service.GetDeadline(h.ctx, id)
			if err != nil {
				if errors.Is(err, idb.ErrDeadlineNotFound) {
					continue
				}
				return h.replyError(c, log, err)
			}
			if r.canTouch(d) {
				ids = append(ids, id)
			}
		}
	}

	n, err := h.service.BulkComplete(h.ctx, ids)
	if err != nil {
		return h.replyError(c, log, err)
	}
	return c.Send(fmt.Sprintf("Marked %d deadline(s) done.", n))
}

// /snooze <deadline_id> <until>
func (h *deadlineHandlers) snooze(c telebot.Context, r requester, log *logrus.Entry) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /snooze <deadline_id> <YYYY-MM-DDTHH:MM>")
	}
	id, err := h.loadOwned(r, args[0])
	if err != nil {
		return h.replyError(c, log, err)
	}
	until, err := app.ParseDueAt(args[1], h.service.Location())
	if err != nil {
		return h.replyError(c, log, err)
	}
	d, err := h.service.Snooze(h.ctx, id, until)
	if err != nil {
		return h.replyError(c, log, err)
	}
	return c.Send(fmt.Sprintf("Snoozed until %s.", d.SnoozeUntil.Time.In(h.service.Location()).Format("Mon Jan 02 15:04")))
}

// /calendar [filters] sends the matching deadlines as an .ics attachment.
func (h *deadlineHandlers) calendar(c telebot.Context, r requester, log *logrus.Entry) error {
	f, err := parseListFilter(c.Args())
	if err != nil {
		return c.Send("Error: " + err.Error() + ".")
	}
	f.OwnerID = r.ownerScope()

	ics, err := h.service.ExportCalendar(h.ctx, f, "Case Deadlines")
	if err != nil {
		return h.replyError(c, log, err)
	}
	if err := h.client.SendDocument(c.Sender().ID, "deadlines.ics", strings.NewReader(ics), "Import into your calendar app."); err != nil {
		log.WithError(err).Error("Failed to send calendar file")
		return c.Send("Could not send the calendar file. Please try again later.")
	}
	return nil
}

func (h *deadlineHandlers) callback(c telebot.Context, r requester, log *logrus.Entry) error {
	action, id, err := parseCallbackData(c.Callback().Data)
	if err != nil {
		c.Bot().OnError(err, c)
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	}
	log = log.WithFields(logrus.Fields{"action": action, "deadline_id": id})

	if _, err := h.loadOwned(r, id.String()); err != nil {
		msg, _ := userMessage(err)
		return c.Respond(&telebot.CallbackResponse{Text: msg})
	}

	switch action {
	case callbackDone:
		if _, err := h.service.MarkComplete(h.ctx, id); err != nil {
			msg, expected := userMessage(err)
			if !expected {
				log.WithError(err).Error("Failed to complete deadline from button")
			}
			return c.Respond(&telebot.CallbackResponse{Text: msg})
		}
		log.Info("Deadline completed from button")
		return c.Respond(&telebot.CallbackResponse{Text: "Marked done."})
	case callbackRemind:
		records, err := h.service.ScheduleReminders(h.ctx, id, nil, nil)
		if err != nil {
			msg, expected := userMessage(err)
			if !expected {
				log.WithError(err).Error("Failed to schedule default reminder from button")
			}
			return c.Respond(&telebot.CallbackResponse{Text: msg, ShowAlert: expected})
		}
		return c.Respond(&telebot.CallbackResponse{
			Text: fmt.Sprintf("Reminder set for %s.", records[0].NotifyAt.In(h.service.Location()).Format("Jan 02 15:04")),
		})
	}

	c.Bot().OnError(fmt.Errorf("unhandled callback action %q", action), c)
	return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
}

func deadlineMarkup(id uuid.UUID) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{{
			{Text: "✅ Mark done", Data: callbackData(callbackDone, id)},
			{Text: "⏰ Remind 1 day before", Data: callbackData(callbackRemind, id)},
		}},
	}
}

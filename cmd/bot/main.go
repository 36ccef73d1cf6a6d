package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // LOCAL_TIMEZONE must resolve in minimal containers

	"deadline_tracker_bot/internal/app"
	"deadline_tracker_bot/internal/domain/reminder"
	"deadline_tracker_bot/internal/infra/config"
	idb "deadline_tracker_bot/internal/infra/database"
	"deadline_tracker_bot/internal/infra/logger"
	"deadline_tracker_bot/internal/infra/notify"
	"deadline_tracker_bot/internal/infra/scheduler"
	"deadline_tracker_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithField("admin_id", cfg.AdminTelegramID).Info("Deadline Tracker Bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = idb.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database schema")
	}
	mainLogger.Info("Database connection established and schema applied.")

	attorneyRepo := idb.NewPostgresAttorneyRepository(db)
	deadlineRepo := idb.NewPostgresDeadlineRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
					"text":      c.Text(),
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	adminService := app.NewAdminService(attorneyRepo, cfg.AdminTelegramID)
	deadlineService := app.NewDeadlineService(deadlineRepo, reminderRepo, cfg.Location, logger.Component("deadline_service"))

	senders := map[reminder.Channel]app.ChannelSender{
		reminder.ChannelPush: notify.NewPushSender(telegramClient),
	}
	if cfg.SMTP.Enabled() {
		senders[reminder.ChannelEmail] = notify.NewEmailSender(cfg.SMTP)
	} else {
		mainLogger.Warn("SMTP is not configured; email reminders will be skipped")
	}
	if cfg.Twilio.Enabled() {
		senders[reminder.ChannelSMS] = notify.NewSMSSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, logger.Component("sms"))
	} else {
		mainLogger.Warn("Twilio is not configured; SMS reminders will be skipped")
	}
	dispatchService := app.NewDispatchService(reminderRepo, deadlineRepo, attorneyRepo, senders, cfg.Location, logger.Component("dispatch_service"))

	reminderScheduler := scheduler.NewReminderScheduler(
		dispatchService,
		logger.Component("scheduler"),
		cfg.Location,
		cfg.CronSpecReminderDispatch,
		cfg.CronSpecDeadlineSweep,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	handlerLogger := logger.Component("telegram")
	telegram.RegisterBotCommands(ctx, bot, cfg, attorneyRepo, handlerLogger)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, cfg.AdminTelegramID, handlerLogger)
	telegram.RegisterDeadlineHandlers(ctx, bot, deadlineService, attorneyRepo, telegramClient, cfg.AdminTelegramID, handlerLogger)
	mainLogger.Info("Telegram handlers registered.")

	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running.")

	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	reminderScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

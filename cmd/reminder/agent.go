package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"medicine_reminder/internal/app"
	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/infra/audio"
	"medicine_reminder/internal/infra/config"
	"medicine_reminder/internal/infra/database"
	"medicine_reminder/internal/infra/desktop"
	"medicine_reminder/internal/infra/logger"
	"medicine_reminder/internal/infra/scheduler"
	"medicine_reminder/internal/infra/schedules"
	"medicine_reminder/internal/infra/syncclient"
	"medicine_reminder/internal/infra/telegram"
	"medicine_reminder/internal/infra/web"

	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

func newAgentCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Run the reminder agent: matcher, notifications, asset cache and sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd.Context(), cfg)
		},
	}
}

func runAgent(ctx context.Context, cfg *config.AppConfig) error {
	log := logger.For("agent")
	log.Infof("Medicine reminder agent starting (env %s)", cfg.Environment)

	db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("could not open local database: %w", err)
	}
	defer db.Close()
	log.Infof("Local database ready at %s", cfg.SQLitePath)

	queue := database.NewSQLiteAckQueue(db)
	notifLog := database.NewSQLiteNotificationLog(db)

	coordinator := app.NewSyncCoordinator(queue,
		syncclient.New(cfg.SyncURL, cfg.SyncToken, cfg.SyncTimeout),
		logger.For("sync"))
	actions := app.NewActionService(queue, coordinator, logger.For("actions"))

	var (
		sinks  []notification.NotificationSink
		grants []notification.PermissionSource
	)

	if cfg.DesktopNotifications {
		notifier, err := desktop.Connect("Medicine Reminder", logger.For("desktop"))
		if err != nil {
			log.WithError(err).Warn("Desktop notifications unavailable")
		} else {
			defer notifier.Close()
			sinks = append(sinks, notifier)
			grants = append(grants, notifier)
			err = notifier.ListenActions(ctx, func(ctx context.Context, action, scheduleID string) {
				if _, err := actions.Handle(ctx, action, scheduleID); err != nil {
					log.WithError(err).Error("Failed to handle desktop notification action")
				}
			})
			if err != nil {
				log.WithError(err).Warn("Desktop notification actions unavailable")
			}
		}
	}

	if cfg.TelegramEnabled() {
		bot, err := newBot(cfg)
		if err != nil {
			return err
		}
		sink := telegram.NewSink(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID)
		sinks = append(sinks, sink)
		grants = append(grants, sink)
		telegram.RegisterActionHandlers(ctx, bot, cfg.TelegramChatID, actions, logger.For("telegram"))
		telegram.RegisterBotCommands(ctx, bot, cfg.TelegramChatID, queue, coordinator, logger.For("telegram"))
		go bot.Start()
		defer bot.Stop()
		log.Info("Telegram channel enabled")
	}

	dispatcher := app.NewDispatcher(app.DispatcherDeps{
		Permission: app.PermissionGate{Enabled: cfg.NotificationsEnabled, Sources: grants},
		Sinks:      sinks,
		Sound:      &audio.CommandPlayer{Command: cfg.SoundPlayer, File: cfg.SoundFile},
		Tone:       audio.NewTonePlayer(cfg.TonePlayer),
		Alerter:    &audio.Alerter{Command: cfg.AlertCommand, Out: os.Stderr},
		Viewport:   audio.Viewport{Width: cfg.ViewportWidth},
		Log:        notifLog,
	}, logger.For("dispatcher"))

	poller := scheduler.NewPoller(logger.For("scheduler"))
	reminders := app.NewReminderService(schedules.NewFileSource(cfg.SchedulesFile, logger.For("schedules")), dispatcher, notifLog, logger.For("reminders"))
	matchHandle, err := reminders.Start(poller, cfg.CronSpecMatch)
	if err != nil {
		return fmt.Errorf("could not start reminder polling: %w", err)
	}
	defer matchHandle.Stop()

	syncHandle, err := coordinator.StartFallback(poller, cfg.CronSpecSync)
	if err != nil {
		return fmt.Errorf("could not start sync polling: %w", err)
	}
	defer syncHandle.Stop()

	var reconnects <-chan struct{}
	if cfg.ConnectivityCheck {
		prober, err := syncclient.NewDialProber(cfg.SyncURL, cfg.SyncTimeout)
		if err != nil {
			return err
		}
		reconnects = app.NewConnectivityWatcher(prober, cfg.ConnectivityInterval, logger.For("connectivity")).Watch(ctx)
	}
	go coordinator.Run(ctx, reconnects)

	var assets http.Handler
	if cfg.AssetOrigin != "" {
		assetCache, err := app.NewAssetCache(database.NewSQLiteCacheStore(db),
			&http.Client{Timeout: cfg.SyncTimeout},
			cfg.AssetOrigin, cfg.AssetManifest, cfg.CachePrefix, logger.For("assets"))
		if err != nil {
			return err
		}
		assets = assetCache
		log.Infof("Asset cache for %s in bucket %s", cfg.AssetOrigin, assetCache.BucketName(cfg.CacheGeneration))
		go func() {
			if _, err := assetCache.Update(ctx, cfg.CacheGeneration); err != nil {
				log.WithError(err).Error("Asset cache update failed, serving from the network")
			}
		}()
	}

	router := web.NewAgentRouter(web.AgentDeps{
		Push:    dispatcher,
		Actions: actions,
		Sync:    coordinator,
		Assets:  assets,
	}, logger.For("http"))

	err = serve(ctx, &http.Server{
		Addr:              cfg.AgentListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	})
	log.Info("Agent shut down")
	return err
}

func newBot(cfg *config.AppConfig) (*telebot.Bot, error) {
	tgLog := logger.For("telebot")
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := tgLog.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return bot, nil
}

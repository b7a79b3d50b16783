package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"smart-todo/internal/auth"
	"smart-todo/internal/bot"
	"smart-todo/internal/config"
	apihttp "smart-todo/internal/http"
	"smart-todo/internal/lock"
	"smart-todo/internal/logger"
	"smart-todo/internal/mail"
	"smart-todo/internal/model"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init("smart-todo", cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, log.WithField("component", "gorm"))
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "serve":
		err = serve(cfg, db, log)
	case "user":
		err = addUser(cfg, db, log, os.Args[2:])
	case "token":
		err = issueToken(cfg, db, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q (want serve, user or token)", cmd)
	}
	if err != nil {
		log.WithError(err).Fatal(cmd)
	}
}

func serve(cfg config.Config, db *gorm.DB, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	settingsSvc := service.NewSettingsService(repository.NewSettingRepository(db), settingsDefaults(cfg), log)
	if _, err := settingsSvc.Get(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	mailer := mail.NewSMTPMailer(settingsSvc, cfg.SMTP.Timeout)

	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Addr != "" {
		client, err := lock.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		locker = lock.NewRedis(client, 30*time.Second)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis task locks")
	}

	reminderSvc := service.NewReminderService(service.ReminderDeps{
		Tasks:    taskRepo,
		Users:    userRepo,
		Notifier: notificationRepo,
		Mailer:   mailer,
		Defaults: settingsSvc,
		Locker:   locker,
		Location: cfg.Location,
		Log:      log.WithField("component", "reminders"),
	})
	taskSvc := service.NewTaskService(taskRepo, reminderSvc, settingsSvc, nil, cfg.Location, log.WithField("component", "tasks"))
	accountSvc := service.NewAccountService(userRepo, notificationRepo, mailer, settingsSvc, nil, log.WithField("component", "accounts"))

	botDone := make(chan struct{})
	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, userRepo, taskSvc, notificationRepo, cfg.Location, log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		reminderSvc.SetMessenger(telegramBot)
		go func() {
			defer close(botDone)
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("bot stopped with error")
			}
		}()
	} else {
		close(botDone)
		log.Info("TELEGRAM_TOKEN not set, telegram delivery disabled")
	}

	scheduler := service.NewSchedulerService(cfg.Location, log.WithField("component", "cron"))
	if _, err := scheduler.ScheduleInterval(cfg.ReminderCheckInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), cfg.ReminderCheckInterval)
		defer cancel()
		if _, err := reminderSvc.CheckAll(jobCtx, "cron"); err != nil {
			log.WithError(err).Error("reminder pass")
		}
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := apihttp.NewRouter(apihttp.Deps{
		DB:            db,
		Tasks:         taskSvc,
		Reminders:     reminderSvc,
		Settings:      settingsSvc,
		Accounts:      accountSvc,
		Notifications: notificationRepo,
		Users:         userRepo,
		Tokens:        auth.NewIssuer(cfg.JWTSecret, 24*time.Hour),
		TriggerSecret: cfg.ReminderCheckSecret,
		Version:       version,
		Log:           log.WithField("component", "http"),
	})
	srv := &nethttp.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.AppPort, "version": version}).Info("smart-todo started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	<-botDone
	log.Info("shutdown complete")
	return nil
}

func settingsDefaults(cfg config.Config) model.Setting {
	return model.Setting{
		DefaultReminderTimes: model.Offsets(cfg.ReminderTimes).Normalize(),
		MailServer:           cfg.SMTP.Host,
		MailPort:             cfg.SMTP.Port,
		MailUseTLS:           cfg.SMTP.UseTLS,
		MailUsername:         cfg.SMTP.Username,
		MailPassword:         cfg.SMTP.Password,
		MailDefaultSender:    cfg.SMTP.Sender,
	}
}

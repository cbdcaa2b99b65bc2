package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tazhate/valenbot/config"
	"github.com/tazhate/valenbot/internal/bot"
	"github.com/tazhate/valenbot/internal/clients/caldav"
	"github.com/tazhate/valenbot/internal/logger"
	"github.com/tazhate/valenbot/internal/scheduler"
	"github.com/tazhate/valenbot/internal/service"
	"github.com/tazhate/valenbot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; exit immediately.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal("init storage", zap.Error(err))
	}
	defer store.Close()

	sched := scheduler.New(cfg, store, log)

	publisher := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar, cfg.Timezone)
	subs := service.NewSubscriptionService(cfg, store, sched, publisher, log)

	tgBot, err := bot.New(cfg, log, subs)
	if err != nil {
		log.Fatal("init bot", zap.Error(err))
	}
	sched.SetSender(tgBot)

	// Rebuild jobs for existing subscribers before accepting updates.
	if err := sched.Start(); err != nil {
		log.Fatal("start scheduler", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Error("bot error", zap.Error(err))
		}
	}()

	log.Info("valenbot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Error("stop bot", zap.Error(err))
	}

	log.Info("valenbot stopped")
}

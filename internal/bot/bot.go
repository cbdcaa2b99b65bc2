package bot

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tazhate/valenbot/config"
	"github.com/tazhate/valenbot/internal/service"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    *config.Config
	log    *zap.Logger
	subs   *service.SubscriptionService
	server *http.Server
}

func New(cfg *config.Config, log *zap.Logger, subs *service.SubscriptionService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("authorized", zap.String("username", api.Self.UserName))

	b := &Bot{
		api:  api,
		cfg:  cfg,
		log:  log,
		subs: subs,
	}

	// Set bot commands (menu button)
	b.setCommands()

	return b, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Subscribe to daily reminders"},
		{Command: "stop", Description: "Unsubscribe from reminders"},
		{Command: "setmorning", Description: "Set the morning reminder time"},
		{Command: "setevening", Description: "Set the evening reminder time"},
		{Command: "status", Description: "Show your current settings"},
		{Command: "export", Description: "Export your schedule as iCalendar"},
		{Command: "help", Description: "Command reference"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Warn("set commands failed", zap.Error(err))
	}
}

// Start begins long polling and serves the health endpoint until ctx is
// cancelled. The scheduler must be started (job table rebuilt) before this
// is called.
func (b *Bot) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	b.server = &http.Server{
		Addr:    ":" + b.cfg.ServerPort,
		Handler: mux,
	}

	go func() {
		b.log.Info("health server started", zap.String("port", b.cfg.ServerPort))
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

// SendMessage sends a plain text message to the given chat. This makes Bot
// satisfy scheduler.Sender.
func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

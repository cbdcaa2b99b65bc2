package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tazhate/valenbot/internal/domain"
	"github.com/tazhate/valenbot/internal/service"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.cmdStart(chatID)
	case "stop":
		b.cmdStop(chatID)
	case "setmorning":
		b.cmdSetTime(chatID, domain.SlotMorning, args)
	case "setevening":
		b.cmdSetTime(chatID, domain.SlotEvening, args)
	case "status":
		b.cmdStatus(chatID)
	case "export":
		b.cmdExport(chatID)
	case "help":
		b.reply(chatID, helpText)
	default:
		b.reply(chatID, unknownCommandText)
	}
}

func (b *Bot) cmdStart(chatID int64) {
	if _, err := b.subs.Subscribe(chatID); err != nil {
		b.log.Error("subscribe", zap.Int64("user_id", chatID), zap.Error(err))
		b.reply(chatID, errorText)
		return
	}
	b.reply(chatID, fmt.Sprintf(welcomeFmt, b.cfg.MorningTime, b.cfg.EveningTime))
}

func (b *Bot) cmdStop(chatID int64) {
	if err := b.subs.Unsubscribe(chatID); err != nil {
		b.log.Error("unsubscribe", zap.Int64("user_id", chatID), zap.Error(err))
		b.reply(chatID, errorText)
		return
	}
	b.reply(chatID, goodbyeText)
}

func (b *Bot) cmdSetTime(chatID int64, slot domain.Slot, args string) {
	if args == "" {
		b.reply(chatID, fmt.Sprintf(timeUsageFmt, slot, timeExample(slot)))
		return
	}

	canonical, err := b.subs.SetReminderTime(chatID, slot, args)
	switch {
	case errors.Is(err, domain.ErrInvalidTimeFormat):
		b.reply(chatID, timeFormatHelp)
	case errors.Is(err, service.ErrNotSubscribed):
		b.reply(chatID, notSubscribedText)
	case err != nil:
		b.log.Error("set reminder time",
			zap.Int64("user_id", chatID),
			zap.String("slot", string(slot)),
			zap.Error(err))
		b.reply(chatID, errorText)
	default:
		b.reply(chatID, fmt.Sprintf(timeSetFmt, slot, canonical))
	}
}

func (b *Bot) cmdStatus(chatID int64) {
	user, err := b.subs.Status(chatID)
	if err != nil {
		b.log.Error("status", zap.Int64("user_id", chatID), zap.Error(err))
		b.reply(chatID, errorText)
		return
	}
	if user == nil || !user.Subscribed {
		b.reply(chatID, notSubscribedText)
		return
	}

	last := user.LastInteractionDate
	if last == "" {
		last = "never"
	}
	b.reply(chatID, fmt.Sprintf(statusFmt, user.MorningTime, user.EveningTime, last))
}

func (b *Bot) cmdExport(chatID int64) {
	ics, err := b.subs.ExportCalendar(chatID)
	if errors.Is(err, service.ErrNotSubscribed) {
		b.reply(chatID, notSubscribedText)
		return
	}
	if err != nil {
		b.log.Error("export calendar", zap.Int64("user_id", chatID), zap.Error(err))
		b.reply(chatID, errorText)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "valen-reminders.ics",
		Bytes: []byte(ics),
	})
	if _, err := b.api.Send(doc); err != nil {
		b.log.Warn("send export failed", zap.Int64("user_id", chatID), zap.Error(err))
	}
}

func timeExample(slot domain.Slot) string {
	if slot == domain.SlotEvening {
		return "9 PM"
	}
	return "8:30 AM"
}

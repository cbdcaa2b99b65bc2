package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	b.handleMessage(msg)
}

// handleMessage counts any non-command message (check-in text, emoji, reply)
// from a subscribed user as an interaction. Strangers are ignored.
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	userID := msg.Chat.ID
	if err := b.subs.RecordInteraction(userID); err != nil {
		b.log.Error("record interaction", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.log.Warn("send reply failed", zap.Int64("user_id", chatID), zap.Error(err))
	}
}

package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/handlers"
	"github.com/mroshb/anon_chat/pkg/logger"
)

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	data := query.Data
	logger.Debug("Callback query", "data", data, "user_id", query.From.ID)

	switch {
	case strings.HasPrefix(data, handlers.CbGender):
		b.handlers.HandleGenderCallback(query, b)
	case strings.HasPrefix(data, handlers.CbSeeking):
		b.handlers.HandleSeekingCallback(query, b)
	case data == handlers.CbCancel:
		b.handlers.HandleCancelSearchCallback(query, b)
	case strings.HasPrefix(data, handlers.CbRate):
		b.handlers.HandleRateCallback(query, b)
	case strings.HasPrefix(data, handlers.CbReport):
		b.handlers.HandleReportCallback(query, b)
	case strings.HasPrefix(data, handlers.CbFbSkip):
		b.handlers.HandleFeedbackSkipCallback(query, b)
	default:
		b.AnswerCallbackQuery(query.ID, "", false)
	}
}

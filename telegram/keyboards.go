package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/handlers"
)

// MainMenuKeyboard creates the main menu keyboard. The reveal button shows
// the current state; pressing it toggles.
func MainMenuKeyboard(isAdmin, revealReady bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	// Row 1 - Find partner
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnFindPartner),
	))

	revealBtn := handlers.BtnRevealOff
	if revealReady {
		revealBtn = handlers.BtnRevealOn
	}

	// Row 2 - Preferences - Reveal
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnPreferences),
		tgbotapi.NewKeyboardButton(revealBtn),
	))

	// Row 3 - Help
	row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(handlers.BtnHelp))
	if isAdmin {
		row = append(row, tgbotapi.NewKeyboardButton(handlers.BtnAdminStats))
	}
	rows = append(rows, row)

	return tgbotapi.NewReplyKeyboard(rows...)
}

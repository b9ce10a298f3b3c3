package handlers

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/models"
)

// ChatKeyboard is shown while a session is active
func ChatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(CmdNext),
			tgbotapi.NewKeyboardButton(CmdStop),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(CmdReveal),
		),
	)
}

// GenderKeyboard asks for the user's own gender
func GenderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnMale, CbGender+models.GenderMale),
			tgbotapi.NewInlineKeyboardButtonData(BtnFemale, CbGender+models.GenderFemale),
		),
	)
}

// SeekingKeyboard asks who the user wants to be matched with
func SeekingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnSeekMale, CbSeeking+models.GenderMale),
			tgbotapi.NewInlineKeyboardButtonData(BtnSeekFemale, CbSeeking+models.GenderFemale),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnSeekAny, CbSeeking+models.SeekingAny),
		),
	)
}

func SearchCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbCancel),
		),
	)
}

var complaintLabels = []struct {
	reason, label string
}{
	{models.ComplaintSpam, "🚩 Spam"},
	{models.ComplaintAbuse, "🚩 Abuse"},
	{models.ComplaintExplicit, "🚩 Explicit"},
	{models.ComplaintUnderage, "🚩 Underage"},
}

// FeedbackKeyboard offers 1-5 stars, report reasons and skip for a finished session
func FeedbackKeyboard(sessionID string) tgbotapi.InlineKeyboardMarkup {
	var stars []tgbotapi.InlineKeyboardButton
	for score := 1; score <= 5; score++ {
		stars = append(stars, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(score)+"⭐", CbRate+sessionID+":"+strconv.Itoa(score)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(stars...)}

	var reports []tgbotapi.InlineKeyboardButton
	for _, c := range complaintLabels {
		reports = append(reports, tgbotapi.NewInlineKeyboardButtonData(c.label, CbReport+sessionID+":"+c.reason))
		if len(reports) == 2 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(reports...))
			reports = nil
		}
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnSkipFeedback, CbFbSkip+sessionID),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

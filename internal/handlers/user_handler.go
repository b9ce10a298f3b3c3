package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/internal/services"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// Bot interface to avoid circular dependency
type BotInterface interface {
	services.Messenger
	services.MenuResolver
	SendRequest(method string, params tgbotapi.Params) (int, error)
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
}

// HandleStart registers the user on first contact. A user with an active
// session gets the chat keyboard back instead of the menu.
func (h *HandlerManager) HandleStart(from *tgbotapi.User, bot BotInterface) {
	user, err := h.UserRepo.EnsureUser(from.ID, from.FirstName, from.LastName, from.UserName)
	if err != nil {
		logger.Error("Failed to ensure user", "user_id", from.ID, "error", err)
		bot.SendMessage(from.ID, MsgError, nil)
		return
	}

	_, _, inChat, err := h.Runtime.Materialize(from.ID)
	if err != nil {
		logger.Error("Failed to restore session", "user_id", from.ID, "error", err)
	}
	if inChat {
		bot.SendMessage(from.ID, MsgAlreadyInChat, ChatKeyboard())
		return
	}

	if !user.HasPreferences() {
		bot.SendMessage(from.ID, MsgWelcome, bot.MenuFor(from.ID))
		bot.SendMessage(from.ID, MsgAskGender, GenderKeyboard())
		return
	}

	bot.SendMessage(from.ID, MsgWelcomeBack, bot.MenuFor(from.ID))
}

func (h *HandlerManager) HandleHelp(userID int64, bot BotInterface) {
	bot.SendMessage(userID, MsgHelp, bot.MenuFor(userID))
}

// ShowPreferences starts the gender then seeking selection.
func (h *HandlerManager) ShowPreferences(userID int64, bot BotInterface) {
	bot.SendMessage(userID, MsgAskGender, GenderKeyboard())
}

// HandleGenderCallback stores the user's own gender and asks for seeking.
func (h *HandlerManager) HandleGenderCallback(query *tgbotapi.CallbackQuery, bot BotInterface) {
	userID := query.From.ID
	gender := strings.TrimPrefix(query.Data, CbGender)

	if !models.ValidGender(gender) {
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}
	if err := h.UserRepo.UpdateGender(userID, gender); err != nil {
		logger.Error("Failed to update gender", "user_id", userID, "error", err)
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, "", false)
	h.editOrSend(query, MsgAskSeeking, SeekingKeyboard(), bot)
}

// HandleSeekingCallback stores the seeking preference.
func (h *HandlerManager) HandleSeekingCallback(query *tgbotapi.CallbackQuery, bot BotInterface) {
	userID := query.From.ID
	seeking := strings.TrimPrefix(query.Data, CbSeeking)

	if !models.ValidSeeking(seeking) {
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}
	if err := h.UserRepo.UpdateSeeking(userID, seeking); err != nil {
		logger.Error("Failed to update seeking", "user_id", userID, "error", err)
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, MsgPreferencesSaved, false)
	h.editOrSend(query, MsgPreferencesSaved, nil, bot)
	bot.SendMessage(userID, MsgReadyToSearch, bot.MenuFor(userID))
}

// ToggleReveal flips the user's consent to show the profile on mutual reveal.
func (h *HandlerManager) ToggleReveal(userID int64, enable bool, bot BotInterface) {
	if err := h.UserRepo.SetRevealReady(userID, enable); err != nil {
		logger.Error("Failed to update reveal flag", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}

	text := MsgRevealReadyOff
	if enable {
		text = MsgRevealReadyOn
	}
	bot.SendMessage(userID, text, bot.MenuFor(userID))
}

func (h *HandlerManager) editOrSend(query *tgbotapi.CallbackQuery, text string, keyboard interface{}, bot BotInterface) {
	if query.Message != nil {
		bot.EditMessage(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
		return
	}
	bot.SendMessage(query.From.ID, text, keyboard)
}

package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// FindPartner queues the user with their saved preferences and tries to
// pair them right away.
func (h *HandlerManager) FindPartner(userID int64, bot BotInterface) {
	_, _, inChat, err := h.Runtime.Materialize(userID)
	if err != nil {
		logger.Error("Failed to check active session", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	if inChat {
		bot.SendMessage(userID, MsgAlreadyInChat, ChatKeyboard())
		return
	}

	gender, seeking, ok, err := h.UserRepo.GetPreferences(userID)
	if err != nil {
		logger.Error("Failed to get preferences", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	if !ok {
		bot.SendMessage(userID, MsgNeedPreferences, nil)
		bot.SendMessage(userID, MsgAskGender, GenderKeyboard())
		return
	}

	queued, err := h.Matcher.InQueue(userID)
	if err != nil {
		logger.Error("Failed to check queue", "user_id", userID, "error", err)
	}
	if queued {
		bot.SendMessage(userID, MsgAlreadySearching, SearchCancelKeyboard())
		return
	}

	h.startSearch(userID, gender, seeking, bot)
}

func (h *HandlerManager) startSearch(userID int64, gender, seeking string, bot BotInterface) {
	if err := h.Matcher.Enqueue(userID, gender, seeking); err != nil {
		logger.Error("Failed to enqueue", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, bot.MenuFor(userID))
		return
	}

	searchMsgID := bot.SendMessage(userID, MsgSearching, SearchCancelKeyboard())

	session, err := h.Matcher.TryMatchNow(userID)
	if err != nil {
		// Still queued; a later requester can pick this user up
		logger.Error("Immediate match failed", "user_id", userID, "error", err)
		return
	}
	if session == nil {
		return
	}

	bot.DeleteMessage(userID, searchMsgID)
	h.announceMatch(session, bot)
}

func (h *HandlerManager) announceMatch(session *models.ChatSession, bot BotInterface) {
	for _, p := range []int64{session.ParticipantA, session.ParticipantB} {
		peer, _ := session.PeerOf(p)

		summary, err := h.RatingRepo.AverageFor(peer)
		if err != nil {
			logger.Warn("Failed to load rating", "user_id", peer, "error", err)
		}
		bot.SendMessage(p, fmt.Sprintf(MsgMatchFound, FormatRating(summary)), ChatKeyboard())
	}
}

// FormatRating renders an average score for the match greeting.
func FormatRating(s models.RatingSummary) string {
	if s.Count == 0 {
		return MsgNoRatingYet
	}
	return fmt.Sprintf("%.1f/5 (%d)", s.Average, s.Count)
}

// CancelSearch removes the user from the queue.
func (h *HandlerManager) CancelSearch(userID int64, bot BotInterface) {
	queued, err := h.Matcher.InQueue(userID)
	if err != nil {
		logger.Error("Failed to check queue", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	if !queued {
		bot.SendMessage(userID, MsgNotSearching, bot.MenuFor(userID))
		return
	}

	if err := h.Matcher.Dequeue(userID); err != nil {
		logger.Error("Failed to dequeue", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	bot.SendMessage(userID, MsgSearchCancelled, bot.MenuFor(userID))
}

func (h *HandlerManager) HandleCancelSearchCallback(query *tgbotapi.CallbackQuery, bot BotInterface) {
	bot.AnswerCallbackQuery(query.ID, "", false)
	if query.Message != nil {
		bot.DeleteMessage(query.Message.Chat.ID, query.Message.MessageID)
	}
	h.CancelSearch(query.From.ID, bot)
}

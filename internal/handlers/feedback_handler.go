package handlers

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/internal/services"
	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// FeedbackPrompter asks each participant to rate or report the partner
// once a session has ended.
type FeedbackPrompter struct {
	messenger services.Messenger
}

func NewFeedbackPrompter(messenger services.Messenger) *FeedbackPrompter {
	return &FeedbackPrompter{messenger: messenger}
}

func (f *FeedbackPrompter) OnSessionEnded(participant, peer int64, sessionID string) {
	f.messenger.SendMessage(participant, MsgRatePrompt, FeedbackKeyboard(sessionID))
}

// ParseFeedbackData splits "<prefix><session id>:<value>" callback data.
func ParseFeedbackData(data, prefix string) (sessionID, value string, ok bool) {
	rest := strings.TrimPrefix(data, prefix)
	if rest == data {
		return "", "", false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// feedbackPeer returns the rated partner when userID took part in the session.
func (h *HandlerManager) feedbackPeer(sessionID string, userID int64) (int64, bool) {
	session, err := h.SessionRepo.GetSession(sessionID)
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			logger.Error("Failed to load session for feedback", "session_id", sessionID, "error", err)
		}
		return 0, false
	}
	return session.PeerOf(userID)
}

func (h *HandlerManager) HandleRateCallback(query *tgbotapi.CallbackQuery, bot BotInterface) {
	userID := query.From.ID

	sessionID, raw, ok := ParseFeedbackData(query.Data, CbRate)
	score, err := strconv.Atoi(raw)
	if !ok || err != nil || score < 1 || score > 5 {
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}

	peer, ok := h.feedbackPeer(sessionID, userID)
	if !ok {
		bot.AnswerCallbackQuery(query.ID, MsgNotYourChat, true)
		return
	}

	err = h.RatingRepo.AddRating(&models.Rating{
		SessionID: sessionID,
		RaterID:   userID,
		RatedID:   peer,
		Score:     score,
	})
	switch {
	case err == nil:
		bot.AnswerCallbackQuery(query.ID, MsgRateThanks, false)
		h.editOrSend(query, MsgRateThanks, nil, bot)
		logger.Info("Session rated", "session_id", sessionID, "rater_id", userID, "score", score)
	case errors.IsCode(err, errors.ErrCodeAlreadyExists):
		bot.AnswerCallbackQuery(query.ID, MsgRateDuplicate, true)
	default:
		logger.Error("Failed to save rating", "session_id", sessionID, "error", err)
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
	}
}

func (h *HandlerManager) HandleReportCallback(query *tgbotapi.CallbackQuery, bot BotInterface) {
	userID := query.From.ID

	sessionID, reason, ok := ParseFeedbackData(query.Data, CbReport)
	if !ok || !validComplaint(reason) {
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}

	peer, ok := h.feedbackPeer(sessionID, userID)
	if !ok {
		bot.AnswerCallbackQuery(query.ID, MsgNotYourChat, true)
		return
	}

	if err := h.RatingRepo.AddComplaint(&models.Complaint{
		SessionID:  sessionID,
		ReporterID: userID,
		ReportedID: peer,
		Reason:     reason,
	}); err != nil {
		logger.Error("Failed to save complaint", "session_id", sessionID, "error", err)
		bot.AnswerCallbackQuery(query.ID, MsgError, true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, MsgReportThanks, false)
	h.editOrSend(query, MsgReportThanks, nil, bot)
	logger.Info("Complaint filed", "session_id", sessionID, "reporter_id", userID, "reason", reason)
}

func (h *HandlerManager) HandleFeedbackSkipCallback(query *tgbotapi.CallbackQuery, bot BotInterface) {
	bot.AnswerCallbackQuery(query.ID, "", false)
	h.editOrSend(query, MsgFeedbackSkipped, nil, bot)
}

func validComplaint(reason string) bool {
	for _, c := range complaintLabels {
		if c.reason == reason {
			return true
		}
	}
	return false
}

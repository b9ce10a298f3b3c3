package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/metrics"
	"github.com/mroshb/anon_chat/internal/services"
	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/mroshb/anon_chat/pkg/logger"
	"github.com/mroshb/anon_chat/pkg/utils"
)

// HandleChatMessage routes inbound content of a user in an active session.
// It returns false when the user has no active session.
func (h *HandlerManager) HandleChatMessage(message *tgbotapi.Message, bot BotInterface) bool {
	userID := message.From.ID

	peer, _, ok, err := h.Runtime.Materialize(userID)
	if err != nil {
		logger.Error("Failed to get active session", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return true
	}
	if !ok {
		return false
	}

	// Every inbound message counts as activity, including throttled ones
	h.Runtime.Touch(userID)

	switch utils.NormalizeCommand(message.Text) {
	case CmdStop:
		h.StopChat(userID, bot)
		return true
	case CmdNext:
		h.NextChat(userID, bot)
		return true
	case CmdReveal:
		if _, err := h.Disclosure.RequestReveal(userID); err != nil {
			logger.Error("Reveal failed", "user_id", userID, "error", err)
			bot.SendMessage(userID, MsgError, nil)
		}
		return true
	}

	if message.IsCommand() {
		bot.SendMessage(userID, MsgCommandsBlocked, ChatKeyboard())
		return true
	}

	h.relay(message, peer, bot)
	return true
}

func (h *HandlerManager) relay(message *tgbotapi.Message, peer int64, bot BotInterface) {
	userID := message.From.ID

	req, ok := BuildRelay(message, peer)
	if !ok {
		if req.Kind == KindUnsupported {
			metrics.RelayedMessages.WithLabelValues("rejected").Inc()
			bot.SendMessage(userID, MsgUnsupportedKind, nil)
		}
		return
	}

	if !h.Limiter.CheckUserLimit(userID) {
		metrics.RelayedMessages.WithLabelValues("throttled").Inc()
		bot.SendMessage(userID, MsgSlowDown, nil)
		return
	}

	if _, err := bot.SendRequest(req.Method, req.Params); err != nil {
		logger.Warn("Failed to relay message", "from", userID, "to", peer, "kind", string(req.Kind), "error", err)
		bot.SendMessage(userID, MsgRelayFailed, nil)
		return
	}

	metrics.RelayedMessages.WithLabelValues(string(req.Kind)).Inc()
	if req.Redacted {
		metrics.Redactions.Inc()
	}
	logger.Debug("Message relayed", "from", userID, "to", peer, "kind", string(req.Kind), "redacted", req.Redacted)
}

// StopChat ends the user's session.
func (h *HandlerManager) StopChat(userID int64, bot BotInterface) {
	if _, err := h.Runtime.Terminate(userID, services.EndReasonStop); err != nil {
		h.reportTerminateError(userID, err, bot)
	}
}

// NextChat ends the session, blocks the pair for a few rounds and searches
// again with the user's saved preferences.
func (h *HandlerManager) NextChat(userID int64, bot BotInterface) {
	if _, _, ok := h.Runtime.Lookup(userID); !ok {
		bot.SendMessage(userID, services.MsgNoActiveChat, bot.MenuFor(userID))
		return
	}

	gender, seeking, hasPrefs, err := h.UserRepo.GetPreferences(userID)
	if err != nil {
		logger.Error("Failed to get preferences", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	if !hasPrefs {
		if _, err := h.Runtime.Terminate(userID, services.EndReasonNoPreferences); err != nil {
			h.reportTerminateError(userID, err, bot)
			return
		}
		bot.SendMessage(userID, MsgNeedPreferences, bot.MenuFor(userID))
		bot.SendMessage(userID, MsgAskGender, GenderKeyboard())
		return
	}

	if _, err := h.Matcher.SkipPartner(userID); err != nil {
		h.reportTerminateError(userID, err, bot)
		return
	}

	h.startSearch(userID, gender, seeking, bot)
}

func (h *HandlerManager) reportTerminateError(userID int64, err error, bot BotInterface) {
	switch {
	case errors.IsCode(err, errors.ErrCodeNotFound), errors.IsCode(err, errors.ErrCodeAlreadyDone):
		bot.SendMessage(userID, services.MsgNoActiveChat, bot.MenuFor(userID))
	default:
		logger.Error("Failed to end session", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
	}
}

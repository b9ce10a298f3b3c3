package handlers

import (
	"fmt"
	"strings"

	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/internal/security"
	"github.com/mroshb/anon_chat/pkg/logger"
	"github.com/mroshb/anon_chat/pkg/utils"
)

func (h *HandlerManager) IsAdmin(userID int64) bool {
	return h.Config.IsSuperAdmin(userID)
}

func (h *HandlerManager) HandleAdminStats(userID int64, bot BotInterface) {
	if !h.IsAdmin(userID) {
		bot.SendMessage(userID, MsgAdminOnly, nil)
		return
	}

	totalUsers, err := h.UserRepo.CountUsers()
	if err != nil {
		logger.Error("Failed to count users", "error", err)
	}
	activeSessions, err := h.SessionRepo.CountActiveSessions()
	if err != nil {
		logger.Error("Failed to count sessions", "error", err)
	}
	queueSize, err := h.SessionRepo.QueueSize()
	if err != nil {
		logger.Error("Failed to get queue size", "error", err)
	}

	statsMsg := fmt.Sprintf(MsgAdminStats,
		totalUsers, activeSessions, h.Runtime.ActiveCount(), queueSize,
		h.Settings.Get(models.SettingInactivitySeconds), h.Settings.Get(models.SettingBlockRounds))

	bot.SendMessage(userID, statsMsg, nil)
	logger.Info("Admin viewed stats", "admin_id", userID)
}

// HandleSetting applies "/setting <key> <value>".
func (h *HandlerManager) HandleSetting(userID int64, args string, bot BotInterface) {
	if !h.IsAdmin(userID) {
		bot.SendMessage(userID, MsgAdminOnly, nil)
		return
	}

	fields := strings.Fields(utils.NormalizeDigits(args))
	if len(fields) != 2 {
		bot.SendMessage(userID, fmt.Sprintf(MsgSettingUsage, strings.Join(h.Settings.Keys(), ", ")), nil)
		return
	}

	key, value := strings.ToLower(fields[0]), fields[1]
	if err := h.Settings.Set(key, value); err != nil {
		bot.SendMessage(userID, fmt.Sprintf(MsgSettingFailed, security.SanitizeHTML(err.Error())), nil)
		return
	}

	bot.SendMessage(userID, fmt.Sprintf(MsgSettingSaved, security.SanitizeHTML(key), security.SanitizeHTML(value)), nil)
	logger.Info("Admin changed setting", "admin_id", userID, "key", key, "value", value)
}

package telegram

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/config"
	"github.com/mroshb/anon_chat/internal/handlers"
	"github.com/mroshb/anon_chat/internal/metrics"
	"github.com/mroshb/anon_chat/internal/services"
	"github.com/mroshb/anon_chat/pkg/logger"
	"github.com/mroshb/anon_chat/pkg/utils"
	"gorm.io/gorm"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	db       *gorm.DB
	handlers *handlers.HandlerManager

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update

	stop     chan struct{}
	stopOnce sync.Once
}

func InitBot(cfg *config.Config, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := &Bot{
		api:         api,
		config:      cfg,
		db:          db,
		workerChans: make([]chan tgbotapi.Update, cfg.WorkerCount),
		stop:        make(chan struct{}),
	}
	bot.handlers = handlers.NewHandlerManager(cfg, db, bot)

	if err := bot.handlers.Settings.Reload(); err != nil {
		logger.Warn("Failed to load settings, using defaults", "error", err)
	}

	// Start workers
	for i := range bot.workerChans {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		go bot.startWorker(bot.workerChans[i])
	}

	// Start update listener
	go bot.startUpdateListener()

	// Start background jobs
	go bot.startBackgroundJobs()

	return bot, nil
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			// Find userID for hashing
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
			}

			if userID != 0 {
				// Hashed dispatch to workers to ensure per-user ordered processing
				workerIdx := userID % int64(len(b.workerChans))
				if workerIdx < 0 {
					workerIdx = -workerIdx
				}
				b.workerChans[workerIdx] <- update
			} else {
				go b.handleUpdate(update)
			}
		}

		select {
		case <-b.stop:
			return
		default:
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startBackgroundJobs() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
		}

		// Pick up settings edited directly in the database
		if err := b.handlers.Settings.Reload(); err != nil {
			logger.Error("Failed to reload settings", "error", err)
		}

		if size, err := b.handlers.SessionRepo.QueueSize(); err != nil {
			logger.Error("Failed to get queue size", "error", err)
		} else {
			metrics.QueueSize.Set(float64(size))
		}
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil || !message.Chat.IsPrivate() {
		return
	}
	userID := message.From.ID

	logger.Debug("Received message",
		"user_id", userID,
		"has_text", message.Text != "",
		"has_photo", message.Photo != nil,
	)

	if err := b.handlers.UserRepo.UpdateLastActivity(userID); err != nil {
		logger.Debug("Failed to update last activity", "user_id", userID, "error", err)
	}

	// /start doubles as the recovery path for a lost chat keyboard
	if message.IsCommand() && message.Command() == "start" {
		b.handlers.HandleStart(message.From, b)
		return
	}

	if b.handlers.HandleChatMessage(message, b) {
		return
	}

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	if message.Text != "" && b.handleButtonPress(message) {
		return
	}

	switch utils.NormalizeCommand(message.Text) {
	case handlers.CmdStop, handlers.CmdNext, handlers.CmdReveal:
		b.sendMessage(userID, services.MsgNoActiveChat, b.MenuFor(userID))
		return
	}

	b.sendMessage(userID, handlers.MsgUnknown, b.MenuFor(userID))
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	userID := message.From.ID

	switch message.Command() {
	case "help":
		b.handlers.HandleHelp(userID, b)
	case "find":
		b.handlers.FindPartner(userID, b)
	case "cancel":
		b.handlers.CancelSearch(userID, b)
	case "preferences":
		b.handlers.ShowPreferences(userID, b)
	case "stats":
		b.handlers.HandleAdminStats(userID, b)
	case "setting":
		b.handlers.HandleSetting(userID, message.CommandArguments(), b)
	default:
		b.sendMessage(userID, handlers.MsgUnknown, b.MenuFor(userID))
	}
}

func normalizeButton(s string) string {
	return strings.TrimSpace(utils.StripInvisible(s))
}

func (b *Bot) handleButtonPress(message *tgbotapi.Message) bool {
	userID := message.From.ID

	switch normalizeButton(message.Text) {
	case handlers.BtnFindPartner:
		b.handlers.FindPartner(userID, b)
	case handlers.BtnPreferences:
		b.handlers.ShowPreferences(userID, b)
	case handlers.BtnRevealOff:
		b.handlers.ToggleReveal(userID, true, b)
	case handlers.BtnRevealOn:
		b.handlers.ToggleReveal(userID, false, b)
	case handlers.BtnCancel:
		b.handlers.CancelSearch(userID, b)
	case handlers.BtnHelp:
		b.handlers.HandleHelp(userID, b)
	case handlers.BtnAdminStats:
		b.handlers.HandleAdminStats(userID, b)
	default:
		return false
	}
	return true
}

// Stop ends polling and the session runtime. Active sessions stay open in
// the database and are restored on the next interaction after restart.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		b.api.StopReceivingUpdates()
		b.handlers.Stop()
		logger.Info("Bot stopped receiving updates")
	})
}

// MenuFor returns the main menu matching the user's reveal flag and role.
func (b *Bot) MenuFor(userID int64) interface{} {
	revealReady := false
	if user, err := b.handlers.UserRepo.GetUserByTelegramID(userID); err == nil {
		revealReady = user.RevealReady
	}
	return MainMenuKeyboard(b.config.IsSuperAdmin(userID), revealReady)
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)

			// If it's a network error, wait and retry
			if isRetryable(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0 // Non-network error, don't retry
		}
		return sentMsg.MessageID // Success
	}
	return 0 // All retries failed
}

func isRetryable(err error) bool {
	return strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "network is unreachable")
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := b.api.Request(deleteMsg); err != nil {
		logger.Error("Failed to delete message", "chat_id", chatID, "msg_id", messageID, "error", err)
	}
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	if messageID == 0 {
		return
	}
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if keyboard != nil {
		if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = &kb
		}
	}

	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

// SendRequest performs a raw Bot API call and returns the id of the sent message.
func (b *Bot) SendRequest(method string, params tgbotapi.Params) (int, error) {
	var lastErr error

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		resp, err := b.api.MakeRequest(method, params)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				logger.Warn("Request failed, retrying", "method", method, "attempt", i+1, "error", err)
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0, err
		}

		var sent tgbotapi.Message
		if err := json.Unmarshal(resp.Result, &sent); err != nil {
			return 0, err
		}
		return sent.MessageID, nil
	}
	return 0, lastErr
}

// SendProfileCard delivers a reveal card with content protection. Photos are
// sent in order and the last one carries the text.
func (b *Bot) SendProfileCard(chatID int64, card services.ProfileCard) {
	requests := profileCardRequests(chatID, card)
	for _, req := range requests {
		if _, err := b.SendRequest(req.Method, req.Params); err != nil {
			logger.Error("Failed to send profile card", "chat_id", chatID, "method", req.Method, "error", err)
		}
	}
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

package handlers

import (
	"time"

	"github.com/mroshb/anon_chat/internal/config"
	"github.com/mroshb/anon_chat/internal/middleware"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/internal/repositories"
	"github.com/mroshb/anon_chat/internal/services"
	"gorm.io/gorm"
)

type HandlerManager struct {
	Config      *config.Config
	DB          *gorm.DB
	UserRepo    *repositories.UserRepository
	SessionRepo *repositories.SessionRepository
	SettingRepo *repositories.SettingRepository
	RatingRepo  *repositories.RatingRepository

	Settings   *services.Settings
	Runtime    *services.Runtime
	Matcher    *services.Matcher
	Disclosure *services.Disclosure
	Feedback   *FeedbackPrompter
	Limiter    *middleware.RateLimiter
}

// NewHandlerManager wires repositories and services over the bot transport.
func NewHandlerManager(cfg *config.Config, db *gorm.DB, bot BotInterface) *HandlerManager {
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	settingRepo := repositories.NewSettingRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)

	settings := services.NewSettings(settingRepo, cfg.InactivitySeconds, cfg.AntiRepeatRounds)
	feedback := NewFeedbackPrompter(bot)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute)
	hook := sessionEndHook{limiter: limiter, feedback: feedback}
	runtime := services.NewRuntime(sessionRepo, bot, bot, hook, settings, services.RuntimeOptions{})
	settings.OnChange(func(key string, _ int) {
		if key == models.SettingInactivitySeconds {
			runtime.ExtendDeadlines()
		}
	})

	return &HandlerManager{
		Config:      cfg,
		DB:          db,
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		SettingRepo: settingRepo,
		RatingRepo:  ratingRepo,
		Settings:    settings,
		Runtime:     runtime,
		Matcher:     services.NewMatcher(sessionRepo, userRepo, settings, runtime),
		Disclosure:  services.NewDisclosure(sessionRepo, userRepo, runtime, bot),
		Feedback:    feedback,
		Limiter:     limiter,
	}
}

// Stop halts background tasks owned by the handlers.
func (h *HandlerManager) Stop() {
	h.Runtime.Shutdown()
	h.Limiter.Stop()
}

// sessionEndHook runs the per-participant work after a session terminates.
type sessionEndHook struct {
	limiter  *middleware.RateLimiter
	feedback services.FeedbackHook
}

func (s sessionEndHook) OnSessionEnded(participant, peer int64, sessionID string) {
	s.limiter.Forget(participant)
	s.feedback.OnSessionEnded(participant, peer, sessionID)
}

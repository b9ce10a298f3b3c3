package services

import (
	"strconv"
	"sync"

	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// SettingsStore persists settings rows. Implemented by
// repositories.SettingRepository.
type SettingsStore interface {
	All() (map[string]string, error)
	Set(key, value string) error
}

// Settings caches the settings table over a set of defaults and notifies
// listeners when a value changes. A nil store keeps values in memory only.
type Settings struct {
	store SettingsStore

	mu        sync.RWMutex
	defaults  map[string]int
	values    map[string]int
	listeners []func(key string, value int)
}

func NewSettings(store SettingsStore, inactivitySeconds, blockRounds int) *Settings {
	defaults := map[string]int{
		models.SettingInactivitySeconds: inactivitySeconds,
		models.SettingBlockRounds:       blockRounds,
	}

	values := make(map[string]int, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}

	return &Settings{
		store:    store,
		defaults: defaults,
		values:   values,
	}
}

// Defaults returns the default values as strings for seeding the table.
func (s *Settings) Defaults() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = strconv.Itoa(v)
	}
	return out
}

func (s *Settings) InactivityWindow() int {
	return s.Get(models.SettingInactivitySeconds)
}

func (s *Settings) AntiRepeatRounds() int {
	return s.Get(models.SettingBlockRounds)
}

func (s *Settings) Get(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// OnChange registers fn to run after a known setting changes value.
func (s *Settings) OnChange(fn func(key string, value int)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reload refreshes the cache from the store. Unknown keys and invalid
// values are ignored.
func (s *Settings) Reload() error {
	if s.store == nil {
		return nil
	}

	rows, err := s.store.All()
	if err != nil {
		return err
	}

	for key, raw := range rows {
		if !s.known(key) {
			continue
		}
		value, err := parsePositive(raw)
		if err != nil {
			logger.Warn("Ignoring invalid setting", "key", key, "value", raw)
			continue
		}
		s.apply(key, value)
	}
	return nil
}

// Set validates, persists and applies a new value.
func (s *Settings) Set(key, raw string) error {
	if !s.known(key) {
		return errors.New(errors.ErrCodeValidation, "unknown setting: "+key)
	}

	value, err := parsePositive(raw)
	if err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.Set(key, strconv.Itoa(value)); err != nil {
			return err
		}
	}

	s.apply(key, value)
	logger.Info("Setting updated", "key", key, "value", value)
	return nil
}

// Keys lists the known setting names.
func (s *Settings) Keys() []string {
	return []string{models.SettingInactivitySeconds, models.SettingBlockRounds}
}

func (s *Settings) known(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.defaults[key]
	return ok
}

func (s *Settings) apply(key string, value int) {
	s.mu.Lock()
	if s.values[key] == value {
		s.mu.Unlock()
		return
	}
	s.values[key] = value
	listeners := append([]func(string, int){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(key, value)
	}
}

func parsePositive(raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.New(errors.ErrCodeValidation, "value must be a positive integer")
	}
	return value, nil
}

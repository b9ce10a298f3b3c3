package services

import (
	"testing"

	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySettings struct {
	rows map[string]string
}

func (m *memorySettings) All() (map[string]string, error) {
	out := make(map[string]string, len(m.rows))
	for k, v := range m.rows {
		out[k] = v
	}
	return out, nil
}

func (m *memorySettings) Set(key, value string) error {
	m.rows[key] = value
	return nil
}

func TestSettings_Defaults(t *testing.T) {
	s := NewSettings(nil, 180, 2)

	assert.Equal(t, 180, s.InactivityWindow())
	assert.Equal(t, 2, s.AntiRepeatRounds())
	assert.Equal(t, map[string]string{
		models.SettingInactivitySeconds: "180",
		models.SettingBlockRounds:       "2",
	}, s.Defaults())
	assert.ElementsMatch(t, []string{models.SettingInactivitySeconds, models.SettingBlockRounds}, s.Keys())
}

func TestSettings_ReloadPrefersStoredValues(t *testing.T) {
	store := &memorySettings{rows: map[string]string{
		models.SettingInactivitySeconds: "300",
		models.SettingBlockRounds:       "zero",
		"unknown":                       "7",
	}}
	s := NewSettings(store, 180, 2)

	require.NoError(t, s.Reload())
	assert.Equal(t, 300, s.InactivityWindow())
	assert.Equal(t, 2, s.AntiRepeatRounds(), "invalid value ignored")
}

func TestSettings_SetValidatesAndNotifies(t *testing.T) {
	store := &memorySettings{rows: map[string]string{}}
	s := NewSettings(store, 180, 2)

	var changes []int
	s.OnChange(func(key string, value int) {
		if key == models.SettingBlockRounds {
			changes = append(changes, value)
		}
	})

	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{models.SettingBlockRounds, "3", false},
		{models.SettingBlockRounds, "3", false},
		{models.SettingBlockRounds, "0", true},
		{models.SettingBlockRounds, "-1", true},
		{models.SettingBlockRounds, "abc", true},
		{"nope", "1", true},
	}

	for _, tt := range tests {
		err := s.Set(tt.key, tt.value)
		if tt.wantErr {
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation), "%s=%s", tt.key, tt.value)
		} else {
			assert.NoError(t, err)
		}
	}

	assert.Equal(t, 3, s.AntiRepeatRounds())
	assert.Equal(t, "3", store.rows[models.SettingBlockRounds])
	assert.Equal(t, []int{3}, changes, "listener fires only on change")
}

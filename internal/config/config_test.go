package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test_bot_token")
	t.Setenv("DB_PASSWORD", "test_password")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("INACTIVITY_SECONDS", "")
	t.Setenv("ANTI_REPEAT_ROUNDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BotToken != "test_bot_token" {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, "test_bot_token")
	}

	if cfg.InactivitySeconds != 180 {
		t.Errorf("InactivitySeconds = %d, want 180", cfg.InactivitySeconds)
	}

	if cfg.AntiRepeatRounds != 2 {
		t.Errorf("AntiRepeatRounds = %d, want 2", cfg.AntiRepeatRounds)
	}

	if cfg.GetInactivityWindow() != 3*time.Minute {
		t.Errorf("GetInactivityWindow() = %v, want 3m", cfg.GetInactivityWindow())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("INACTIVITY_SECONDS", "90")
	t.Setenv("ANTI_REPEAT_ROUNDS", "5")
	t.Setenv("SUPER_ADMIN_TELEGRAM_ID", "42")
	t.Setenv("STALE_SESSION_HOURS", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.InactivitySeconds != 90 || cfg.AntiRepeatRounds != 5 {
		t.Errorf("got inactivity=%d rounds=%d", cfg.InactivitySeconds, cfg.AntiRepeatRounds)
	}
	if !cfg.IsSuperAdmin(42) || cfg.IsSuperAdmin(7) {
		t.Error("IsSuperAdmin() mismatch")
	}
	if cfg.GetStaleSessionAge() != 0 {
		t.Errorf("GetStaleSessionAge() = %v, want 0", cfg.GetStaleSessionAge())
	}
}

func TestLoadConfig_InvalidAdminID(t *testing.T) {
	setRequired(t)
	t.Setenv("SUPER_ADMIN_TELEGRAM_ID", "not-a-number")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for invalid admin id, got nil")
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Missing BOT_TOKEN",
			envVars: map[string]string{"BOT_TOKEN": "", "DB_PASSWORD": "password"},
		},
		{
			name:    "Missing DB_PASSWORD",
			envVars: map[string]string{"BOT_TOKEN": "token", "DB_PASSWORD": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Error("LoadConfig() expected error for missing required field, got nil")
			}
		})
	}
}

func TestValidate_SessionSettings(t *testing.T) {
	base := Config{
		BotToken:          "token",
		DBPassword:        "password",
		InactivitySeconds: 180,
		AntiRepeatRounds:  2,
		WorkerCount:       10,
		RateLimitPerUser:  30,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Zero inactivity", func(c *Config) { c.InactivitySeconds = 0 }},
		{"Negative rounds", func(c *Config) { c.AntiRepeatRounds = -1 }},
		{"No workers", func(c *Config) { c.WorkerCount = 0 }},
		{"No rate limit", func(c *Config) { c.RateLimitPerUser = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name: "Valid production config",
			cfg: &Config{
				AppEnv:         "production",
				DBSSLMode:      "require",
				SuperAdminTgID: 123456789,
			},
			shouldErr: false,
		},
		{
			name: "Development mode - no validation",
			cfg: &Config{
				AppEnv:    "development",
				DBSSLMode: "disable",
			},
			shouldErr: false,
		},
		{
			name: "Production without SSL",
			cfg: &Config{
				AppEnv:         "production",
				DBSSLMode:      "disable",
				SuperAdminTgID: 123456789,
			},
			shouldErr: true,
		},
		{
			name: "Production without super admin",
			cfg: &Config{
				AppEnv:         "production",
				DBSSLMode:      "require",
				SuperAdminTgID: 0,
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateProductionSecurity()
			if (err != nil) != tt.shouldErr {
				t.Errorf("ValidateProductionSecurity() error = %v, shouldErr %v", err, tt.shouldErr)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "testuser",
		DBPassword: "testpass",
		DBName:     "testdb",
		DBSSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if dsn := cfg.GetDSN(); dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"})
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, BackendCSV, cfg.StorageBackend)
	assert.Equal(t, "scholarship_applications.csv", cfg.CSVPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 30, cfg.PollTimeout)
	assert.Empty(t, cfg.AdminIDs)
	assert.False(t, cfg.MacroCRM.Enabled())
}

func TestParseMissingToken(t *testing.T) {
	_, err := Parse(map[string]string{})
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")

	_, err = Parse(map[string]string{"TELEGRAM_BOT_TOKEN": "   "})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"TELEGRAM_BOT_TOKEN":  "t",
		"ADMIN_CHAT_IDS":      "10,20",
		"STORAGE_BACKEND":     "SQLite",
		"WORKERS":             "2",
		"MACROCRM_DOMAIN":     "crm.example",
		"MACROCRM_APP_SECRET": "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, cfg.AdminIDs)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.MacroCRM.Enabled())
	assert.Equal(t, "crm.example", cfg.MacroCRM.Domain)
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"backend": {"TELEGRAM_BOT_TOKEN": "t", "STORAGE_BACKEND": "postgres"},
		"workers": {"TELEGRAM_BOT_TOKEN": "t", "WORKERS": "0"},
		"admins":  {"TELEGRAM_BOT_TOKEN": "t", "ADMIN_CHAT_IDS": "10,abc"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(environ)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

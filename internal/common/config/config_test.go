package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearAgentEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "MONDAY_API_TOKEN", "BOARD_ID_DEALS", "BOARD_ID_WORK_ORDERS", "LLM_MODEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearAgentEnv(t)
	path := writeConfig(t, "app:\n  name: test-agent\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-agent", cfg.App.Name)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, MaxPageLimit, cfg.Monday.PageLimit)
	assert.Equal(t, "2024-01", cfg.Monday.APIVersion)
	assert.Equal(t, 5, cfg.Memory.HistoryWindow)
	assert.Equal(t, DefaultDealsFallback, cfg.Sources.Deals.FallbackPath)
	assert.Equal(t, 0, cfg.Sources.Deals.HeaderRow)
	assert.Equal(t, DefaultWorkOrdersFallback, cfg.Sources.WorkOrders.FallbackPath)
	assert.Equal(t, 0, cfg.Sources.WorkOrders.HeaderRow)
	assert.False(t, cfg.LLM.Configured())
	assert.False(t, cfg.Camunda.Enabled())
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MONDAY_API_TOKEN", "mon-token")
	t.Setenv("BOARD_ID_DEALS", "12345")
	t.Setenv("BOARD_ID_WORK_ORDERS", "67890")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")

	cfg, err := LoadFromFile(writeConfig(t, "server:\n  address: \":9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.LLM.Configured())
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "mon-token", cfg.Monday.APIToken)
	assert.Equal(t, "12345", cfg.Sources.Deals.BoardID)
	assert.Equal(t, "67890", cfg.Sources.WorkOrders.BoardID)
	assert.Equal(t, ":9000", cfg.Server.Address)
}

func TestLoadFromFile_ExpandsEnvReferences(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("BI_TEST_REDIS", "localhost:6380")

	cfg, err := LoadFromFile(writeConfig(t, "database:\n  redis:\n    address: \"${BI_TEST_REDIS}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", cfg.Database.Redis.Address)
}

func TestLoadFromFile_InvalidBoardIDs(t *testing.T) {
	tests := []struct {
		name    string
		boardID string
	}{
		{"non numeric", "deals-board"},
		{"zero", "0"},
		{"negative", "-4"},
		{"decimal", "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAgentEnv(t)
			t.Setenv("BOARD_ID_DEALS", tt.boardID)

			cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: x\n"))
			require.NoError(t, err)
			assert.Empty(t, cfg.Sources.Deals.BoardID)
			require.Len(t, cfg.Warnings, 1)
			assert.Contains(t, cfg.Warnings[0], "sources.deals.board_id")
		})
	}
}

func TestLoadFromFile_PageLimitClamped(t *testing.T) {
	clearAgentEnv(t)

	cfg, err := LoadFromFile(writeConfig(t, "monday:\n  page_limit: 2000\n"))
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, cfg.Monday.PageLimit)

	cfg, err = LoadFromFile(writeConfig(t, "monday:\n  page_limit: 50\n"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Monday.PageLimit)
}

func TestLoadFromFile_Errors(t *testing.T) {
	clearAgentEnv(t)

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "server:\n  address: \"\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.address")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

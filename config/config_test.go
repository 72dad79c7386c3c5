package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "bridge.db", cfg.DBPath)
	assert.False(t, cfg.VPlan.Enabled())
	assert.False(t, cfg.Rework.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("VPLAN_API_KEY", "key")
	t.Setenv("VPLAN_ENV_ID", "env")
	t.Setenv("REWORK_BASE_URL", "https://api.rework.example")
	t.Setenv("REWORK_API_TOKEN", "tok")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.True(t, cfg.VPlan.Enabled())
	assert.True(t, cfg.Rework.Enabled())
}

func TestBadPortFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 3000, cfg.Port)
}

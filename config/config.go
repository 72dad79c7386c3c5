/*
config.go - Environment configuration

PURPOSE:
  Loads configuration from environment variables, with an optional .env
  file for local development. Missing remote credentials are not fatal:
  the affected client is simply disabled and the server keeps accepting
  webhooks (acknowledging receipt, skipping remote calls).

VARIABLES:
  PORT               Listen port (default 3000)
  DB_PATH            SQLite path (default bridge.db, ":memory:" allowed)
  VPLAN_BASE_URL     Scheduling API base (default production)
  VPLAN_API_KEY      Scheduling API key
  VPLAN_ENV_ID       Scheduling environment id
  REWORK_BASE_URL    Leave-request API base
  REWORK_API_TOKEN   Leave-request bearer token
  REWORK_COMPANY_ID  Leave-request company id
*/
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// VPlan holds the scheduling-API credentials.
type VPlan struct {
	BaseURL string
	APIKey  string
	EnvID   string
}

// Enabled reports whether the scheduling client can be constructed.
func (v VPlan) Enabled() bool { return v.APIKey != "" && v.EnvID != "" }

// Rework holds the leave-request-API credentials.
type Rework struct {
	BaseURL   string
	Token     string
	CompanyID string
}

// Enabled reports whether the leave-request client can be constructed.
func (r Rework) Enabled() bool { return r.BaseURL != "" && r.Token != "" }

// Config is the full server configuration.
type Config struct {
	Port   int
	DBPath string
	VPlan  VPlan
	Rework Rework
}

// Load reads the environment. A .env file is honored when present.
func Load() *Config {
	_ = godotenv.Load() // absent .env is fine

	return &Config{
		Port:   getInt("PORT", 3000),
		DBPath: get("DB_PATH", "bridge.db"),
		VPlan: VPlan{
			BaseURL: get("VPLAN_BASE_URL", ""),
			APIKey:  get("VPLAN_API_KEY", ""),
			EnvID:   get("VPLAN_ENV_ID", ""),
		},
		Rework: Rework{
			BaseURL:   get("REWORK_BASE_URL", ""),
			Token:     get("REWORK_API_TOKEN", ""),
			CompanyID: get("REWORK_COMPANY_ID", ""),
		},
	}
}

func get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

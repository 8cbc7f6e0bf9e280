package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all runtime settings, loaded from the environment.
type Config struct {
	Port        string
	StoreDriver string // "file" or "sqlite"
	DataPath    string // JSON document path (file driver)
	DBPath      string // sqlite path (sqlite driver)

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	Timezone   string
	AdminUsers []string
}

// Load reads configuration from WELLSPRING_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("WELLSPRING_PORT", "8080"),
		StoreDriver: getEnv("WELLSPRING_STORE_DRIVER", "file"),
		DataPath:    getEnv("WELLSPRING_DATA_PATH", ""),
		DBPath:      getEnv("WELLSPRING_DB_PATH", ""),

		LLMBaseURL: getEnv("WELLSPRING_LLM_URL", "https://api.groq.com/openai/v1"),
		LLMAPIKey:  getEnv("WELLSPRING_LLM_API_KEY", ""),
		LLMModel:   getEnv("WELLSPRING_LLM_MODEL", "llama-3.3-70b-versatile"),

		GoogleClientID:     getEnv("WELLSPRING_GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("WELLSPRING_GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("WELLSPRING_GOOGLE_REDIRECT_URL", ""),

		Timezone:   getEnv("WELLSPRING_TIMEZONE", "UTC"),
		AdminUsers: splitList(getEnv("WELLSPRING_ADMIN_USERS", "")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "file":
		if c.DataPath == "" {
			return fmt.Errorf("WELLSPRING_DATA_PATH is required for the file store driver")
		}
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("WELLSPRING_DB_PATH is required for the sqlite store driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q (want file or sqlite)", c.StoreDriver)
	}

	if c.GoogleClientID != "" && c.GoogleRedirectURL == "" {
		return fmt.Errorf("WELLSPRING_GOOGLE_REDIRECT_URL is required when Google Fit is configured")
	}
	return nil
}

// FitConfigured reports whether Google Fit credentials are present.
func (c *Config) FitConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

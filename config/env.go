package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from MULIST_* environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("MULIST_STATE"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("MULIST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MULIST_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("MULIST_TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("MULIST_AUTOSAVE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MULIST_AUTOSAVE: %w", err)
		}
		cfg.Autosave = b
	}
	if v := os.Getenv("MULIST_MAX_BACKUPS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MULIST_MAX_BACKUPS: %w", err)
		}
		cfg.MaxBackups = n
	}
	return nil
}

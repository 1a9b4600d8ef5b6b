package config

import (
	"flag"
	"os"
	"strings"
)

// parseFlags defines and parses CLI flags on top of cfg.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("mulist", flag.ContinueOnError)
	}
	var configFile string
	fs.StringVar(&configFile, "config", "", "Path to an extra TOML config file")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, "Path to the saved lists (JSON)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file (discarded when empty)")
	fs.BoolVar(&cfg.Autosave, "autosave", cfg.Autosave, "Save after every change")
	fs.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "IANA zone deadlines are entered in (default: local)")
	fs.IntVar(&cfg.MaxBackups, "max-backups", cfg.MaxBackups, "Timestamped backups to keep")
	return fs.Parse(args)
}

// explicitConfigFile picks -config out of args ahead of the full flag pass,
// so that file sits below env and flags in precedence. MULIST_CONFIG is the
// fallback.
func explicitConfigFile(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if len(name) == len(a) {
			continue
		}
		switch {
		case name == "config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(name, "config="):
			return strings.TrimPrefix(name, "config=")
		}
	}
	return os.Getenv("MULIST_CONFIG")
}

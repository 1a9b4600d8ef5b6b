// Package config loads mulist settings from defaults, TOML files, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"mulist/model"
)

const (
	DefaultLogLevel   = "info"
	DefaultMaxBackups = 10
	ConfigFileName    = "config.toml"
	ProjectFileName   = "mulist.toml"
)

// Display mirrors model.DisplayOptions with TOML keys.
type Display struct {
	ID        bool `toml:"id"`
	IDTitle   bool `toml:"id_title"`
	Name      bool `toml:"name"`
	NameTitle bool `toml:"name_title"`
}

// Config holds every runtime setting.
type Config struct {
	StatePath  string  `toml:"state_path"`
	LogLevel   string  `toml:"log_level"`
	LogFile    string  `toml:"log_file"`
	Autosave   bool    `toml:"autosave"`
	Timezone   string  `toml:"timezone"`
	MaxBackups int     `toml:"max_backups"`
	Display    Display `toml:"display"`

	// Files lists the config files that were applied, lowest precedence first.
	Files []string `toml:"-"`

	location *time.Location
}

// Load builds a Config from:
// 1. Defaults
// 2. User config file (<user config dir>/mulist/config.toml)
// 3. Project config file (mulist.toml or .mulist.toml in the working directory)
// 4. An explicit file from MULIST_CONFIG or -config
// 5. Environment variables
// 6. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	if explicit := explicitConfigFile(args); explicit != "" {
		if err := loadConfigFile(cfg, expandPath(explicit)); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

// Default returns a finalized Config with built-in defaults only.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	_ = finalizeConfig(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	cfg.StatePath = model.DefaultStateFile
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFile = ""
	cfg.Autosave = false
	cfg.Timezone = ""
	cfg.MaxBackups = DefaultMaxBackups
	d := model.DefaultDisplay()
	cfg.Display = Display{ID: d.ID, IDTitle: d.IDTitle, Name: d.Name, NameTitle: d.NameTitle}
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func finalizeConfig(cfg *Config) error {
	cfg.StatePath = expandPath(strings.TrimSpace(cfg.StatePath))
	if cfg.StatePath == "" {
		cfg.StatePath = model.DefaultStateFile
	}
	cfg.LogFile = expandPath(strings.TrimSpace(cfg.LogFile))

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = DefaultLogLevel
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	if cfg.MaxBackups < 0 {
		return fmt.Errorf("max_backups must not be negative, got %d", cfg.MaxBackups)
	}

	loc, err := resolveLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	cfg.location = loc
	return nil
}

func resolveLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Location is the zone deadlines are entered in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// DisplayOptions converts the [display] table for new and loaded lists.
func (c *Config) DisplayOptions() model.DisplayOptions {
	return model.DisplayOptions{
		ID:        c.Display.ID,
		IDTitle:   c.Display.IDTitle,
		Name:      c.Display.Name,
		NameTitle: c.Display.NameTitle,
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// findUserConfigFile returns <user config dir>/mulist/config.toml if it exists.
func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "mulist", ConfigFileName)
	if fileExists(path) {
		return path
	}
	return ""
}

// findProjectConfigFile looks for mulist.toml, then .mulist.toml, in the
// working directory.
func findProjectConfigFile() string {
	for _, name := range []string{ProjectFileName, "." + ProjectFileName} {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandPath expands ~ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		if expanded == "~" {
			return home
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}

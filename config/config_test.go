package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mulist/model"
)

// isolate points every config source at empty temp dirs.
func isolate(t *testing.T) (userDir, workDir string) {
	t.Helper()
	userDir = t.TempDir()
	workDir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)
	t.Setenv("HOME", userDir)
	for _, k := range []string{"MULIST_STATE", "MULIST_LOG_LEVEL", "MULIST_LOG_FILE", "MULIST_TZ", "MULIST_AUTOSAVE", "MULIST_MAX_BACKUPS", "MULIST_CONFIG"} {
		t.Setenv(k, "")
	}
	prevDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { _ = os.Chdir(prevDir) })
	return userDir, workDir
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("mulist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultMaxBackups, cfg.MaxBackups)
	assert.False(t, cfg.Autosave)
	assert.Empty(t, cfg.LogFile)
	assert.Empty(t, cfg.Files)
	assert.Equal(t, time.Local, cfg.Location())
	assert.Equal(t, model.DefaultDisplay(), cfg.DisplayOptions())
}

func TestPrecedenceUserProjectEnvFlags(t *testing.T) {
	userDir, workDir := isolate(t)

	writeFile(t, filepath.Join(userDir, "mulist", ConfigFileName), `
state_path = "user.json"
log_level = "debug"
max_backups = 3

[display]
id = false
`)
	writeFile(t, filepath.Join(workDir, ProjectFileName), `
state_path = "project.json"
autosave = true
`)
	t.Setenv("MULIST_LOG_LEVEL", "warn")

	cfg, err := Load(newFlagSet(), []string{"-max-backups", "7"})
	require.NoError(t, err)

	assert.Equal(t, "project.json", cfg.StatePath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Autosave)
	assert.Equal(t, 7, cfg.MaxBackups)
	assert.False(t, cfg.DisplayOptions().ID)
	assert.True(t, cfg.DisplayOptions().Name)
	assert.Len(t, cfg.Files, 2)
}

func TestExplicitConfigFileSitsBelowFlags(t *testing.T) {
	_, workDir := isolate(t)
	extra := filepath.Join(workDir, "extra.toml")
	writeFile(t, extra, `
state_path = "extra.json"
timezone = "UTC"
`)

	cfg, err := Load(newFlagSet(), []string{"-config", extra})
	require.NoError(t, err)
	assert.Equal(t, "extra.json", cfg.StatePath)
	assert.Equal(t, time.UTC, cfg.Location())

	cfg, err = Load(newFlagSet(), []string{"--config=" + extra, "-state", "flag.json"})
	require.NoError(t, err)
	assert.Equal(t, "flag.json", cfg.StatePath)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MULIST_STATE", "~/lists.json")
	t.Setenv("MULIST_AUTOSAVE", "true")
	t.Setenv("MULIST_TZ", "America/New_York")

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "lists.json"), cfg.StatePath)
	assert.True(t, cfg.Autosave)
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestInvalidValuesAreRejected(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		args []string
		file string
	}{
		{name: "bad level", args: []string{"-log-level", "loud"}},
		{name: "bad zone", args: []string{"-tz", "Mars/Olympus"}},
		{name: "negative backups", args: []string{"-max-backups", "-1"}},
		{name: "bad autosave env", env: map[string]string{"MULIST_AUTOSAVE": "sometimes"}},
		{name: "unknown key", file: "colour = \"red\"\n"},
		{name: "unknown flag", args: []string{"-nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, workDir := isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if tc.file != "" {
				writeFile(t, filepath.Join(workDir, ProjectFileName), tc.file)
			}
			_, err := Load(newFlagSet(), tc.args)
			assert.Error(t, err)
		})
	}
}

func TestDefaultIsFinalized(t *testing.T) {
	cfg := Default()
	assert.Equal(t, model.DefaultStateFile, cfg.StatePath)
	assert.NotNil(t, cfg.Location())
}

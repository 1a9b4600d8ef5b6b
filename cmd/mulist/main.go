// Command mulist is a terminal to-do list manager.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"mulist/app"
	"mulist/config"
	"mulist/logging"
	"mulist/store"
	"mulist/tui"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mulist", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	if *showVersion {
		fmt.Println("mulist", Version)
		return nil
	}

	logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Debug("config loaded", "files", cfg.Files, "state", cfg.StatePath, "tz", cfg.Location().String())

	lists, recovery, err := store.LoadWithRecovery(cfg.StatePath, cfg.MaxBackups)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.StatePath, err)
	}
	if recovery != "" {
		logger.Warn("state recovered", "path", cfg.StatePath, "detail", recovery)
	}

	display := cfg.DisplayOptions()
	svc := app.NewService(lists, app.Options{
		Location:   cfg.Location(),
		Display:    &display,
		MaxBackups: cfg.MaxBackups,
		Logger:     logger,
	})

	m := tui.NewModel(svc, tui.Options{
		StatePath: cfg.StatePath,
		Autosave:  cfg.Autosave,
		Status:    recovery,
		Logger:    logger,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

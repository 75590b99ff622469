package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/handiism/fuo/internal/app"
	"github.com/handiism/fuo/internal/config"
	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", "", "Path to config file")
		logFlag    = flag.String("log", "", "Write logs to this file (default: discard)")
		verbose    = flag.Bool("verbose", false, "Show verbose output")
	)
	flag.Parse()

	if err := run(*configFlag, *logFlag, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logPath string, verbose bool) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The screen belongs to the TUI, so logs go to a file or nowhere.
	var w io.Writer = io.Discard
	if logPath != "" {
		if err := ioutils.EnsureDir(filepath.Dir(logPath)); err != nil {
			return err
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	logger := settings.NewLogger(w, verbose)

	a, err := app.New(settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(context.Background()); err != nil {
		return err
	}
	return tui.Run(a)
}

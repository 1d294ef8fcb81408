// readmark - A personal reading assistant for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/readmark/internal/assistant"
	"github.com/jeranaias/readmark/internal/cli"
	"github.com/jeranaias/readmark/internal/config"
	"github.com/jeranaias/readmark/internal/lmstudio"
	"github.com/jeranaias/readmark/internal/model"
	"github.com/jeranaias/readmark/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a config file (TOML or JSON)")
		dataDir     = flag.String("data-dir", "", "data directory (default ~/.readmark)")
		endpoint    = flag.String("endpoint", "", "LM Studio endpoint override")
		logLevel    = flag.String("log-level", "", "log level (trace, debug, info, warn, error)")
		modeName    = flag.String("mode", "auto", "processing mode for one-shot use (auto, summary, continue)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("readmark %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config and environment
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *endpoint != "" {
		cfg.Server.Endpoint = *endpoint
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	store, err := storage.NewStore(cfg.DataDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client := lmstudio.NewClientWithConfig(&lmstudio.ClientConfig{
		Endpoint:          cfg.Server.Endpoint,
		APIKey:            cfg.Server.APIKey,
		DefaultModel:      cfg.Server.DefaultModel,
		ConnectTimeout:    time.Duration(cfg.Server.ConnectTimeoutSecs) * time.Second,
		RequestTimeout:    time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
	}, log)

	orch := assistant.New(client, store, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// One-shot: positional text is processed once and printed, no REPL.
	if flag.NArg() > 0 {
		text := strings.Join(flag.Args(), " ")
		if err := cli.RunOnce(ctx, orch, os.Stdout, text, model.ModeFromString(*modeName)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Watch.Enabled {
		if err := orch.WatchDataDir(ctx); err != nil {
			log.Warn().Err(err).Msg("data directory watcher unavailable")
		}
	}

	repl := cli.New(orch, os.Stdout)
	defer repl.Close()

	if err := repl.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the bootstrap configuration, honoring an explicit path.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// newLogger builds the process logger from the Log section of the config.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Log.Format == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return log.Level(level).With().Timestamp().Logger()
}

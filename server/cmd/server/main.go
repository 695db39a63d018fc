package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HampusRydin/vision-scroll-select-stream/internal/logger"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/app"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/config"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file; empty uses built-in defaults")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Error("failed to load env file", "path", *envFile, "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat, os.Stdout)
	slog.SetDefault(log)

	slog.Info("detecthub starting",
		"config", *configPath,
		"addr", cfg.Server.Addr(),
		"feed_ids", cfg.Broadcast.FeedIDs,
		"relay_submissions", cfg.Server.RelaySubmissions,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := app.New(cfg, log)

	// Broadcast settings are applied live; listener changes need a restart.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				a.ApplyBroadcast(updated.Broadcast)
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("detecthub stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("detecthub stopped by user")
}

// defaultConfigPath returns config.yaml when it exists in the working
// directory, otherwise "" so the built-in defaults apply.
func defaultConfigPath() string {
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

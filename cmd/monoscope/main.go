package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"monoscope/internal/config"
	"monoscope/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./monoscope.toml", "Path to config file")
	project    = flag.String("project", "", "Project root to analyze (overrides config)")
	out        = flag.String("out", "", "Graph artifact path (overrides config)")
	watch      = flag.Bool("watch", false, "Re-run analysis when sources change")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("monoscope v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx)
	if err != nil {
		slog.Warn("tracing setup failed", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownTracing(ctx) }()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *watch || cfg.Watch.Enabled {
		err = app.RunWatch(ctx)
	} else {
		err = app.RunOnce(ctx)
	}
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, statErr := os.Stat(*configPath); statErr == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if *project != "" {
		cfg.Project.Root = *project
	}
	if *out != "" {
		cfg.Output.GraphFile = *out
	}
	return cfg, nil
}

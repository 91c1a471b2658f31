// expandd - system-wide text expansion daemon
//
//	expandd init            Create the data directory and a default config
//	expandd run             Run the expansion daemon
//	expandd snippets        List configured snippets
//	expandd status          Show configuration and platform availability
//	expandd version         Show the version
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expandd/internal/config"
	"expandd/internal/hook"
	"expandd/internal/logging"
	"expandd/internal/metrics"
	"expandd/pkg/expansion"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		cmdInit()
	case "run":
		cmdRun()
	case "snippets":
		cmdSnippets()
	case "status":
		cmdStatus()
	case "version":
		fmt.Printf("expandd %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`expandd - system-wide text expansion

USAGE:
    expandd <command> [options]

COMMANDS:
    init        Create the data directory and a default config file
    run         Run the expansion daemon
    snippets    List configured snippets
    status      Show configuration and platform availability
    version     Show the version
    help        Show this help message

Snippets live in the config file. A trigger like "!sig" typed anywhere
is replaced with its content in the focused application. Edits to the
config file are picked up while the daemon runs; settings that need a
hook restart are applied on the next start.

ENVIRONMENT:
    EXPANDD_DATA_DIR      Override the data directory
    EXPANDD_LOG_LEVEL     Override logging.level
    EXPANDD_LOG_PATH      Override logging.file_path
    EXPANDD_METRICS_ADDR  Override metrics.listen_addr`)
}

func cmdInit() {
	cfg := config.DefaultConfig()
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	path := config.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Add snippets to the config file")
	fmt.Println("  2. Run 'expandd run'")
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the config file")
	fs.Parse(os.Args[2:])

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	if created {
		logger.Info("created default config", "path", path)
	}
	logger.Info("starting", "version", version, "config", path)

	svc, err := expansion.New(expansion.Options{
		Config: cfg,
		Logger: logger.Logger,
	})
	if err != nil {
		logger.Error("engine setup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.StartMonitoring(ctx); err != nil {
		logger.Error("monitoring failed to start", "error", err)
		os.Exit(1)
	}
	defer svc.Close()
	logger.Info("monitoring started", "triggers", len(svc.Triggers()))

	// Config file watch: safe tunables apply live.
	loader := config.NewLoader(path)
	if _, err := loader.Load(); err != nil {
		logger.Warn("config watch disabled", "error", err)
	} else if err := loader.Watch(); err != nil {
		logger.Warn("config watch disabled", "error", err)
	} else {
		defer loader.Close()
		loader.OnChange(func(next *config.Config) {
			if err := svc.ApplyConfig(next); err != nil {
				logger.Error("config reload rejected", "error", err)
				return
			}
			logger.Info("config reloaded", "path", path)
		})
		go func() {
			for err := range loader.Errors() {
				logger.Warn("config watch error", "error", err)
			}
		}()
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = serveMetrics(cfg.Metrics.ListenAddr, logger)
		defer shutdownMetrics(metricsSrv, logger)

		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.GetMetrics().UpdateUptime()
				}
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String())
}

// newLogger builds the daemon logger from the file configuration.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = format
	logCfg.Output = cfg.Logging.Output
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}
	if cfg.Logging.MaxSizeMB > 0 {
		logCfg.MaxSize = int64(cfg.Logging.MaxSizeMB)
	}
	if cfg.Logging.MaxBackups > 0 {
		logCfg.MaxBackups = cfg.Logging.MaxBackups
	}
	if cfg.Logging.MaxAgeDays > 0 {
		logCfg.MaxAge = cfg.Logging.MaxAgeDays
	}
	logCfg.Compress = cfg.Logging.Compress

	return logging.New(logCfg)
}

// serveMetrics exposes the metric registry over HTTP on addr.
func serveMetrics(addr string, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Default().HTTPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown", "error", err)
	}
}

func cmdSnippets() {
	fs := flag.NewFlagSet("snippets", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the config file")
	fs.Parse(os.Args[2:])

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if len(cfg.Snippets) == 0 {
		fmt.Println("No snippets configured.")
		fmt.Printf("Add [[snippets]] entries to %s\n", path)
		return
	}

	for _, s := range cfg.Snippets {
		content := s.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		fmt.Printf("  %-16s %s\n", s.Trigger, content)
	}
}

func cmdStatus() {
	fmt.Println("=== expandd Status ===")
	fmt.Println()
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Data directory: %s\n", config.ExpanddDir())
	fmt.Printf("Config file: %s\n", config.ConfigPath())

	cfg, err := config.NewLoader(config.ConfigPath()).Load()
	if err != nil {
		fmt.Printf("Config: INVALID (%v)\n", err)
	} else {
		fmt.Printf("Snippets: %d\n", len(cfg.Snippets))
		fmt.Printf("Watchdog: %v\n", cfg.Watchdog.Enabled)
		fmt.Printf("Metrics: %v\n", cfg.Metrics.Enabled)
	}

	if ok, reason := hook.New().Available(); ok {
		fmt.Println("Keyboard capture: available")
	} else {
		fmt.Printf("Keyboard capture: UNAVAILABLE (%s)\n", reason)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/23skdu/miniviva/cmd/webui/handlers"
	"github.com/23skdu/miniviva/cmd/webui/templates"
	"github.com/23skdu/miniviva/internal/config"
	"github.com/23skdu/miniviva/internal/logger"
	"github.com/23skdu/miniviva/internal/similarity/backend"
)

var (
	envFile        = flag.String("env", "", "Path to a .env file (default .env)")
	port           = flag.Int("port", 0, "HTTP server port (overrides PORT)")
	host           = flag.String("host", "", "Host to bind to (overrides HOST)")
	comparator     = flag.String("comparator", "", "Semantic backend: hf, local, flight or none (overrides COMPARATOR)")
	allowedOrigins = flag.String("allowed-origins", "", "Comma-separated list of allowed CORS origins for /api")
	logLevel       = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat      = flag.String("log-format", "", "Log format: console or json")
)

func main() {
	flag.Parse()

	cfg, err := config.FromEnv(*envFile)
	if err != nil {
		logger.Log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(&cfg)
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := templates.InitTemplates(); err != nil {
		logger.Log.Error("Failed to initialize templates", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	evaluator, closeComparator, err := backend.NewEvaluator(ctx, cfg)
	if err != nil {
		logger.Log.Error("Failed to set up comparator", "comparator", string(cfg.Comparator), "error", err)
		os.Exit(1)
	}
	defer closeComparator()

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.NewRouter(evaluator, handlers.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.SemanticTimeout + 10*time.Second,
			Logger:         logger.Log.With("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("Graceful shutdown failed", "error", err)
		}
	}()

	logger.Log.Info("Starting grader web UI",
		"version", handlers.Version,
		"addr", cfg.Addr(),
		"comparator", string(cfg.Comparator),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Log.Info("Server stopped")
}

func applyFlags(cfg *config.Config) {
	if *port != 0 {
		cfg.Port = *port
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *comparator != "" {
		cfg.Comparator = config.ComparatorKind(strings.ToLower(*comparator))
	}
	if *allowedOrigins != "" {
		cfg.AllowedOrigins = config.SplitList(*allowedOrigins)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
}

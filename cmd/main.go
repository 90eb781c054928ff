package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/winequality/internal/adapters/http/api"
	"github.com/okian/winequality/internal/adapters/http/site"
	"github.com/okian/winequality/internal/adapters/http/swagger"
	app "github.com/okian/winequality/internal/app"
	"github.com/okian/winequality/internal/config"
	"github.com/okian/winequality/pkg/logger"
	"github.com/okian/winequality/pkg/metrics"
	"golang.org/x/text/language"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging with defaults until the configured format is known.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metricOpts, err := metricsOptions(cfg)
	if err != nil {
		os.Stderr.WriteString("invalid metrics config: " + err.Error() + "\n")
		os.Exit(1)
	}
	metrics.Configure(metricOpts...)

	// Load the model once and build the service around it.
	svc, err := app.FromConfig(ctx, cfg, app.WithLogger(logger.Named("service")))
	if err != nil {
		os.Stderr.WriteString("failed to load model: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer svc.Stop()

	mux, err := newMux(ctx, cfg, svc)
	if err != nil {
		os.Stderr.WriteString("failed to build routes: " + err.Error() + "\n")
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// metricsOptions maps the metrics_* keys onto the metrics manager options.
func metricsOptions(cfg *config.Config) ([]metrics.Option, error) {
	labels, err := cfg.ConstLabels()
	if err != nil {
		return nil, err
	}
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithConstLabels(labels),
	}, nil
}

// newMux registers the dashboard, static assets, API docs and the JSON API.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) (*http.ServeMux, error) {
	tag, err := language.Parse(cfg.DefaultLang)
	if err != nil {
		return nil, fmt.Errorf("%w: default_lang: %w", config.ErrInvalidConfig, err)
	}

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer, err := api.NewServer(svc,
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithDefaultLang(tag),
		api.WithLogger(logger.Named("api")),
	)
	if err != nil {
		return nil, err
	}
	apiServer.Register(ctx, mux)
	return mux, nil
}

// Command pprforecast scrapes season logs, trains the fantasy PPR model,
// predicts next-season scores and serves the ranked leaderboard.
//
// Usage:
//
//	pprforecast <collect|averages|train|predict|sort|serve>
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/pprforecast/internal/adapters/http/api"
	app "github.com/okian/pprforecast/internal/app"
	"github.com/okian/pprforecast/internal/config"
	"github.com/okian/pprforecast/pkg/logger"
	"github.com/okian/pprforecast/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var commands = []string{"collect", "averages", "train", "predict", "sort", "serve"} //nolint:gochecknoglobals // usage table

var errUsage = errors.New("usage: pprforecast <" + strings.Join(commands, "|") + ">")

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, os.Args[1:], cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "command failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run dispatches one subcommand. Batch commands dump the metrics registry to
// cfg.MetricsFile when they finish, whether or not they succeeded.
func run(ctx context.Context, args []string, cfg *config.Config, log logger.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	command := args[0]

	svc, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		return err
	}

	var runErr error
	switch command {
	case "collect":
		_, runErr = svc.CollectTraining(ctx)
	case "averages":
		_, runErr = svc.CollectAverages(ctx)
	case "train":
		_, runErr = svc.Train(ctx)
	case "predict":
		_, runErr = svc.Predict(ctx)
	case "sort":
		_, runErr = svc.Sort(ctx)
	case "serve":
		return serve(ctx, svc, cfg, log)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn(ctx, "metrics textfile not written", logger.String("path", cfg.MetricsFile), logger.Error(err))
	}
	return runErr
}

// serve loads the sorted predictions and serves the leaderboard until ctx is
// cancelled.
func serve(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) error {
	if _, err := svc.LoadLeaderboard(ctx); err != nil {
		return err
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case err := <-errCh:
		if err != nil {
			return api.WrapKind("serve", api.ErrServe, err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}

	log.Info(ctx, "server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/customer-rewards/api"
	"github.com/warp/customer-rewards/rewards"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Runs the HTTP API on APP_ADDR until SIGINT or SIGTERM.

When SEED_SCENARIO names an embedded dataset the store is reset and loaded
with it before the server starts.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := api.NewHandler(a.svc, a.store, rewards.SystemClock, a.logger)
	if a.cfg.SeedScenario != "" {
		if _, err := handler.UseScenario(ctx, a.cfg.SeedScenario); err != nil {
			return fmt.Errorf("seed scenario %q: %w", a.cfg.SeedScenario, err)
		}
	}

	router := api.NewRouter(handler, api.RouterOptions{
		Logger:             a.logger,
		CORSOrigins:        a.cfg.CORSOrigins,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
		RequestTimeout:     a.cfg.AppRequestTimeout,
	})

	server := &http.Server{
		Addr:         a.cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.AppReadTimeout,
		WriteTimeout: a.cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.cfg.AppAddr),
			slog.String("driver", a.cfg.DBDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

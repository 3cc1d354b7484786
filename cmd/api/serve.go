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

	"square-payment-gateway/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var checkInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the token renewal scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(checkInterval)
		},
	}

	cmd.Flags().DurationVar(&checkInterval, "renewal-check-interval", time.Hour, "how often to check whether token renewal is due")

	return cmd
}

func runServe(checkInterval time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if a.cfg.Renewal.Enabled {
		go a.renewal.Start(ctx, checkInterval)
	}

	srv := server.NewServer(server.Services{
		Credentials:  a.credentials,
		OAuth:        a.oauth,
		Square:       a.square,
		Payment:      a.payment,
		Renewal:      a.renewal,
		CustomerRepo: a.customerRepo,
	}, a.cfg.Auth.JWTSecret, a.logger)

	serverAddr := a.cfg.HTTP.Host + ":" + a.cfg.HTTP.Port

	a.logger.Info("Starting HTTP server", zap.String("addr", serverAddr), zap.String("environment", a.cfg.Environment.Name))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-sigChan:
		a.logger.Info("Signal received, starting graceful shutdown...")
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	return nil
}

// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/config"
	"github.com/Shivanand-hulikatti/eventhub/internal/database"
	"github.com/Shivanand-hulikatti/eventhub/internal/handler"
	"github.com/Shivanand-hulikatti/eventhub/internal/participation"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "eventhub",
		Usage: "Event listings with participation tracking.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := cfg.NewLogger()

			pool, err := database.NewPool(c.Context, cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			if err := database.Migrate(c.Context, pool); err != nil {
				return err
			}
			logger.Info("schema up to date")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-migrate", Usage: "Do not apply the schema on startup."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := cfg.NewLogger()
			slog.SetDefault(logger)
			return serve(c.Context, cfg, logger, !c.Bool("skip-migrate"))
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, migrate bool) error {
	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.Name)

	if migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	partRepo := repository.NewParticipationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	manager := participation.NewManager(eventRepo, partRepo, logger)
	eventSvc := service.NewEventService(eventRepo, partRepo, manager, logger)

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, nil)
	cookies := auth.Cookies{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	authSvc := auth.NewService(userRepo, tokens)

	resp := handler.NewResponder(cfg.MessageTTL, logger)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Tokens:         tokens,
		Cookies:        cookies,
		CSRFKey:        []byte(cfg.CSRF.Key),
		CSRFSecure:     cfg.Auth.CookieSecure,
		TrustedOrigins: cfg.CSRF.TrustedOrigins,
		WebDir:         cfg.WebDir,
	},
		handler.NewEventHandler(eventSvc, manager, resp),
		handler.NewAuthHandler(authSvc, cookies, resp),
	)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

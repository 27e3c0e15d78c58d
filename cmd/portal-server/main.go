package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/careview/careview/internal/config"
	"github.com/careview/careview/internal/notify"
	"github.com/careview/careview/internal/platform/apiclient"
	"github.com/careview/careview/internal/platform/db"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/platform/middleware"
	"github.com/careview/careview/internal/screens"
	"github.com/careview/careview/internal/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "CareView hospital portal gateway",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(routesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the session table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if _, err := pool.Exec(ctx, session.MigrationSessions); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("session table is up to date")
			return nil
		},
	}
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the role/route capability table",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-28s %-22s %s\n", "PATH", "LABEL", "ROLES")
			for _, cap := range guard.Capabilities {
				fmt.Printf("%-28s %-22s %v\n", cap.Path, cap.Label, cap.Roles)
			}
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	secret := cfg.SessionSecret
	if secret == "" {
		// Development only; Validate rejects this combination elsewhere.
		secret = ephemeralSecret()
		logger.Warn().Msg("using an ephemeral session secret; sessions will not survive a restart")
	}

	// Session store: Postgres when configured, memory otherwise
	ctx := context.Background()
	var store session.Store
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		store = session.NewPGStoreFromPool(pool)
		logger.Info().Msg("sessions persisted in postgres")
	} else {
		store = session.NewMemoryStore()
		logger.Info().Msg("sessions held in memory")
	}

	sessions := session.NewManager(store, []byte(secret), time.Duration(cfg.SessionTTLMin)*time.Minute, logger)

	// Upstream API client
	api := apiclient.New(cfg.APIBaseURL, time.Duration(cfg.APITimeoutSec)*time.Second, nil, logger)

	// Notifications: feed, websocket hub, upstream poller
	feed := notify.NewFeed(api, logger)
	hub := notify.NewHub()
	ws := notify.NewHandler(hub, logger)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if cfg.NotifyPollSec > 0 {
		poller := notify.NewPoller(api, feed, hub, time.Duration(cfg.NotifyPollSec)*time.Second, logger)
		go poller.Run(pollCtx)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(loginRateLimit(cfg.LoginRateRPS, cfg.LoginRateBurst))

	// Routes
	screens.New(api, sessions, feed, cfg.DefaultPageSize, logger).Register(e, ws)
	e.GET("/healthz", db.HealthHandler(pool))

	// Periodic purge of expired session rows
	if pg, ok := store.(*session.PGStore); ok {
		go cleanupLoop(pollCtx, pg, logger)
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("upstream", cfg.APIBaseURL).Msg("starting portal")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down portal")
	stopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("portal stopped")
	return nil
}

// loginRateLimit applies the credential-stuffing limiter to the login route
// only; every other route passes through untouched.
func loginRateLimit(rate float64, burst int) echo.MiddlewareFunc {
	limiter := middleware.RateLimit(rate, burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		limited := limiter(next)
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodPost && c.Request().URL.Path == "/login" {
				return limited(c)
			}
			return next(c)
		}
	}
}

func cleanupLoop(ctx context.Context, store *session.PGStore, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				logger.Warn().Err(err).Msg("session cleanup failed")
			}
		}
	}
}

func ephemeralSecret() string {
	buf := make([]byte, 32)
	if _, err := crypto_rand.Read(buf); err != nil {
		panic(fmt.Sprintf("cannot generate session secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

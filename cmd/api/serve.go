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

	"github.com/picshelf/service/internal/auth"
	"github.com/picshelf/service/internal/config"
	"github.com/picshelf/service/internal/db"
	"github.com/picshelf/service/internal/image"
	"github.com/picshelf/service/internal/metrics"
	"github.com/picshelf/service/internal/server"
	"github.com/picshelf/service/internal/storage"
	"github.com/picshelf/service/internal/user"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
}

// stores bundles the persistence layer of whichever engine DATABASE_URL selects.
type stores struct {
	users  user.Store
	groups image.GroupStore
	ping   func(ctx context.Context) error
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.UsesSQLite() {
		slog.Info("opening database", "engine", "sqlite", "path", cfg.SQLitePath())
		st, err := db.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		return &stores{
			users:  user.NewSQLiteRepository(st),
			groups: image.NewSQLiteRepository(st),
			ping:   st.DB.PingContext,
			close:  func() { _ = st.Close() },
		}, nil
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return &stores{
		users:  user.NewRepository(pool),
		groups: image.NewRepository(pool),
		ping:   pool.Ping,
		close:  pool.Close,
	}, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default().With("component", "server")

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	resolver, err := storage.NewResolver(cfg.Storage.DefaultBucket, cfg.Storage.ClientCacheSize)
	if err != nil {
		return fmt.Errorf("object storage init failed: %w", err)
	}
	prom, err := metrics.New()
	if err != nil {
		return err
	}

	// repository → service → handler
	userSvc := user.NewService(st.users)
	authSvc := auth.NewService(userSvc, cfg.JWTSecret, cfg.JWTTTL)
	imageSvc := image.NewService(resolver, st.groups, prom)

	srv := server.New(cfg, server.NewRouter(server.Deps{
		Config:  cfg,
		Logger:  logger,
		Users:   userSvc,
		Auth:    authSvc,
		Images:  imageSvc,
		Metrics: prom.Handler(),
		Ping:    st.ping,
	}))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

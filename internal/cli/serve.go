package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reservationsystem/internal/api"
	"reservationsystem/internal/config"
	"reservationsystem/internal/logging"
	"reservationsystem/internal/repository"
	"reservationsystem/internal/service"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg, logger)
		},
	}
}

// app is the wired service graph behind the HTTP server.
type app struct {
	store     repository.Store
	handler   http.Handler
	jobs      *service.JobService
	scheduler *cron.Cron
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	svc := service.NewReservationService(store, logger, service.Options{
		StrictConflicts:    cfg.StrictConflicts,
		SerializeApprovals: cfg.SerializeApprovals,
		RejectPastDates:    cfg.RejectPastDates,
	})
	handler := api.NewRouter(api.NewReservationHandler(svc, logger), logger, api.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Store:          store,
	})

	a := &app{
		store:   store,
		handler: handler,
		jobs:    service.NewJobService(store, logger, time.Now),
	}
	if cfg.ExpirePendingEnabled() {
		a.scheduler = cron.New()
		_, err := a.scheduler.AddFunc(cfg.ExpirePendingSchedule, func() {
			if _, err := a.jobs.CancelExpiredPending(context.Background()); err != nil {
				logger.Error("expire pending reservations job failed", zap.Error(err))
			}
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("invalid JOB_EXPIRE_PENDING_SCHEDULE %q: %w", cfg.ExpirePendingSchedule, err)
		}
	}
	return a, nil
}

// Serve runs the API until ctx is cancelled, then shuts down within cfg.ShutdownTimeout.
func Serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.store.Close()

	if a.scheduler != nil {
		a.scheduler.Start()
		defer a.scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

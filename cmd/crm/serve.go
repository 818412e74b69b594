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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	crmhttp "github.com/Strob0t/crm/internal/adapter/http"
	crmotel "github.com/Strob0t/crm/internal/adapter/otel"
	"github.com/Strob0t/crm/internal/adapter/postgres"
	"github.com/Strob0t/crm/internal/config"
	"github.com/Strob0t/crm/internal/domain/activity"
	"github.com/Strob0t/crm/internal/domain/company"
	"github.com/Strob0t/crm/internal/domain/contact"
	"github.com/Strob0t/crm/internal/domain/deal"
	"github.com/Strob0t/crm/internal/logger"
	"github.com/Strob0t/crm/internal/middleware"
	"github.com/Strob0t/crm/internal/service"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations at startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, skipMigrate bool) error {
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"base_path", cfg.Server.BasePath,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	// --- Infrastructure ---

	shutdownOTel, err := crmotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(flushCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if !skipMigrate {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.ConnString()); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
	}

	// --- Services ---

	metrics, err := crmotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	store := postgres.NewStore(pool)
	authSvc, err := service.NewAuthService(store, cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	authSvc.SetMetrics(metrics)

	companies := service.NewRecordService[company.Company](&company.Definition, store.Companies)
	contacts := service.NewRecordService[contact.Contact](&contact.Definition, store.Contacts)
	deals := service.NewRecordService[deal.Deal](&deal.Definition, store.Deals)
	activities := service.NewRecordService[activity.Activity](&activity.Definition, store.Activities)
	companies.SetMetrics(metrics)
	contacts.SetMetrics(metrics)
	deals.SetMetrics(metrics)
	activities.SetMetrics(metrics)

	// --- HTTP ---

	handlers := &crmhttp.Handlers{
		Auth:        authSvc,
		Companies:   companies,
		Contacts:    contacts,
		Deals:       deals,
		Activities:  activities,
		DB:          store,
		ServiceName: cfg.Logging.Service,
		BodyLimit:   cfg.Server.BodyLimit,
		StartedAt:   time.Now(),
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(crmotel.HTTPMiddleware(cfg.OTel.ServiceName))
	r.Use(crmhttp.Logger)
	r.Use(crmhttp.Recoverer)
	r.Use(crmhttp.CORS(cfg.Server.CORSOrigins))
	r.Use(crmhttp.SecurityHeaders)
	r.Use(crmhttp.NoStore)
	crmhttp.MountRoutes(r, handlers, cfg.Server, limiter)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		limiter.StartCleanup(gctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
		return nil
	})

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

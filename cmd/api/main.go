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

	"github.com/geocoder89/rxtrack/internal/auth"
	"github.com/geocoder89/rxtrack/internal/config"
	"github.com/geocoder89/rxtrack/internal/db"
	httpx "github.com/geocoder89/rxtrack/internal/http"
	"github.com/geocoder89/rxtrack/internal/http/handlers"
	"github.com/geocoder89/rxtrack/internal/http/middlewares"
	"github.com/geocoder89/rxtrack/internal/observability"
	"github.com/geocoder89/rxtrack/internal/redisclient"
	"github.com/geocoder89/rxtrack/internal/repo/postgres"
	"github.com/geocoder89/rxtrack/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.OTELServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(sctx); err != nil {
				log.Warn("tracer shutdown failed", "err", err)
			}
		}()
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if cfg.DBMigrate {
		if err := db.Migrate(cfg.DBURL); err != nil {
			return err
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	users := postgres.NewUsersRepo(pool, prom)
	prescriptions := postgres.NewPrescriptionsRepo(pool, prom)

	seedCtx, cancelSeed := config.WithTimeout(ctx, 10*time.Second)
	created, err := db.EnsureAdminUser(seedCtx, users, cfg.AdminUsername, cfg.AdminPassword)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if created {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	readyChecks := map[string]handlers.Pinger{"postgres": pool.Ping}

	var loginCounter middlewares.WindowCounter
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rc.Close() }()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn("redis unreachable at startup, rate limiting fails open until it recovers", "err", err)
		}
		cancel()

		loginCounter = rc
		readyChecks["redis"] = rc.Ping
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	router := httpx.NewRouter(log, httpx.Deps{
		Config:        cfg,
		Auth:          service.NewAuthService(users, tokens),
		Prescriptions: service.NewPrescriptionService(prescriptions, time.Now),
		Reports:       service.NewReportService(prescriptions, time.Now),
		LoginCounter:  loginCounter,
		Prom:          prom,
		ReadyChecks:   readyChecks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return nil
	}

	log.Info("shutdown complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benx421/rapidpay/internal/events"
	"github.com/benx421/rapidpay/internal/events/kafka"
	"github.com/benx421/rapidpay/internal/handlers"
	"github.com/benx421/rapidpay/internal/metrics"
	"github.com/benx421/rapidpay/internal/repository"
	"github.com/benx421/rapidpay/internal/scheduler"
	"github.com/benx421/rapidpay/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const idempotencyPurgeSchedule = "@every 1h"

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the fee updater",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := a.db.Migrate(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			}
			return a.serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("starting card ledger api",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"env", cfg.Env,
	)

	codec, err := a.codec()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	publisher := a.publisher()
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	idempotencyRepo, purger, closeRedis, err := a.idempotencyStore(ctx)
	if err != nil {
		return err
	}
	defer closeRedis()

	cardService := service.NewCardService(a.db, codec, logger, m, publisher, cfg.Ledger.InitialBalanceMax, cfg.Ledger.ConflictRetryLimit)
	authService := service.NewAuthorizationService(a.db, codec, logger, m, cfg.Ledger.VelocityWindow)
	payService := service.NewPaymentService(a.db, codec, logger, m, publisher, cfg.Ledger.ConflictRetryLimit)
	feeService := service.NewFeeService(a.db, logger, m)

	handler := handlers.NewHandler(cardService, authService, payService, feeService, a.db, logger)
	router, err := handlers.NewRouter(handler, handlers.RouterConfig{
		Idempotency:  idempotencyRepo,
		Gatherer:     registry,
		SigningKey:   []byte(cfg.Auth.JWTSigningKey),
		AuthDisabled: cfg.Auth.Disabled,
	}, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	updater := scheduler.NewFeeUpdater(feeService, a.db, purger, logger, scheduler.Config{
		FeeSchedule:    cfg.Ledger.FeeUpdateSchedule,
		PurgeSchedule:  idempotencyPurgeSchedule,
		PollInterval:   cfg.Ledger.FeeReadinessPoll,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return updater.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func (a *app) publisher() events.Publisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured; events disabled")
		return events.NopPublisher{}
	}
	a.logger.Info("publishing card events", "brokers", a.cfg.Kafka.Brokers, "topic", a.cfg.Kafka.Topic)
	return kafka.NewPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
}

// idempotencyStore returns Redis when REDIS_URL is set and Postgres otherwise.
// Only the Postgres store needs the purge job; Redis expires keys itself.
func (a *app) idempotencyStore(ctx context.Context) (repository.IdempotencyRepository, scheduler.IdempotencyPurger, func(), error) {
	if a.cfg.Redis.URL == "" {
		repo := repository.NewIdempotencyRepository(a.db)
		return repo, repo, func() {}, nil
	}

	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // already failing
		return nil, nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	a.logger.Info("using redis for idempotency keys", "ttl", a.cfg.Redis.IdempotencyTTL)
	closeFn := func() {
		if err := client.Close(); err != nil {
			a.logger.Error("failed to close redis client", "error", err)
		}
	}
	return repository.NewRedisIdempotencyRepository(client, "", a.cfg.Redis.IdempotencyTTL), nil, closeFn, nil
}

// Package scheduler runs the ledger's background jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const jobTimeout = time.Minute

// FeeStepper advances the fee timeline
type FeeStepper interface {
	StepFee(ctx context.Context) (decimal.Decimal, error)
	EvolveFee(ctx context.Context) (decimal.Decimal, error)
}

// ReadinessChecker reports whether storage is reachable and migrated
type ReadinessChecker interface {
	SchemaReady(ctx context.Context) (bool, error)
}

// IdempotencyPurger removes cached responses older than a cutoff
type IdempotencyPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config controls the updater's timing
type Config struct {
	FeeSchedule    string
	PurgeSchedule  string
	PollInterval   time.Duration
	IdempotencyTTL time.Duration
}

// FeeUpdater waits for storage, takes one fee step, then evolves the fee on a
// cron schedule until its context is cancelled.
type FeeUpdater struct {
	cron   *cron.Cron
	fees   FeeStepper
	ready  ReadinessChecker
	purger IdempotencyPurger
	logger *slog.Logger
	now    func() time.Time
	cfg    Config
}

// NewFeeUpdater creates a FeeUpdater. purger may be nil.
func NewFeeUpdater(fees FeeStepper, ready ReadinessChecker, purger IdempotencyPurger, logger *slog.Logger, cfg Config) *FeeUpdater {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	return &FeeUpdater{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		fees:   fees,
		ready:  ready,
		purger: purger,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Run blocks until ctx is cancelled. Cancellation during the readiness wait is
// a clean shutdown; on exit Run waits for an in-flight job to finish.
func (u *FeeUpdater) Run(ctx context.Context) error {
	if err := u.waitForStorage(ctx); err != nil {
		if ctx.Err() != nil {
			u.logger.Info("fee updater stopped before storage became ready")
			return nil
		}
		return err
	}

	jobCtx := context.WithoutCancel(ctx)

	u.stepFee(jobCtx)

	if _, err := u.cron.AddFunc(u.cfg.FeeSchedule, func() { u.evolveFee(jobCtx) }); err != nil {
		return fmt.Errorf("failed to schedule fee evolution %q: %w", u.cfg.FeeSchedule, err)
	}
	u.logger.Info("scheduled fee evolution", "schedule", u.cfg.FeeSchedule)

	if u.purger != nil && u.cfg.PurgeSchedule != "" {
		if _, err := u.cron.AddFunc(u.cfg.PurgeSchedule, func() { u.purgeIdempotencyKeys(jobCtx) }); err != nil {
			return fmt.Errorf("failed to schedule idempotency purge %q: %w", u.cfg.PurgeSchedule, err)
		}
		u.logger.Info("scheduled idempotency purge", "schedule", u.cfg.PurgeSchedule)
	}

	u.cron.Start()
	<-ctx.Done()

	u.logger.Info("stopping fee updater")
	<-u.cron.Stop().Done()
	return nil
}

func (u *FeeUpdater) waitForStorage(ctx context.Context) error {
	ticker := time.NewTicker(u.cfg.PollInterval)
	defer ticker.Stop()

	for {
		ready, err := u.ready.SchemaReady(ctx)
		if ready {
			u.logger.Info("storage ready, starting fee updates")
			return nil
		}
		u.logger.Info("waiting for storage", "error", err, "retry_in", u.cfg.PollInterval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (u *FeeUpdater) stepFee(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := u.fees.StepFee(ctx); err != nil {
		u.logger.Error("initial fee step failed", "error", err)
	}
}

func (u *FeeUpdater) evolveFee(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := u.fees.EvolveFee(ctx); err != nil {
		u.logger.Error("scheduled fee evolution failed", "error", err)
	}
}

func (u *FeeUpdater) purgeIdempotencyKeys(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	deleted, err := u.purger.DeleteOlderThan(ctx, u.now().Add(-u.cfg.IdempotencyTTL))
	if err != nil {
		u.logger.Error("idempotency purge failed", "error", err)
		return
	}
	if deleted > 0 {
		u.logger.Info("purged idempotency keys", "deleted", deleted)
	}
}

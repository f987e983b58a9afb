package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/metrics"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository"
	"github.com/shopspring/decimal"
)

const multiplierScale = 6

var (
	minimumFee      = decimal.RequireFromString("0.01")
	multiplierRange = big.NewInt(2_000_000)
)

// FeeService owns the fee timeline
type FeeService struct {
	db         *db.DB
	logger     *slog.Logger
	metrics    *metrics.Metrics
	multiplier func() (decimal.Decimal, error)
}

// NewFeeService creates a new FeeService
func NewFeeService(database *db.DB, logger *slog.Logger, m *metrics.Metrics) *FeeService {
	return &FeeService{
		db:         database,
		logger:     logger,
		metrics:    m,
		multiplier: randomMultiplier,
	}
}

// CurrentFee returns the most recently recorded fee, or zero for an empty timeline
func (s *FeeService) CurrentFee(ctx context.Context) (decimal.Decimal, error) {
	fee, err := currentFee(ctx, repository.NewFeeRepository(s.db))
	if err != nil {
		return decimal.Zero, internalError("failed to read current fee", err)
	}
	return fee, nil
}

// EvolveFee appends the next step of the fee random walk and returns it
func (s *FeeService) EvolveFee(ctx context.Context) (decimal.Decimal, error) {
	return s.appendInTx(ctx, "evolved", s.performEvolve)
}

// SeedFee appends a fee drawn uniformly from [0, 2) and returns it
func (s *FeeService) SeedFee(ctx context.Context) (decimal.Decimal, error) {
	return s.appendInTx(ctx, "seeded", s.performSeed)
}

// StepFee seeds an empty timeline and evolves a non-empty one
func (s *FeeService) StepFee(ctx context.Context) (decimal.Decimal, error) {
	return s.appendInTx(ctx, "stepped", func(ctx context.Context, repo repository.FeeRepository) (decimal.Decimal, error) {
		_, err := repo.Latest(ctx)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return s.performSeed(ctx, repo)
		case err != nil:
			return decimal.Zero, err
		default:
			return s.performEvolve(ctx, repo)
		}
	})
}

func (s *FeeService) appendInTx(
	ctx context.Context,
	action string,
	fn func(ctx context.Context, repo repository.FeeRepository) (decimal.Decimal, error),
) (decimal.Decimal, error) {
	var fee decimal.Decimal
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		fee, err = fn(ctx, repository.NewFeeRepository(tx))
		return err
	})
	if err != nil {
		s.logger.Error("fee update failed", "action", action, "error", err)
		return decimal.Zero, internalError("failed to update fee", err)
	}

	s.metrics.SetCurrentFee(fee)
	s.logger.Info("fee updated", "action", action, "fee", fee.StringFixed(2))
	return fee, nil
}

// performEvolve contains the fee random walk
func (s *FeeService) performEvolve(ctx context.Context, repo repository.FeeRepository) (decimal.Decimal, error) {
	previous, err := currentFee(ctx, repo)
	if err != nil {
		return decimal.Zero, err
	}

	multiplier, err := s.multiplier()
	if err != nil {
		return decimal.Zero, err
	}

	// An empty or zero timeline would stay at zero forever under multiplication.
	candidate := multiplier.Truncate(2)
	if !previous.IsZero() {
		candidate = previous.Mul(multiplier).Round(2)
	}
	if candidate.LessThanOrEqual(minimumFee) {
		candidate = minimumFee
	}

	if err := repo.Append(ctx, &models.FeeEntry{Fee: candidate}); err != nil {
		return decimal.Zero, err
	}
	return candidate, nil
}

// performSeed appends an initial fee
func (s *FeeService) performSeed(ctx context.Context, repo repository.FeeRepository) (decimal.Decimal, error) {
	multiplier, err := s.multiplier()
	if err != nil {
		return decimal.Zero, err
	}

	fee := multiplier.Truncate(2)
	if err := repo.Append(ctx, &models.FeeEntry{Fee: fee}); err != nil {
		return decimal.Zero, err
	}
	return fee, nil
}

// currentFee reads the fee in effect through repo
func currentFee(ctx context.Context, repo repository.FeeRepository) (decimal.Decimal, error) {
	entry, err := repo.Latest(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return entry.Fee, nil
}

// randomMultiplier draws uniformly from [0, 2) with micro precision
func randomMultiplier() (decimal.Decimal, error) {
	n, err := rand.Int(rand.Reader, multiplierRange)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to draw fee multiplier: %w", err)
	}
	return decimal.NewFromBigInt(n, -multiplierScale), nil
}

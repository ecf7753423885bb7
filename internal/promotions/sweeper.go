package promotions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// purgeRetention is how long inactive grants are kept before the storage
// hygiene purge removes them.
const purgeRetention = 90 * 24 * time.Hour

// Sweeper marks expired promotion grants as removed. The sweep is a cache
// freshener, not a correctness requirement: queries already compute
// activity from ends_at, so a missed tick only delays the flag.
type Sweeper struct {
	repo   Repository
	cache  *StatusCache
	logger *slog.Logger
}

// NewSweeper constructs a Sweeper.
func NewSweeper(repo Repository, cache *StatusCache, logger *slog.Logger) *Sweeper {
	return &Sweeper{repo: repo, cache: cache, logger: logger}
}

// Tick sweeps every promotion kind once and returns the per-kind counts.
// Each kind is a single idempotent bulk update, so re-running with the same
// clock touches nothing. A failing kind is logged and does not stop the
// others; the combined error lets the scheduler retry on the next tick.
// Cached status projections of swept articles are dropped so readers
// converge without waiting out the TTL.
func (s *Sweeper) Tick(ctx context.Context, now time.Time) (map[Kind]int64, error) {
	counts := make(map[Kind]int64, len(Kinds))
	var errs []error
	touched := make(map[uuid.UUID]struct{})
	for _, kind := range Kinds {
		swept, err := s.repo.SweepExpired(ctx, kind, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", kind, err))
			if s.logger != nil {
				s.logger.Error("promotion sweep failed", slog.String("kind", string(kind)), slog.Any("error", err))
			}
			continue
		}
		counts[kind] = int64(len(swept))
		for _, articleID := range swept {
			touched[articleID] = struct{}{}
		}
		if len(swept) > 0 && s.logger != nil {
			s.logger.Info("promotion sweep", slog.String("kind", string(kind)), slog.Int("expired", len(swept)))
		}
	}
	if s.cache != nil {
		for articleID := range touched {
			if err := s.cache.Invalidate(ctx, articleID); err != nil && s.logger != nil {
				s.logger.Warn("promotion sweep cache invalidate", slog.Any("error", err))
			}
		}
	}
	return counts, errors.Join(errs...)
}

// PurgeOld deletes grants that have been inactive for the retention window.
// Pure storage hygiene; safe to disable or delay arbitrarily.
func (s *Sweeper) PurgeOld(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.PurgeInactive(ctx, now.Add(-purgeRetention))
	if err != nil {
		return 0, fmt.Errorf("purge inactive grants: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Info("promotion purge", slog.Int64("deleted", n))
	}
	return n, nil
}

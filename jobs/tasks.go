package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/observability"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/promotions"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPromotionsSweep flags expired promotion grants.
	TaskPromotionsSweep = "promotions:sweep"
	// TaskPromotionsPurge deletes long-inactive promotion grants.
	TaskPromotionsPurge = "promotions:purge"
)

// NewPromotionsSweepTask constructs a sweep task. The tick reads its own
// clock, so the task carries no payload.
func NewPromotionsSweepTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskPromotionsSweep, nil), nil
}

// NewPromotionsPurgeTask constructs a purge task.
func NewPromotionsPurgeTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskPromotionsPurge, nil), nil
}

// NewSweepHandler returns the handler for TaskPromotionsSweep.
func NewSweepHandler(sweeper *promotions.Sweeper, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		counts, err := sweeper.Tick(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("promotions sweep task", slog.Any("error", err))
			return err
		}
		labelled := make(map[string]int64, len(counts))
		for kind, n := range counts {
			labelled[string(kind)] = n
		}
		metrics.ObserveSweep(labelled)
		return nil
	}
}

// NewPurgeHandler returns the handler for TaskPromotionsPurge.
func NewPurgeHandler(sweeper *promotions.Sweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := sweeper.PurgeOld(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("promotions purge task", slog.Any("error", err))
			return err
		}
		if n > 0 {
			logger.Info("promotions purge task", slog.Int64("deleted", n))
		}
		return nil
	}
}

package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler force-completes appointments whose end time has passed while
// their status stayed booked or rescheduled. It is invoked by a scheduler
// (cmd/autocomplete-worker); cadence is configuration, not logic.
type Reconciler struct {
	repo      Repository
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

func NewReconciler(repo Repository, batchSize int, logger zerolog.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Reconciler{
		repo:      repo,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger.With().Str("component", "reconciler").Logger(),
	}
}

// RunSweep drains overdue appointments batch by batch until a batch comes
// back short, then stops. Large backlogs spread across successive ticks
// instead of one unbounded transaction.
func (r *Reconciler) RunSweep(ctx context.Context) (int, error) {
	asOf := r.now().UTC()
	total := 0

	for {
		claimed, completed, err := r.repo.CompleteOverdueBatch(ctx, asOf, r.batchSize)
		if err != nil {
			return total, err
		}
		total += completed
		if claimed < r.batchSize {
			break
		}
	}

	if total > 0 {
		r.logger.Info().Int("completed", total).Msg("auto-complete sweep finished")
	}
	return total, nil
}

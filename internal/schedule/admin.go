package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/interval"
)

// Admin owns schedule writes. Malformed windows are rejected here so the
// resolver never has to defend against them.
type Admin struct {
	repo Repository
}

func NewAdmin(repo Repository) *Admin {
	return &Admin{repo: repo}
}

func (a *Admin) SetWeeklyTemplate(ctx context.Context, workerID uuid.UUID, weekday time.Weekday, window interval.Window, buffer time.Duration) (*WeeklyTemplate, error) {
	if _, err := interval.NewWindow(window.Start, window.End); err != nil {
		return nil, err
	}
	if buffer < 0 {
		return nil, fmt.Errorf("%w: negative buffer", interval.ErrInvalidInterval)
	}

	tpl, err := a.repo.UpsertTemplate(ctx, WeeklyTemplate{
		ID:       uuid.New(),
		WorkerID: workerID,
		Weekday:  weekday,
		Window:   window,
		Buffer:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert weekly template: %w", err)
	}
	return tpl, nil
}

// SetDateOverride accepts a zero-width window (Start == End) to mark the
// worker closed on that date. Inverted windows are still rejected.
func (a *Admin) SetDateOverride(ctx context.Context, workerID uuid.UUID, date time.Time, window interval.Window, buffer time.Duration) (*DateOverride, error) {
	if window.Start > window.End || window.Start < 0 || window.End > interval.MinutesPerDay {
		return nil, fmt.Errorf("%w: %s", interval.ErrInvalidInterval, window)
	}
	if buffer < 0 {
		return nil, fmt.Errorf("%w: negative buffer", interval.ErrInvalidInterval)
	}

	o, err := a.repo.UpsertOverride(ctx, DateOverride{
		ID:       uuid.New(),
		WorkerID: workerID,
		Date:     Date(date),
		Window:   window,
		Buffer:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert date override: %w", err)
	}
	return o, nil
}

func (a *Admin) RemoveDateOverride(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	if err := a.repo.DeleteOverride(ctx, workerID, Date(date)); err != nil {
		return fmt.Errorf("delete date override: %w", err)
	}
	return nil
}

func (a *Admin) AddBreak(ctx context.Context, workerID uuid.UUID, date time.Time, window interval.Window) (*Break, error) {
	if _, err := interval.NewWindow(window.Start, window.End); err != nil {
		return nil, err
	}

	b, err := a.repo.CreateBreak(ctx, Break{
		ID:       uuid.New(),
		WorkerID: workerID,
		Date:     Date(date),
		Window:   window,
	})
	if err != nil {
		return nil, fmt.Errorf("create break: %w", err)
	}
	return b, nil
}

// RemoveBreak deletes the break only if it belongs to workerID, so a
// worker-scoped route cannot reach another worker's breaks.
func (a *Admin) RemoveBreak(ctx context.Context, workerID, id uuid.UUID) error {
	if err := a.repo.DeleteBreak(ctx, workerID, id); err != nil {
		return fmt.Errorf("delete break: %w", err)
	}
	return nil
}

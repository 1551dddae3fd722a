package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/interval"
)

// Resolver combines overrides, weekly templates, and breaks into the open
// windows for a worker on a date. Stored windows are validated at write time
// (see Admin); the resolver assumes they are well formed.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// BaseFor returns the effective base availability for the worker on date:
// the date override when one exists, else the weekly template for that
// weekday, else none. An override always wins, even a closed one.
func (r *Resolver) BaseFor(ctx context.Context, workerID uuid.UUID, date time.Time) (BaseAvailability, error) {
	date = Date(date)

	override, err := r.repo.GetOverride(ctx, workerID, date)
	if err != nil && !errors.Is(err, ErrOverrideNotFound) {
		return BaseAvailability{}, fmt.Errorf("load date override: %w", err)
	}
	if override != nil {
		return BaseAvailability{
			Kind:   SourceOverride,
			Window: override.Window,
			Buffer: override.Buffer,
		}, nil
	}

	tpl, err := r.repo.GetTemplate(ctx, workerID, date.Weekday())
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return BaseAvailability{Kind: SourceNone}, nil
		}
		return BaseAvailability{}, fmt.Errorf("load weekly template: %w", err)
	}

	return BaseAvailability{
		Kind:   SourceTemplate,
		Window: tpl.Window,
		Buffer: tpl.Buffer,
	}, nil
}

// Resolve returns the open windows for the worker on date with breaks
// subtracted. Overlapping breaks are tolerated; the subtraction never emits
// a negative-width window.
func (r *Resolver) Resolve(ctx context.Context, workerID uuid.UUID, date time.Time) ([]OpenWindow, error) {
	date = Date(date)

	base, err := r.BaseFor(ctx, workerID, date)
	if err != nil {
		return nil, err
	}
	if base.Kind == SourceNone || base.Window.Empty() {
		return nil, nil
	}

	breaks, err := r.repo.ListBreaks(ctx, workerID, date)
	if err != nil {
		return nil, fmt.Errorf("load breaks: %w", err)
	}

	busy := make([]interval.Window, 0, len(breaks))
	for _, b := range breaks {
		busy = append(busy, b.Window)
	}

	remaining := interval.SubtractAll([]interval.Window{base.Window}, busy)

	open := make([]OpenWindow, 0, len(remaining))
	for _, w := range remaining {
		open = append(open, OpenWindow{Window: w, Buffer: base.Buffer})
	}
	return open, nil
}

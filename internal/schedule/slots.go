package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/interval"
)

// BusyInterval is an already-committed appointment's occupied range, before
// buffer expansion.
type BusyInterval struct {
	Start interval.TimeOfDay
	End   interval.TimeOfDay
}

// BusySource lists the busy intervals of non-cancelled appointments for a
// worker on a date. Implemented by the booking repository.
type BusySource interface {
	ListBusyIntervals(ctx context.Context, workerID uuid.UUID, date time.Time) ([]BusyInterval, error)
}

// SlotGenerator expands resolved open windows into discrete bookable start
// times. It holds no state between calls; both the listing endpoint and the
// booking validator re-derive slots from live data.
type SlotGenerator struct {
	resolver *Resolver
	busy     BusySource
	step     time.Duration
}

func NewSlotGenerator(resolver *Resolver, busy BusySource, step time.Duration) *SlotGenerator {
	if step <= 0 {
		step = DefaultGranularity
	}
	return &SlotGenerator{resolver: resolver, busy: busy, step: step}
}

// FreeSlots returns the sorted, deduplicated start times at which a service
// of the given duration can begin for the worker on date.
//
// Each existing appointment blocks [start, end+buffer): the buffer of the
// applicable base window must elapse after an appointment ends before the
// next may start.
func (g *SlotGenerator) FreeSlots(ctx context.Context, workerID uuid.UUID, date time.Time, serviceDuration time.Duration) ([]interval.TimeOfDay, error) {
	if serviceDuration <= 0 {
		return nil, fmt.Errorf("%w: non-positive service duration", interval.ErrInvalidInterval)
	}
	date = Date(date)

	open, err := g.resolver.Resolve(ctx, workerID, date)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}

	busy, err := g.busy.ListBusyIntervals(ctx, workerID, date)
	if err != nil {
		return nil, fmt.Errorf("load busy intervals: %w", err)
	}

	buffer := open[0].Buffer
	blocked := make([]interval.Window, 0, len(busy))
	for _, b := range busy {
		blocked = append(blocked, interval.Window{Start: b.Start, End: b.End.Add(buffer)})
	}

	windows := make([]interval.Window, 0, len(open))
	for _, ow := range open {
		windows = append(windows, ow.Window)
	}
	free := interval.SubtractAll(windows, blocked)

	seen := make(map[interval.TimeOfDay]struct{})
	var slots []interval.TimeOfDay
	step := interval.TimeOfDay(g.step / time.Minute)
	for _, w := range free {
		for start := w.Start; start.Add(serviceDuration) <= w.End; start += step {
			if _, dup := seen[start]; dup {
				continue
			}
			seen[start] = struct{}{}
			slots = append(slots, start)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots, nil
}

// HasSlot reports whether start is currently in the free set. Booking and
// reschedule validation go through here so listing and validation cannot
// drift apart.
func (g *SlotGenerator) HasSlot(ctx context.Context, workerID uuid.UUID, date time.Time, serviceDuration time.Duration, start interval.TimeOfDay) (bool, error) {
	slots, err := g.FreeSlots(ctx, workerID, date, serviceDuration)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s == start {
			return true, nil
		}
	}
	return false, nil
}

package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/interval"
)

// DefaultGranularity is the slot step shared by the slot generator and the
// booking validator. Both must derive start times from the same step or a
// listed slot could fail validation.
const DefaultGranularity = 5 * time.Minute

// WeeklyTemplate is a worker's recurring schedule for one weekday.
// At most one exists per (worker, weekday).
type WeeklyTemplate struct {
	ID        uuid.UUID
	WorkerID  uuid.UUID
	Weekday   time.Weekday
	Window    interval.Window
	Buffer    time.Duration
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateOverride replaces the weekly template entirely for one date.
// A zero-width window (Start == End) marks the worker as closed that day.
type DateOverride struct {
	ID        uuid.UUID
	WorkerID  uuid.UUID
	Date      time.Time
	Window    interval.Window
	Buffer    time.Duration
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Closed reports whether the override removes all availability for its date.
func (o DateOverride) Closed() bool {
	return o.Window.Empty()
}

// Break is an unavailable stretch inside whichever base window applies.
type Break struct {
	ID        uuid.UUID
	WorkerID  uuid.UUID
	Date      time.Time
	Window    interval.Window
	CreatedAt time.Time
}

// OpenWindow is a resolved bookable range carrying the buffer of the base
// window it came from.
type OpenWindow struct {
	Window interval.Window
	Buffer time.Duration
}

type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceTemplate
	SourceOverride
)

// BaseAvailability is the discriminated result of the override-vs-template
// lookup for one (worker, date).
type BaseAvailability struct {
	Kind   SourceKind
	Window interval.Window
	Buffer time.Duration
}

// Date truncates t to midnight UTC. All schedule and appointment dates are
// stored date-only; comparing them requires a single canonical form.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/interval"
	"github.com/slotwise/booking-engine/internal/schedule"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotConflict is the storage-level uniqueness or exclusion violation
	// surfaced when a concurrent booking won the race after validation
	// passed. The conflicting row never exists; callers re-fetch free slots
	// and retry.
	ErrSlotConflict = errors.New("slot taken by a concurrent booking")

	// ErrStaleStatus means a guarded status update matched no row: another
	// transition got there first.
	ErrStaleStatus = errors.New("appointment status changed concurrently")
)

// Repository contains all DB interactions for appointments and their
// history. Every status mutation writes its history row in the same
// transaction; a partial commit is never observable.
type Repository interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByWorkerDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]Appointment, error)
	ListHistory(ctx context.Context, appointmentID uuid.UUID) ([]StatusHistory, error)

	// CreateBooked inserts the appointment in status booked together with
	// its (none -> booked) history entry. Unique/exclusion violations map
	// to ErrSlotConflict.
	CreateBooked(ctx context.Context, appt Appointment) (*Appointment, error)

	// TransitionStatus performs a compare-and-set status update plus
	// history entry. A CAS miss on an existing row is ErrStaleStatus.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, changedBy uuid.UUID) (*Appointment, error)

	// RescheduleBooked moves a booked appointment to the new date/time and
	// status rescheduled, guarded on the current status, with history.
	RescheduleBooked(ctx context.Context, id uuid.UUID, newDate time.Time, newStart, newEnd interval.TimeOfDay, changedBy uuid.UUID) (*Appointment, error)

	// CompleteOverdueBatch claims up to limit overdue eligible appointments
	// with row locks scoped to the batch transaction and force-completes
	// them with the system actor. Returns how many rows were claimed and
	// how many actually completed; rows that lose their status guard are
	// left for the next scan.
	CompleteOverdueBatch(ctx context.Context, asOf time.Time, limit int) (claimed, completed int, err error)

	// ListBusyIntervals feeds the slot generator: occupied ranges of all
	// non-cancelled appointments for the worker on date.
	ListBusyIntervals(ctx context.Context, workerID uuid.UUID, date time.Time) ([]schedule.BusyInterval, error)
}

package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/identity"
	"github.com/slotwise/booking-engine/internal/interval"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusBooked      Status = "booked"
	StatusRescheduled Status = "rescheduled"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
)

// Terminal statuses admit no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// transitions is the full legality graph. Individual operations narrow it
// further (Complete only accepts booked; only the reconciler moves
// rescheduled to completed).
var transitions = map[Status][]Status{
	StatusPending:     {StatusBooked, StatusCancelled},
	StatusBooked:      {StatusRescheduled, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusRescheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// AutoCompleteEligible are the statuses the reconciler may force to
// completed once the appointment's end time has passed.
var AutoCompleteEligible = []Status{StatusBooked, StatusRescheduled}

// Appointment is a committed booking. Only status, date, and the time pair
// change after creation, and only through Service transitions.
type Appointment struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	WorkerID   uuid.UUID
	ServiceID  uuid.UUID
	Date       time.Time
	Start      interval.TimeOfDay
	End        interval.TimeOfDay
	Status     Status
	CustomerID *uuid.UUID
	GuestID    *uuid.UUID
	BookedAt   time.Time
	CreatedBy  uuid.UUID
	UpdatedAt  time.Time
}

// Parties extracts the identities the authorization rule inspects.
func (a *Appointment) Parties() identity.AppointmentParties {
	return identity.AppointmentParties{
		CustomerID: a.CustomerID,
		GuestID:    a.GuestID,
		WorkerID:   a.WorkerID,
		ProviderID: a.ProviderID,
	}
}

// EndsBefore reports whether the appointment's end lies strictly before t.
func (a *Appointment) EndsBefore(t time.Time) bool {
	return a.End.At(a.Date).Before(t)
}

// StatusHistory is an append-only transition record. OldStatus is nil for
// the creation entry. ChangedBy is uuid.Nil when the system actor made the
// change.
type StatusHistory struct {
	ID            int64
	AppointmentID uuid.UUID
	OldStatus     *Status
	NewStatus     Status
	ChangedAt     time.Time
	ChangedBy     uuid.UUID
}

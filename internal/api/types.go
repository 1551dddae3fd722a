package api

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	WorkerID   string  `json:"worker_id" validate:"required,uuid"`
	ServiceID  string  `json:"service_id" validate:"required,uuid"`
	CustomerID *string `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	GuestID    *string `json:"guest_id,omitempty" validate:"omitempty,uuid"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Start      string  `json:"start" validate:"required"`
}

type RescheduleAppointmentRequest struct {
	NewDate  string `json:"new_date" validate:"required,datetime=2006-01-02"`
	NewStart string `json:"new_start" validate:"required"`
}

type SetTemplateRequest struct {
	Weekday       int    `json:"weekday" validate:"min=0,max=6"`
	Start         string `json:"start" validate:"required"`
	End           string `json:"end" validate:"required"`
	BufferMinutes int    `json:"buffer_minutes" validate:"min=0"`
}

type SetOverrideRequest struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Start         string `json:"start" validate:"required"`
	End           string `json:"end" validate:"required"`
	BufferMinutes int    `json:"buffer_minutes" validate:"min=0"`
}

type AddBreakRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type AppointmentResponse struct {
	ID         uuid.UUID  `json:"id"`
	ProviderID uuid.UUID  `json:"provider_id"`
	WorkerID   uuid.UUID  `json:"worker_id"`
	ServiceID  uuid.UUID  `json:"service_id"`
	Date       string     `json:"date"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Status     string     `json:"status"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	GuestID    *uuid.UUID `json:"guest_id,omitempty"`
	BookedAt   time.Time  `json:"booked_at"`
}

type FreeSlotsResponse struct {
	WorkerID  uuid.UUID `json:"worker_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Date      string    `json:"date"`
	Slots     []string  `json:"slots"`
}

type HistoryEntryResponse struct {
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy uuid.UUID `json:"changed_by"`
	System    bool      `json:"system"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

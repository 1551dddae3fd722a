package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-engine/internal/catalog"
	"github.com/slotwise/booking-engine/internal/identity"
	"github.com/slotwise/booking-engine/internal/interval"
	redisclient "github.com/slotwise/booking-engine/internal/redis"
	"github.com/slotwise/booking-engine/internal/schedule"
)

var (
	// ErrSlotUnavailable: the requested start is not in the currently
	// computed free set. Distinct from ErrSlotConflict, which is the
	// storage constraint firing after validation passed.
	ErrSlotUnavailable = errors.New("requested slot is not available")

	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid for current appointment state")
	ErrForbidden         = errors.New("actor may not act on this appointment")
	ErrServiceNotOffered = errors.New("worker does not offer this service")
	ErrInvalidParty      = errors.New("exactly one of customer and guest must be set")
)

// Service is the appointment lifecycle manager. All status and time
// mutations flow through it; nothing else writes appointments or history.
type Service struct {
	repo    Repository
	slots   *schedule.SlotGenerator
	catalog catalog.Catalog
	locker  redisclient.Locker
	logger  zerolog.Logger
}

func NewService(repo Repository, slots *schedule.SlotGenerator, cat catalog.Catalog, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		slots:   slots,
		catalog: cat,
		locker:  locker,
		logger:  logger.With().Str("component", "booking").Logger(),
	}
}

// GetFreeSlots lists the start times currently bookable for the worker,
// date, and service. Recomputed from live data on every call.
func (s *Service) GetFreeSlots(ctx context.Context, workerID, serviceID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error) {
	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWorkerOffers(ctx, workerID, serviceID); err != nil {
		return nil, err
	}
	return s.slots.FreeSlots(ctx, workerID, date, svc.Duration)
}

type BookRequest struct {
	WorkerID   uuid.UUID
	ServiceID  uuid.UUID
	CustomerID *uuid.UUID
	GuestID    *uuid.UUID
	Date       time.Time
	Start      interval.TimeOfDay
}

// Book validates the slot against the live free set, then inserts
// unconditionally; the storage constraint turns a lost race into
// ErrSlotConflict with no partial write.
func (s *Service) Book(ctx context.Context, actor identity.Principal, req BookRequest) (*Appointment, error) {
	if (req.CustomerID == nil) == (req.GuestID == nil) {
		return nil, ErrInvalidParty
	}

	svc, err := s.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWorkerOffers(ctx, req.WorkerID, req.ServiceID); err != nil {
		return nil, err
	}

	appt := Appointment{
		ID:         uuid.New(),
		ProviderID: svc.ProviderID,
		WorkerID:   req.WorkerID,
		ServiceID:  req.ServiceID,
		Date:       schedule.Date(req.Date),
		Start:      req.Start,
		End:        req.Start.Add(svc.Duration),
		Status:     StatusBooked,
		CustomerID: req.CustomerID,
		GuestID:    req.GuestID,
		CreatedBy:  actor.UserID,
	}

	if !identity.CanActOn(actor, appt.Parties()) {
		return nil, ErrForbidden
	}

	var created *Appointment
	key := redisclient.SlotKey(req.WorkerID, appt.Date, req.Start)
	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		ok, err := s.slots.HasSlot(lockCtx, req.WorkerID, appt.Date, svc.Duration, req.Start)
		if err != nil {
			return fmt.Errorf("validate slot: %w", err)
		}
		if !ok {
			return ErrSlotUnavailable
		}

		created, err = s.repo.CreateBooked(lockCtx, appt)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("worker_id", req.WorkerID.String()).
		Str("start", req.Start.String()).
		Msg("appointment booked")
	return created, nil
}

// Reschedule moves a booked appointment to a new date/time on the same
// worker after re-running the free-slot validation.
func (s *Service) Reschedule(ctx context.Context, actor identity.Principal, id uuid.UUID, newDate time.Time, newStart interval.TimeOfDay) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.CanActOn(actor, appt.Parties()) {
		return nil, ErrForbidden
	}
	if appt.Status != StatusBooked {
		return nil, fmt.Errorf("%w: reschedule from %s", ErrInvalidTransition, appt.Status)
	}

	svc, err := s.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	newDate = schedule.Date(newDate)
	var updated *Appointment
	key := redisclient.SlotKey(appt.WorkerID, newDate, newStart)
	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		ok, err := s.slots.HasSlot(lockCtx, appt.WorkerID, newDate, svc.Duration, newStart)
		if err != nil {
			return fmt.Errorf("validate slot: %w", err)
		}
		if !ok {
			return ErrSlotUnavailable
		}

		updated, err = s.repo.RescheduleBooked(lockCtx, id, newDate, newStart, newStart.Add(svc.Duration), actor.UserID)
		if err != nil {
			if errors.Is(err, ErrStaleStatus) {
				return fmt.Errorf("%w: lost reschedule race", ErrInvalidTransition)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("new_start", newStart.String()).
		Msg("appointment rescheduled")
	return updated, nil
}

// Cancel is legal from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if !identity.CanActOn(actor, appt.Parties()) {
		return ErrForbidden
	}
	if !CanTransition(appt.Status, StatusCancelled) {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, appt.Status)
	}

	if _, err := s.repo.TransitionStatus(ctx, id, appt.Status, StatusCancelled, actor.UserID); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return fmt.Errorf("%w: lost cancel race", ErrInvalidTransition)
		}
		return err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	return nil
}

// Complete is legal only from booked.
func (s *Service) Complete(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if !identity.CanActOn(actor, appt.Parties()) {
		return ErrForbidden
	}
	if appt.Status != StatusBooked {
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, appt.Status)
	}

	if _, err := s.repo.TransitionStatus(ctx, id, StatusBooked, StatusCompleted, actor.UserID); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return fmt.Errorf("%w: lost complete race", ErrInvalidTransition)
		}
		return err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment completed")
	return nil
}

// MarkNoShow records that the customer never arrived. Staff or the assigned
// worker only; customers cannot no-show themselves.
func (s *Service) MarkNoShow(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if !identity.CanActOn(actor, appt.Parties()) {
		return ErrForbidden
	}
	if actor.Role == identity.RoleCustomer || actor.Role == identity.RoleGuest {
		return ErrForbidden
	}
	if !CanTransition(appt.Status, StatusNoShow) {
		return fmt.Errorf("%w: no-show from %s", ErrInvalidTransition, appt.Status)
	}

	if _, err := s.repo.TransitionStatus(ctx, id, appt.Status, StatusNoShow, actor.UserID); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return fmt.Errorf("%w: lost no-show race", ErrInvalidTransition)
		}
		return err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment marked no-show")
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, actor identity.Principal, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.CanActOn(actor, appt.Parties()) {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *Service) History(ctx context.Context, actor identity.Principal, id uuid.UUID) ([]StatusHistory, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.CanActOn(actor, appt.Parties()) {
		return nil, ErrForbidden
	}
	return s.repo.ListHistory(ctx, appt.ID)
}

func (s *Service) checkWorkerOffers(ctx context.Context, workerID, serviceID uuid.UUID) error {
	offers, err := s.catalog.WorkerOffersService(ctx, workerID, serviceID)
	if err != nil {
		return fmt.Errorf("check worker services: %w", err)
	}
	if !offers {
		return ErrServiceNotOffered
	}
	return nil
}

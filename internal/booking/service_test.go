package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-engine/internal/catalog"
	"github.com/slotwise/booking-engine/internal/identity"
	"github.com/slotwise/booking-engine/internal/interval"
	"github.com/slotwise/booking-engine/internal/schedule"
)

// ---- in-memory fakes ----

type memRepo struct {
	mu      sync.Mutex
	appts   map[uuid.UUID]*Appointment
	history []StatusHistory
	nextID  int64
	clock   time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		appts: make(map[uuid.UUID]*Appointment),
		clock: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memRepo) appendHistory(appointmentID uuid.UUID, old *Status, new_ Status, changedBy uuid.UUID) {
	m.nextID++
	m.history = append(m.history, StatusHistory{
		ID:            m.nextID,
		AppointmentID: appointmentID,
		OldStatus:     old,
		NewStatus:     new_,
		ChangedAt:     m.tick(),
		ChangedBy:     changedBy,
	})
}

func (m *memRepo) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListByWorkerDate(_ context.Context, workerID uuid.UUID, date time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.WorkerID == workerID && a.Date.Equal(schedule.Date(date)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) ListHistory(_ context.Context, appointmentID uuid.UUID) ([]StatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StatusHistory
	for _, h := range m.history {
		if h.AppointmentID == appointmentID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memRepo) CreateBooked(_ context.Context, appt Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Mirror the storage constraints: exact-start uniqueness plus the
	// interval exclusion.
	for _, other := range m.appts {
		if other.WorkerID != appt.WorkerID || !other.Date.Equal(appt.Date) || other.Status == StatusCancelled {
			continue
		}
		if other.Start == appt.Start {
			return nil, ErrSlotConflict
		}
		if appt.Start < other.End && other.Start < appt.End {
			return nil, ErrSlotConflict
		}
	}

	appt.Status = StatusBooked
	appt.BookedAt = m.tick()
	appt.UpdatedAt = appt.BookedAt
	stored := appt
	m.appts[appt.ID] = &stored
	m.appendHistory(appt.ID, nil, StatusBooked, appt.CreatedBy)

	cp := stored
	return &cp, nil
}

func (m *memRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to Status, changedBy uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != from {
		return nil, ErrStaleStatus
	}
	a.Status = to
	a.UpdatedAt = m.tick()
	m.appendHistory(id, &from, to, changedBy)
	cp := *a
	return &cp, nil
}

func (m *memRepo) RescheduleBooked(_ context.Context, id uuid.UUID, newDate time.Time, newStart, newEnd interval.TimeOfDay, changedBy uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusBooked {
		return nil, ErrStaleStatus
	}
	from := a.Status
	a.Status = StatusRescheduled
	a.Date = schedule.Date(newDate)
	a.Start = newStart
	a.End = newEnd
	a.UpdatedAt = m.tick()
	m.appendHistory(id, &from, StatusRescheduled, changedBy)
	cp := *a
	return &cp, nil
}

func (m *memRepo) CompleteOverdueBatch(_ context.Context, asOf time.Time, limit int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var claims []*Appointment
	for _, a := range m.appts {
		if len(claims) == limit {
			break
		}
		eligible := false
		for _, s := range AutoCompleteEligible {
			if a.Status == s {
				eligible = true
			}
		}
		if eligible && a.EndsBefore(asOf) {
			claims = append(claims, a)
		}
	}

	completed := 0
	for _, a := range claims {
		from := a.Status
		a.Status = StatusCompleted
		a.UpdatedAt = m.tick()
		m.appendHistory(a.ID, &from, StatusCompleted, uuid.Nil)
		completed++
	}
	return len(claims), completed, nil
}

func (m *memRepo) ListBusyIntervals(_ context.Context, workerID uuid.UUID, date time.Time) ([]schedule.BusyInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.BusyInterval
	for _, a := range m.appts {
		if a.WorkerID == workerID && a.Date.Equal(schedule.Date(date)) && a.Status != StatusCancelled {
			out = append(out, schedule.BusyInterval{Start: a.Start, End: a.End})
		}
	}
	return out, nil
}

type memScheduleRepo struct {
	templates map[time.Weekday]schedule.WeeklyTemplate
	overrides map[string]schedule.DateOverride
	breaks    []schedule.Break
}

func (m *memScheduleRepo) GetOverride(_ context.Context, _ uuid.UUID, date time.Time) (*schedule.DateOverride, error) {
	o, ok := m.overrides[schedule.Date(date).Format("2006-01-02")]
	if !ok {
		return nil, schedule.ErrOverrideNotFound
	}
	return &o, nil
}

func (m *memScheduleRepo) GetTemplate(_ context.Context, _ uuid.UUID, weekday time.Weekday) (*schedule.WeeklyTemplate, error) {
	t, ok := m.templates[weekday]
	if !ok {
		return nil, schedule.ErrTemplateNotFound
	}
	return &t, nil
}

func (m *memScheduleRepo) ListBreaks(_ context.Context, _ uuid.UUID, date time.Time) ([]schedule.Break, error) {
	var out []schedule.Break
	for _, b := range m.breaks {
		if b.Date.Equal(schedule.Date(date)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memScheduleRepo) UpsertTemplate(_ context.Context, tpl schedule.WeeklyTemplate) (*schedule.WeeklyTemplate, error) {
	m.templates[tpl.Weekday] = tpl
	return &tpl, nil
}

func (m *memScheduleRepo) UpsertOverride(_ context.Context, o schedule.DateOverride) (*schedule.DateOverride, error) {
	m.overrides[schedule.Date(o.Date).Format("2006-01-02")] = o
	return &o, nil
}

func (m *memScheduleRepo) DeleteOverride(_ context.Context, _ uuid.UUID, date time.Time) error {
	delete(m.overrides, schedule.Date(date).Format("2006-01-02"))
	return nil
}

func (m *memScheduleRepo) CreateBreak(_ context.Context, b schedule.Break) (*schedule.Break, error) {
	m.breaks = append(m.breaks, b)
	return &b, nil
}

func (m *memScheduleRepo) DeleteBreak(_ context.Context, _, _ uuid.UUID) error { return nil }

type memCatalog struct {
	services  map[uuid.UUID]catalog.Service
	offers    map[uuid.UUID]map[uuid.UUID]bool // workerID -> serviceID
	providers map[uuid.UUID]uuid.UUID          // workerID -> providerID
}

func (m *memCatalog) GetService(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &s, nil
}

func (m *memCatalog) WorkerOffersService(_ context.Context, workerID, serviceID uuid.UUID) (bool, error) {
	return m.offers[workerID][serviceID], nil
}

func (m *memCatalog) GetWorkerProvider(_ context.Context, workerID uuid.UUID) (uuid.UUID, error) {
	p, ok := m.providers[workerID]
	if !ok {
		return uuid.Nil, catalog.ErrWorkerNotFound
	}
	return p, nil
}

type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---- fixture ----

type fixture struct {
	svc        *Service
	repo       *memRepo
	workerID   uuid.UUID
	serviceID  uuid.UUID
	providerID uuid.UUID
}

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func tod(t *testing.T, s string) interval.TimeOfDay {
	t.Helper()
	v, err := interval.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

// newFixture wires a worker with a Monday 09:00-17:00 template (10m buffer)
// offering a 30 minute service.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	workerID := uuid.New()
	serviceID := uuid.New()
	providerID := uuid.New()

	schedRepo := &memScheduleRepo{
		templates: map[time.Weekday]schedule.WeeklyTemplate{
			time.Monday: {
				ID:       uuid.New(),
				WorkerID: workerID,
				Weekday:  time.Monday,
				Window:   interval.Window{Start: tod(t, "09:00"), End: tod(t, "17:00")},
				Buffer:   10 * time.Minute,
			},
		},
		overrides: make(map[string]schedule.DateOverride),
	}

	repo := newMemRepo()
	resolver := schedule.NewResolver(schedRepo)
	gen := schedule.NewSlotGenerator(resolver, repo, 5*time.Minute)

	cat := &memCatalog{
		services: map[uuid.UUID]catalog.Service{
			serviceID: {ID: serviceID, ProviderID: providerID, Name: "Consultation", Duration: 30 * time.Minute},
		},
		offers: map[uuid.UUID]map[uuid.UUID]bool{
			workerID: {serviceID: true},
		},
		providers: map[uuid.UUID]uuid.UUID{
			workerID: providerID,
		},
	}

	svc := NewService(repo, gen, cat, noopLocker{}, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, workerID: workerID, serviceID: serviceID, providerID: providerID}
}

func (f *fixture) customer() (identity.Principal, *uuid.UUID) {
	id := uuid.New()
	return identity.Principal{UserID: id, Role: identity.RoleCustomer}, &id
}

func (f *fixture) book(t *testing.T, start string) (*Appointment, identity.Principal) {
	t.Helper()
	actor, customerID := f.customer()
	appt, err := f.svc.Book(context.Background(), actor, BookRequest{
		WorkerID:   f.workerID,
		ServiceID:  f.serviceID,
		CustomerID: customerID,
		Date:       monday,
		Start:      tod(t, start),
	})
	if err != nil {
		t.Fatalf("book %s: %v", start, err)
	}
	return appt, actor
}

// ---- tests ----

func TestBookHappyPath(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.book(t, "09:00")

	if appt.Status != StatusBooked {
		t.Fatalf("expected booked, got %s", appt.Status)
	}
	if appt.End != tod(t, "09:30") {
		t.Fatalf("expected end 09:30, got %s", appt.End)
	}
	if appt.ProviderID != f.providerID {
		t.Fatal("provider not taken from the service catalog")
	}

	hist, err := f.svc.History(context.Background(), identity.System, appt.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 || hist[0].OldStatus != nil || hist[0].NewStatus != StatusBooked {
		t.Fatalf("expected single none->booked entry, got %+v", hist)
	}
}

// A 09:00 booking with 10m buffer blocks 09:10 but not 09:40.
func TestBookBufferedCollision(t *testing.T) {
	f := newFixture(t)
	f.book(t, "09:00")

	actor, customerID := f.customer()
	_, err := f.svc.Book(context.Background(), actor, BookRequest{
		WorkerID:   f.workerID,
		ServiceID:  f.serviceID,
		CustomerID: customerID,
		Date:       monday,
		Start:      tod(t, "09:10"),
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable for 09:10, got %v", err)
	}

	if _, err := f.svc.Book(context.Background(), actor, BookRequest{
		WorkerID:   f.workerID,
		ServiceID:  f.serviceID,
		CustomerID: customerID,
		Date:       monday,
		Start:      tod(t, "09:40"),
	}); err != nil {
		t.Fatalf("expected 09:40 to be bookable, got %v", err)
	}
}

func TestBookSlotConflictAtCommit(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.book(t, "10:00")

	// Simulate the race: validation has already passed elsewhere and the
	// insert hits the constraint directly.
	dup := *appt
	dup.ID = uuid.New()
	if _, err := f.repo.CreateBooked(context.Background(), dup); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	// The overlapping-interval constraint fires for different starts too.
	overlap := *appt
	overlap.ID = uuid.New()
	overlap.Start = tod(t, "10:15")
	overlap.End = tod(t, "10:45")
	if _, err := f.repo.CreateBooked(context.Background(), overlap); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict for overlap, got %v", err)
	}
}

func TestConcurrentBookingExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	start := tod(t, "11:00")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor, customerID := f.customer()
			_, err := f.svc.Book(context.Background(), actor, BookRequest{
				WorkerID:   f.workerID,
				ServiceID:  f.serviceID,
				CustomerID: customerID,
				Date:       monday,
				Start:      start,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotConflict), errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrSlotBeingBooked):
		default:
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	actor, customerID := f.customer()
	ctx := context.Background()

	guestID := uuid.New()
	if _, err := f.svc.Book(ctx, actor, BookRequest{
		WorkerID: f.workerID, ServiceID: f.serviceID,
		CustomerID: customerID, GuestID: &guestID,
		Date: monday, Start: tod(t, "09:00"),
	}); !errors.Is(err, ErrInvalidParty) {
		t.Fatalf("expected ErrInvalidParty with both parties, got %v", err)
	}

	if _, err := f.svc.Book(ctx, actor, BookRequest{
		WorkerID: f.workerID, ServiceID: uuid.New(),
		CustomerID: customerID, Date: monday, Start: tod(t, "09:00"),
	}); !errors.Is(err, catalog.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}

	if _, err := f.svc.Book(ctx, actor, BookRequest{
		WorkerID: uuid.New(), ServiceID: f.serviceID,
		CustomerID: customerID, Date: monday, Start: tod(t, "09:00"),
	}); !errors.Is(err, ErrServiceNotOffered) {
		t.Fatalf("expected ErrServiceNotOffered, got %v", err)
	}

	// Tuesday has no template: nothing bookable.
	if _, err := f.svc.Book(ctx, actor, BookRequest{
		WorkerID: f.workerID, ServiceID: f.serviceID,
		CustomerID: customerID, Date: monday.AddDate(0, 0, 1), Start: tod(t, "09:00"),
	}); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable off-template, got %v", err)
	}

	// A stranger booking on someone else's behalf is forbidden.
	stranger := identity.Principal{UserID: uuid.New(), Role: identity.RoleCustomer}
	if _, err := f.svc.Book(ctx, stranger, BookRequest{
		WorkerID: f.workerID, ServiceID: f.serviceID,
		CustomerID: customerID, Date: monday, Start: tod(t, "09:00"),
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRescheduleOnlyFromBooked(t *testing.T) {
	f := newFixture(t)
	appt, actor := f.book(t, "09:00")
	ctx := context.Background()

	moved, err := f.svc.Reschedule(ctx, actor, appt.ID, monday, tod(t, "14:00"))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Status != StatusRescheduled || moved.Start != tod(t, "14:00") || moved.End != tod(t, "14:30") {
		t.Fatalf("unexpected rescheduled appointment: %+v", moved)
	}

	// Second reschedule: state is no longer booked.
	if _, err := f.svc.Reschedule(ctx, actor, appt.ID, monday, tod(t, "15:00")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	hist, _ := f.svc.History(ctx, identity.System, appt.ID)
	if len(hist) != 2 || hist[1].NewStatus != StatusRescheduled {
		t.Fatalf("expected booked->rescheduled history, got %+v", hist)
	}
}

func TestRescheduleToTakenSlot(t *testing.T) {
	f := newFixture(t)
	f.book(t, "10:00")
	appt, actor := f.book(t, "12:00")

	if _, err := f.svc.Reschedule(context.Background(), actor, appt.ID, monday, tod(t, "10:10")); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, actor := f.book(t, "09:00")
	if err := f.svc.Cancel(ctx, actor, appt.ID); err != nil {
		t.Fatalf("cancel booked: %v", err)
	}

	// Cancel after completion is forbidden.
	appt2, actor2 := f.book(t, "10:00")
	if err := f.svc.Complete(ctx, actor2, appt2.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.svc.Cancel(ctx, actor2, appt2.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling completed, got %v", err)
	}

	// Cancel from rescheduled is allowed.
	appt3, actor3 := f.book(t, "11:00")
	if _, err := f.svc.Reschedule(ctx, actor3, appt3.ID, monday, tod(t, "15:00")); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if err := f.svc.Cancel(ctx, actor3, appt3.ID); err != nil {
		t.Fatalf("cancel rescheduled: %v", err)
	}
}

func TestCompleteOnlyFromBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, actor := f.book(t, "09:00")
	if err := f.svc.Cancel(ctx, actor, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.svc.Complete(ctx, actor, appt.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition completing cancelled, got %v", err)
	}
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, customerActor := f.book(t, "09:00")

	// The customer cannot no-show themselves.
	if err := f.svc.MarkNoShow(ctx, customerActor, appt.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer, got %v", err)
	}

	worker := identity.Principal{UserID: f.workerID, Role: identity.RoleWorker}
	if err := f.svc.MarkNoShow(ctx, worker, appt.ID); err != nil {
		t.Fatalf("worker no-show: %v", err)
	}

	got, err := f.svc.GetAppointment(ctx, identity.System, appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusNoShow {
		t.Fatalf("expected no_show, got %s", got.Status)
	}
}

func TestAuthorizationRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt, _ := f.book(t, "09:00")

	cases := []struct {
		name    string
		actor   identity.Principal
		allowed bool
	}{
		{"assigned worker", identity.Principal{UserID: f.workerID, Role: identity.RoleWorker}, true},
		{"other worker", identity.Principal{UserID: uuid.New(), Role: identity.RoleWorker}, false},
		{"provider owner", identity.Principal{UserID: uuid.New(), ProviderID: f.providerID, Role: identity.RoleOwner}, true},
		{"provider receptionist", identity.Principal{UserID: uuid.New(), ProviderID: f.providerID, Role: identity.RoleReceptionist}, true},
		{"staff of another provider", identity.Principal{UserID: uuid.New(), ProviderID: uuid.New(), Role: identity.RoleAdmin}, false},
		{"random customer", identity.Principal{UserID: uuid.New(), Role: identity.RoleCustomer}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.GetAppointment(ctx, tc.actor, appt.ID)
			if tc.allowed && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestHistoryChronology(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, actor := f.book(t, "09:00")
	if _, err := f.svc.Reschedule(ctx, actor, appt.ID, monday, tod(t, "13:00")); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if err := f.svc.Cancel(ctx, actor, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	hist, err := f.svc.History(ctx, identity.System, appt.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(hist))
	}

	for i := 1; i < len(hist); i++ {
		if !hist[i-1].ChangedAt.Before(hist[i].ChangedAt) {
			t.Fatalf("history out of order at %d", i)
		}
		if hist[i].OldStatus == nil || *hist[i].OldStatus != hist[i-1].NewStatus {
			t.Fatalf("history chain broken at %d", i)
		}
		if !CanTransition(*hist[i].OldStatus, hist[i].NewStatus) {
			t.Fatalf("illegal transition recorded: %s -> %s", *hist[i].OldStatus, hist[i].NewStatus)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	all := []Status{StatusPending, StatusBooked, StatusRescheduled, StatusCompleted, StatusCancelled, StatusNoShow}

	for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Fatalf("terminal %s must not transition to %s", terminal, to)
			}
		}
	}

	if !CanTransition(StatusBooked, StatusCancelled) || !CanTransition(StatusRescheduled, StatusCancelled) || !CanTransition(StatusPending, StatusCancelled) {
		t.Fatal("cancel must be legal from every non-terminal state")
	}
	if CanTransition(StatusRescheduled, StatusRescheduled) {
		t.Fatal("rescheduled must not reschedule again")
	}
	if !CanTransition(StatusBooked, StatusCompleted) || !CanTransition(StatusRescheduled, StatusCompleted) {
		t.Fatal("auto-complete eligible states must reach completed")
	}
}

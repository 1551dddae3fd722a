package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/booking-engine/internal/interval"
	"github.com/slotwise/booking-engine/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, provider_id, worker_id, service_id, date, start_minute, end_minute,
	status, customer_id, guest_id, booked_at, created_by, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var startMin, endMin int

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.WorkerID,
		&a.ServiceID,
		&a.Date,
		&startMin,
		&endMin,
		&a.Status,
		&a.CustomerID,
		&a.GuestID,
		&a.BookedAt,
		&a.CreatedBy,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Start = interval.TimeOfDay(startMin)
	a.End = interval.TimeOfDay(endMin)
	a.Date = schedule.Date(a.Date)
	return &a, nil
}

// isConflict reports whether err is a unique (23505) or exclusion (23P01)
// constraint violation. Both constraints guard the same invariant at
// different strengths: exact-start uniqueness and interval overlap.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "23P01"
}

func insertHistory(ctx context.Context, tx pgx.Tx, appointmentID uuid.UUID, oldStatus *Status, newStatus Status, changedBy uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO appointment_status_history (appointment_id, old_status, new_status, changed_at, changed_by)
		VALUES ($1, $2, $3, now(), $4)
	`, appointmentID, oldStatus, newStatus, changedBy)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// Interface methods

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByWorkerDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE worker_id = $1 AND date = $2
		ORDER BY start_minute
	`, workerID, schedule.Date(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListHistory(ctx context.Context, appointmentID uuid.UUID) ([]StatusHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, old_status, new_status, changed_at, changed_by
		FROM appointment_status_history
		WHERE appointment_id = $1
		ORDER BY changed_at, id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.AppointmentID, &h.OldStatus, &h.NewStatus, &h.ChangedAt, &h.ChangedBy); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateBooked(ctx context.Context, appt Appointment) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, provider_id, worker_id, service_id, date, start_minute, end_minute,
			 status, customer_id, guest_id, booked_at, created_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), $11, now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.ProviderID, appt.WorkerID, appt.ServiceID, schedule.Date(appt.Date),
		int(appt.Start), int(appt.End), StatusBooked, appt.CustomerID, appt.GuestID, appt.CreatedBy)

	created, err := scanAppointment(row)
	if err != nil {
		if isConflict(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := insertHistory(ctx, tx, created.ID, nil, StatusBooked, appt.CreatedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isConflict(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return created, nil
}

func (r *PgRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, changedBy uuid.UUID) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	updated, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, r.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	oldStatus := from
	if err := insertHistory(ctx, tx, id, &oldStatus, to, changedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return updated, nil
}

func (r *PgRepository) RescheduleBooked(ctx context.Context, id uuid.UUID, newDate time.Time, newStart, newEnd interval.TimeOfDay, changedBy uuid.UUID) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    date = $3,
		    start_minute = $4,
		    end_minute = $5,
		    updated_at = now()
		WHERE id = $1
		  AND status = $6
		RETURNING `+appointmentColumns+`
	`, id, StatusRescheduled, schedule.Date(newDate), int(newStart), int(newEnd), StatusBooked)

	updated, err := scanAppointment(row)
	if err != nil {
		if isConflict(err) {
			return nil, ErrSlotConflict
		}
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, r.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("update reschedule: %w", err)
	}

	oldStatus := StatusBooked
	if err := insertHistory(ctx, tx, id, &oldStatus, StatusRescheduled, changedBy); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isConflict(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("commit reschedule: %w", err)
	}
	return updated, nil
}

// classifyMiss distinguishes a vanished row from a lost status race after a
// guarded update matched nothing.
func (r *PgRepository) classifyMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("classify update miss: %w", err)
	}
	if exists {
		return ErrStaleStatus
	}
	return ErrAppointmentNotFound
}

func (r *PgRepository) CompleteOverdueBatch(ctx context.Context, asOf time.Time, limit int) (int, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SKIP LOCKED keeps concurrent reconciler replicas off each other's
	// rows; the locks live until commit. The end expression is zone-naive,
	// so the cutoff is compared at UTC regardless of the server TimeZone.
	rows, err := tx.Query(ctx, `
		SELECT id, status
		FROM appointments
		WHERE status = ANY($1)
		  AND (date + make_interval(mins => end_minute)) < ($2 AT TIME ZONE 'UTC')
		ORDER BY date, end_minute
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`, statusStrings(AutoCompleteEligible), asOf.UTC(), limit)
	if err != nil {
		return 0, 0, fmt.Errorf("claim overdue: %w", err)
	}

	type claimRow struct {
		id     uuid.UUID
		status Status
	}
	var claims []claimRow
	for rows.Next() {
		var c claimRow
		if err := rows.Scan(&c.id, &c.status); err != nil {
			rows.Close()
			return 0, 0, err
		}
		claims = append(claims, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	completed := 0
	for _, c := range claims {
		tag, err := tx.Exec(ctx, `
			UPDATE appointments
			SET status = $2, updated_at = now()
			WHERE id = $1 AND status = $3
		`, c.id, StatusCompleted, c.status)
		if err != nil {
			return 0, 0, fmt.Errorf("complete overdue %s: %w", c.id, err)
		}
		if tag.RowsAffected() == 0 {
			// Lost the guard despite the row lock; leave for next scan.
			continue
		}
		oldStatus := c.status
		if err := insertHistory(ctx, tx, c.id, &oldStatus, StatusCompleted, uuid.Nil); err != nil {
			return 0, 0, err
		}
		completed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit overdue batch: %w", err)
	}
	return len(claims), completed, nil
}

func (r *PgRepository) ListBusyIntervals(ctx context.Context, workerID uuid.UUID, date time.Time) ([]schedule.BusyInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_minute, end_minute
		FROM appointments
		WHERE worker_id = $1
		  AND date = $2
		  AND status <> $3
		ORDER BY start_minute
	`, workerID, schedule.Date(date), StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.BusyInterval
	for rows.Next() {
		var startMin, endMin int
		if err := rows.Scan(&startMin, &endMin); err != nil {
			return nil, err
		}
		result = append(result, schedule.BusyInterval{
			Start: interval.TimeOfDay(startMin),
			End:   interval.TimeOfDay(endMin),
		})
	}
	return result, rows.Err()
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

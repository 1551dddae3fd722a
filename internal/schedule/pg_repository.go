package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/booking-engine/internal/interval"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanTemplate(row pgx.Row) (*WeeklyTemplate, error) {
	var t WeeklyTemplate
	var weekday, startMin, endMin, bufferMin int

	err := row.Scan(
		&t.ID,
		&t.WorkerID,
		&weekday,
		&startMin,
		&endMin,
		&bufferMin,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	t.Weekday = time.Weekday(weekday)
	t.Window = interval.Window{Start: interval.TimeOfDay(startMin), End: interval.TimeOfDay(endMin)}
	t.Buffer = time.Duration(bufferMin) * time.Minute
	return &t, nil
}

func scanOverride(row pgx.Row) (*DateOverride, error) {
	var o DateOverride
	var startMin, endMin, bufferMin int

	err := row.Scan(
		&o.ID,
		&o.WorkerID,
		&o.Date,
		&startMin,
		&endMin,
		&bufferMin,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}

	o.Date = Date(o.Date)
	o.Window = interval.Window{Start: interval.TimeOfDay(startMin), End: interval.TimeOfDay(endMin)}
	o.Buffer = time.Duration(bufferMin) * time.Minute
	return &o, nil
}

// Interface methods

func (r *PgRepository) GetOverride(ctx context.Context, workerID uuid.UUID, date time.Time) (*DateOverride, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, worker_id, date, start_minute, end_minute, buffer_minutes, created_at, updated_at
		FROM date_overrides
		WHERE worker_id = $1 AND date = $2
	`, workerID, Date(date))
	return scanOverride(row)
}

func (r *PgRepository) GetTemplate(ctx context.Context, workerID uuid.UUID, weekday time.Weekday) (*WeeklyTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, worker_id, weekday, start_minute, end_minute, buffer_minutes, created_at, updated_at
		FROM weekly_templates
		WHERE worker_id = $1 AND weekday = $2
	`, workerID, int(weekday))
	return scanTemplate(row)
}

func (r *PgRepository) ListBreaks(ctx context.Context, workerID uuid.UUID, date time.Time) ([]Break, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, worker_id, date, start_minute, end_minute, created_at
		FROM breaks
		WHERE worker_id = $1 AND date = $2
		ORDER BY start_minute
	`, workerID, Date(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Break
	for rows.Next() {
		var b Break
		var startMin, endMin int
		if err := rows.Scan(&b.ID, &b.WorkerID, &b.Date, &startMin, &endMin, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Date = Date(b.Date)
		b.Window = interval.Window{Start: interval.TimeOfDay(startMin), End: interval.TimeOfDay(endMin)}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpsertTemplate(ctx context.Context, tpl WeeklyTemplate) (*WeeklyTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO weekly_templates (id, worker_id, weekday, start_minute, end_minute, buffer_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (worker_id, weekday) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
		    end_minute = EXCLUDED.end_minute,
		    buffer_minutes = EXCLUDED.buffer_minutes,
		    updated_at = now()
		RETURNING id, worker_id, weekday, start_minute, end_minute, buffer_minutes, created_at, updated_at
	`, tpl.ID, tpl.WorkerID, int(tpl.Weekday), int(tpl.Window.Start), int(tpl.Window.End), int(tpl.Buffer/time.Minute))
	return scanTemplate(row)
}

func (r *PgRepository) UpsertOverride(ctx context.Context, o DateOverride) (*DateOverride, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO date_overrides (id, worker_id, date, start_minute, end_minute, buffer_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (worker_id, date) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
		    end_minute = EXCLUDED.end_minute,
		    buffer_minutes = EXCLUDED.buffer_minutes,
		    updated_at = now()
		RETURNING id, worker_id, date, start_minute, end_minute, buffer_minutes, created_at, updated_at
	`, o.ID, o.WorkerID, Date(o.Date), int(o.Window.Start), int(o.Window.End), int(o.Buffer/time.Minute))
	return scanOverride(row)
}

func (r *PgRepository) DeleteOverride(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM date_overrides
		WHERE worker_id = $1 AND date = $2
	`, workerID, Date(date))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

func (r *PgRepository) CreateBreak(ctx context.Context, b Break) (*Break, error) {
	var startMin, endMin int
	created := b
	err := r.pool.QueryRow(ctx, `
		INSERT INTO breaks (id, worker_id, date, start_minute, end_minute, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING start_minute, end_minute, created_at
	`, b.ID, b.WorkerID, Date(b.Date), int(b.Window.Start), int(b.Window.End)).Scan(&startMin, &endMin, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	created.Window = interval.Window{Start: interval.TimeOfDay(startMin), End: interval.TimeOfDay(endMin)}
	return &created, nil
}

func (r *PgRepository) DeleteBreak(ctx context.Context, workerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM breaks
		WHERE id = $1 AND worker_id = $2
	`, id, workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBreakNotFound
	}
	return nil
}

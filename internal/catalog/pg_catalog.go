package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgCatalog struct {
	pool *pgxpool.Pool
}

func NewPgCatalog(pool *pgxpool.Pool) *PgCatalog {
	return &PgCatalog{pool: pool}
}

func (c *PgCatalog) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service
	var durationMin int

	err := c.pool.QueryRow(ctx, `
		SELECT id, provider_id, name, duration_minutes, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.ProviderID, &s.Name, &durationMin, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	s.Duration = time.Duration(durationMin) * time.Minute
	return &s, nil
}

func (c *PgCatalog) GetWorkerProvider(ctx context.Context, workerID uuid.UUID) (uuid.UUID, error) {
	var providerID uuid.UUID
	err := c.pool.QueryRow(ctx, `
		SELECT provider_id
		FROM workers
		WHERE id = $1
	`, workerID).Scan(&providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrWorkerNotFound
		}
		return uuid.Nil, err
	}
	return providerID, nil
}

func (c *PgCatalog) WorkerOffersService(ctx context.Context, workerID, serviceID uuid.UUID) (bool, error) {
	var offers bool
	err := c.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM worker_services
			WHERE worker_id = $1 AND service_id = $2
		)
	`, workerID, serviceID).Scan(&offers)
	if err != nil {
		return false, err
	}
	return offers, nil
}

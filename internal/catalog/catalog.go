package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrWorkerNotFound  = errors.New("worker not found")
)

// Service is a bookable offering. Duration drives appointment end times.
type Service struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Name       string
	Duration   time.Duration
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Catalog resolves services, the workers allowed to perform them, and
// which provider a worker belongs to.
type Catalog interface {
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	WorkerOffersService(ctx context.Context, workerID, serviceID uuid.UUID) (bool, error)

	// GetWorkerProvider returns the provider that owns the worker.
	// Tenancy checks on worker-scoped writes go through here.
	GetWorkerProvider(ctx context.Context, workerID uuid.UUID) (uuid.UUID, error)
}

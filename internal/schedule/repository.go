package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("weekly template not found")
	ErrOverrideNotFound = errors.New("date override not found")
	ErrBreakNotFound    = errors.New("break not found")
)

// Repository contains all DB interactions for schedule data.
type Repository interface {
	GetOverride(ctx context.Context, workerID uuid.UUID, date time.Time) (*DateOverride, error)
	GetTemplate(ctx context.Context, workerID uuid.UUID, weekday time.Weekday) (*WeeklyTemplate, error)
	ListBreaks(ctx context.Context, workerID uuid.UUID, date time.Time) ([]Break, error)

	// Schedule administration
	UpsertTemplate(ctx context.Context, tpl WeeklyTemplate) (*WeeklyTemplate, error)
	UpsertOverride(ctx context.Context, o DateOverride) (*DateOverride, error)
	DeleteOverride(ctx context.Context, workerID uuid.UUID, date time.Time) error
	CreateBreak(ctx context.Context, b Break) (*Break, error)
	DeleteBreak(ctx context.Context, workerID, id uuid.UUID) error
}

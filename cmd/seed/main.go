package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-engine/internal/db"
	"github.com/slotwise/booking-engine/internal/interval"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().
	Timestamp().Str("service", "seed").Logger()

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	seedCtx := context.Background()
	if err := seedProviders(seedCtx, pool, 20, 5); err != nil {
		logger.Fatal().Err(err).Msg("seed providers")
	}
	if err := seedCustomers(seedCtx, pool, 2000); err != nil {
		logger.Fatal().Err(err).Msg("seed customers")
	}

	logger.Info().Msg("seed complete")
}

// seedProviders creates providers, each with workers, services, and weekly
// templates so slots are listable right after seeding.
func seedProviders(ctx context.Context, pool *pgxpool.Pool, providerCount, workersPer int) error {
	logger.Info().Int("providers", providerCount).Int("workers_each", workersPer).Msg("seeding providers")

	serviceNames := []string{
		"Consultation",
		"Haircut",
		"Massage",
		"Dental Cleaning",
		"Physiotherapy",
		"Eye Exam",
		"Manicure",
		"Tattoo Session",
	}
	durations := []int{15, 30, 45, 60, 90}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < providerCount; i++ {
		providerID := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, providerID, gofakeit.Company())
		if err != nil {
			return err
		}

		serviceIDs := make([]uuid.UUID, 0, 3)
		for s := 0; s < 3; s++ {
			serviceID := uuid.New()
			serviceIDs = append(serviceIDs, serviceID)
			_, err := tx.Exec(ctx, `
				INSERT INTO services (id, provider_id, name, duration_minutes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, serviceID, providerID,
				serviceNames[gofakeit.Number(0, len(serviceNames)-1)],
				durations[gofakeit.Number(0, len(durations)-1)])
			if err != nil {
				return err
			}
		}

		for w := 0; w < workersPer; w++ {
			workerID := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO workers (id, provider_id, name, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, workerID, providerID, gofakeit.Name())
			if err != nil {
				return err
			}

			for _, serviceID := range serviceIDs {
				_, err := tx.Exec(ctx, `
					INSERT INTO worker_services (worker_id, service_id)
					VALUES ($1, $2)
				`, workerID, serviceID)
				if err != nil {
					return err
				}
			}

			// Monday through Friday, nine to five, with a modest buffer.
			start, _ := interval.ParseTimeOfDay("09:00")
			end, _ := interval.ParseTimeOfDay("17:00")
			for weekday := 1; weekday <= 5; weekday++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO weekly_templates (id, worker_id, weekday, start_minute, end_minute, buffer_minutes, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, now(), now())
				`, uuid.New(), workerID, weekday, int(start), int(end), gofakeit.Number(0, 3)*5)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Msg("providers seeded")
	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	logger.Info().Int("count", count).Msg("seeding customers")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO customers (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info().Int("done", end).Int("total", count).Msg("customers seeded")
	}

	return nil
}

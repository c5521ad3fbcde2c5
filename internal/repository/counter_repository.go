package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository stores named sequence values as config rows.
type CounterRepository interface {
	// Get returns the stored value for key; ok is false when no row exists.
	Get(ctx context.Context, key string) (value int, ok bool, err error)
	Upsert(ctx context.Context, key string, value int) error
}

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository instantiates the repository.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

func (r *counterRepository) Get(ctx context.Context, key string) (int, bool, error) {
	var value int
	err := r.pool.QueryRow(ctx, `SELECT value FROM queue_counters WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value, true, nil
}

func (r *counterRepository) Upsert(ctx context.Context, key string, value int) error {
	const query = `
        INSERT INTO queue_counters (key, value) VALUES ($1,$2)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value`
	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}

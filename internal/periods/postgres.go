package periods

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antoniostano/cadence/internal/cycle"
)

// PostgresSource reads history from the record store's periods table:
//
//	periods (id TEXT, user_id TEXT, start_date DATE, end_date DATE NULL)
//
// The table belongs to the record store; this source never writes it.
type PostgresSource struct {
	pool *pgxpool.Pool
}

const (
	connectBackoffBase = 250 * time.Millisecond
	connectBackoffCap  = 4 * time.Second
)

func NewPostgresSource(ctx context.Context, databaseURL string, attempts int) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pingWithBackoff(ctx, pool, attempts); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresSource{pool: pool}, nil
}

func pingWithBackoff(ctx context.Context, pool *pgxpool.Pool, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = pool.Ping(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		wait := backoff(i, connectBackoffBase, connectBackoffCap)
		log.Printf("postgres ping failed (attempt %d/%d), retrying in %s: %v", i+1, attempts, wait, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("ping postgres after %d attempts: %w", attempts, err)
}

// backoff computes a deterministic capped exponential delay.
func backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}

func (s *PostgresSource) Snapshot(ctx context.Context, userID string) ([]cycle.Interval, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, start_date, end_date
		 FROM periods WHERE user_id=$1 ORDER BY start_date`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	var out []cycle.Interval
	for rows.Next() {
		var (
			id    string
			start time.Time
			end   *time.Time
		)
		if err := rows.Scan(&id, &start, &end); err != nil {
			return nil, fmt.Errorf("scan period row: %w", err)
		}
		iv := cycle.Interval{ID: id, Start: cycle.DateOf(start)}
		if end != nil {
			iv.End = cycle.DateOf(*end)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period rows: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrUnknownUser
	}
	return out, nil
}

func (s *PostgresSource) Mode() string { return "postgres" }

func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

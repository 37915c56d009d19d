package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx query methods the store needs. Both
// pgx.Tx and *pgxpool.Pool satisfy it; in production the store must be
// handed the transaction that also inserts the ticket, so that no number
// is issued without a ticket.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps one counter row per tenant in sequence_counters and
// advances it under SELECT ... FOR UPDATE.
type PostgresStore struct {
	q Querier
}

// NewPostgresStore binds a store to a querier, usually the enclosing
// ticket-creation transaction.
func NewPostgresStore(q Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

// NextValue locks the tenant's counter row, resets it when the stored
// year differs from the requested one, increments, and writes back. The
// lock is held until the surrounding transaction ends.
func (s *PostgresStore) NextValue(ctx context.Context, tenantID string, year int) (int64, error) {
	storedYear, value, err := s.lockCounter(ctx, tenantID, year)
	if err != nil {
		return 0, err
	}

	if storedYear != year {
		storedYear = year
		value = 0
	}
	value++

	const update = `
        UPDATE sequence_counters SET current_year=$2, current_value=$3, updated_at=NOW()
        WHERE tenant_id=$1`
	if _, err := s.q.Exec(ctx, update, tenantID, storedYear, value); err != nil {
		return 0, fmt.Errorf("advance counter: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) lockCounter(ctx context.Context, tenantID string, year int) (int, int64, error) {
	const lock = `
        SELECT current_year, current_value FROM sequence_counters
        WHERE tenant_id=$1 FOR UPDATE`

	var storedYear int
	var value int64
	err := s.q.QueryRow(ctx, lock, tenantID).Scan(&storedYear, &value)
	if err == nil {
		return storedYear, value, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("lock counter: %w", err)
	}

	// First allocation for this tenant. A concurrent first allocation may
	// have inserted the row between the select and here, so the insert
	// tolerates conflicts and we re-lock.
	const insert = `
        INSERT INTO sequence_counters (tenant_id, current_year, current_value)
        VALUES ($1, $2, 0)
        ON CONFLICT (tenant_id) DO NOTHING`
	if _, err := s.q.Exec(ctx, insert, tenantID, year); err != nil {
		return 0, 0, fmt.Errorf("seed counter: %w", err)
	}
	if err := s.q.QueryRow(ctx, lock, tenantID).Scan(&storedYear, &value); err != nil {
		return 0, 0, fmt.Errorf("lock counter after seed: %w", err)
	}
	return storedYear, value, nil
}

// Package postgres is the store-backed DataSource.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/pkg/database"
)

// Store implements contracts.DataSource on PostgreSQL
// ⭐ SSOT: all SQL for the index lives in this package
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ contracts.DataSource = (*Store)(nil)

// Name identifies the implementation.
func (s *Store) Name() string { return "postgres" }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// storeErr wraps a driver failure with contracts.ErrStore.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, contracts.ErrStore, err)
}

// checkSubjectID rejects IDs that cannot name a city row.
func checkSubjectID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("city %q: %w", id, contracts.ErrNotFound)
	}
	return nil
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	return database.IsUniqueViolation(err)
}

// decimalText renders an optional decimal as an optional SQL text value.
func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// nullDecimal parses an optional SQL text value.
func nullDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

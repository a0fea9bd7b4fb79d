package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// AddCityRequest inserts a request or bumps the count of an existing one in
// a single statement.
func (s *Store) AddCityRequest(ctx context.Context, city, state string) (int, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" || state == "" {
		return 0, fmt.Errorf("%w: city and state are required", contracts.ErrValidation)
	}

	var count int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO city_requests (city, state)
		VALUES ($1, $2)
		ON CONFLICT ((lower(city)), (lower(state))) DO UPDATE
		SET request_count = city_requests.request_count + 1,
		    updated_at = now()
		RETURNING request_count`, city, state).Scan(&count)
	if err != nil {
		return 0, storeErr("upsert city request", err)
	}
	return count, nil
}

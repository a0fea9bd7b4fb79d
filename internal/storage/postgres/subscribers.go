package postgres

import (
	"context"
	"fmt"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// AddSubscriber stores an email. Returns ErrConflict if already subscribed.
func (s *Store) AddSubscriber(ctx context.Context, email string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO subscribers (email) VALUES ($1)`, email)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("subscribe %s: %w", email, contracts.ErrConflict)
		}
		return storeErr("insert subscriber", err)
	}
	return nil
}

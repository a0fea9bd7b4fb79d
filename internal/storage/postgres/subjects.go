package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

const subjectColumns = `id::text, name, state, slug`

func scanSubject(row pgx.Row) (*contracts.Subject, error) {
	var c contracts.Subject
	if err := row.Scan(&c.ID, &c.Name, &c.Region, &c.Slug); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListSubjects returns every city ordered by name.
func (s *Store) ListSubjects(ctx context.Context) ([]contracts.Subject, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+subjectColumns+` FROM cities ORDER BY name ASC`)
	if err != nil {
		return nil, storeErr("list cities", err)
	}
	defer rows.Close()

	subjects := []contracts.Subject{}
	for rows.Next() {
		c, err := scanSubject(rows)
		if err != nil {
			return nil, storeErr("scan city", err)
		}
		subjects = append(subjects, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list cities", err)
	}
	return subjects, nil
}

// GetSubject returns a city by ID, or contracts.ErrNotFound.
func (s *Store) GetSubject(ctx context.Context, id string) (*contracts.Subject, error) {
	if err := checkSubjectID(id); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM cities WHERE id = $1::uuid`, id)
	c, err := scanSubject(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, contracts.ErrNotFound
		}
		return nil, storeErr("get city", err)
	}
	return c, nil
}

// GetSubjectBySlug returns a city by slug, or contracts.ErrNotFound.
func (s *Store) GetSubjectBySlug(ctx context.Context, slug string) (*contracts.Subject, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM cities WHERE slug = $1`, slug)
	c, err := scanSubject(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, contracts.ErrNotFound
		}
		return nil, storeErr("get city by slug", err)
	}
	return c, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// InsertSpotlight stores a city's burger of the week. Returns ErrConflict
// if one already exists for (city, period).
func (s *Store) InsertSpotlight(ctx context.Context, sp *contracts.Spotlight) error {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO burger_spotlight (id, city_id, period, restaurant_name, burger_name, price, description)
		VALUES ($1::text::uuid, $2::text::uuid, $3::date, $4, $5, $6::numeric, $7)`,
		sp.ID, sp.SubjectID, sp.Period, sp.Restaurant, sp.Burger, sp.Price.String(), sp.Description,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("insert spotlight %s/%s: %w", sp.SubjectID, sp.Period, contracts.ErrConflict)
		}
		return storeErr("insert spotlight", err)
	}
	return nil
}

// LatestSpotlight returns the city's most recent spotlight, or nil.
func (s *Store) LatestSpotlight(ctx context.Context, subjectID string) (*contracts.Spotlight, error) {
	if err := checkSubjectID(subjectID); err != nil {
		return nil, err
	}
	var (
		sp    contracts.Spotlight
		price string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, city_id::text, to_char(period, 'YYYY-MM-DD'), restaurant_name, burger_name, price::text, description
		FROM burger_spotlight
		WHERE city_id = $1::uuid
		ORDER BY period DESC
		LIMIT 1`, subjectID).Scan(
		&sp.ID, &sp.SubjectID, &sp.Period, &sp.Restaurant, &sp.Burger, &price, &sp.Description,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, storeErr("latest spotlight", err)
	}
	if sp.Price, err = decimal.NewFromString(price); err != nil {
		return nil, storeErr("decode spotlight price", err)
	}
	return &sp, nil
}

// UpsertReport stores the period's market report, replacing any earlier one.
func (s *Store) UpsertReport(ctx context.Context, r *contracts.MarketReport) error {
	factors, err := json.Marshal(r.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO market_reports (period, headline, summary, factors, updated_at)
		VALUES ($1::date, $2, $3, $4::jsonb, now())
		ON CONFLICT (period) DO UPDATE SET
			headline = EXCLUDED.headline,
			summary = EXCLUDED.summary,
			factors = EXCLUDED.factors,
			updated_at = now()`,
		r.Period, r.Headline, r.Summary, string(factors),
	)
	if err != nil {
		return storeErr("upsert market report", err)
	}
	return nil
}

// LatestReport returns the most recent market report, or nil.
func (s *Store) LatestReport(ctx context.Context) (*contracts.MarketReport, error) {
	var (
		r       contracts.MarketReport
		factors []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT to_char(period, 'YYYY-MM-DD'), headline, summary, factors
		FROM market_reports
		ORDER BY period DESC
		LIMIT 1`).Scan(&r.Period, &r.Headline, &r.Summary, &factors)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, storeErr("latest market report", err)
	}
	if err := json.Unmarshal(factors, &r.Factors); err != nil {
		return nil, storeErr("decode factors", err)
	}
	return &r, nil
}

// ReplaceNews swaps the period's news batch in one transaction.
func (s *Store) ReplaceNews(ctx context.Context, period string, items []contracts.NewsItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin replace news", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM industry_news WHERE period = $1::date`, period); err != nil {
		return storeErr("delete news", err)
	}

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.Period = period
		_, err := tx.Exec(ctx, `
			INSERT INTO industry_news (id, period, position, title, summary, category, source, impact)
			VALUES ($1::text::uuid, $2::date, $3, $4, $5, $6, $7, $8)`,
			item.ID, period, i, item.Title, item.Summary, item.Category, item.Source, item.Impact,
		)
		if err != nil {
			return storeErr("insert news", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit replace news", err)
	}
	return nil
}

// ListNews returns the period's news in generation order.
func (s *Store) ListNews(ctx context.Context, period string) ([]contracts.NewsItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, to_char(period, 'YYYY-MM-DD'), title, summary, category, source, impact, created_at
		FROM industry_news
		WHERE period = $1::date
		ORDER BY position ASC`, period)
	if err != nil {
		return nil, storeErr("list news", err)
	}
	defer rows.Close()

	items := []contracts.NewsItem{}
	for rows.Next() {
		var n contracts.NewsItem
		if err := rows.Scan(&n.ID, &n.Period, &n.Title, &n.Summary, &n.Category, &n.Source, &n.Impact, &n.Created); err != nil {
			return nil, storeErr("scan news", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list news", err)
	}
	return items, nil
}

// NewsletterExists reports whether an edition is stored for period.
func (s *Store) NewsletterExists(ctx context.Context, period string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM newsletters WHERE period = $1::date)`, period).Scan(&exists)
	if err != nil {
		return false, storeErr("newsletter exists", err)
	}
	return exists, nil
}

// UpsertNewsletter stores an edition, replacing any earlier one for the period.
func (s *Store) UpsertNewsletter(ctx context.Context, n *contracts.Newsletter) error {
	content, err := json.Marshal(n.Sections)
	if err != nil {
		return fmt.Errorf("encode newsletter: %w", err)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO newsletters (period, headline, content, created_at, updated_at)
		VALUES ($1::date, $2, $3::jsonb, $4, now())
		ON CONFLICT (period) DO UPDATE SET
			headline = EXCLUDED.headline,
			content = EXCLUDED.content,
			updated_at = now()`,
		n.Period, n.Headline, string(content), n.CreatedAt,
	)
	if err != nil {
		return storeErr("upsert newsletter", err)
	}
	return nil
}

// GetNewsletter returns the edition for period, or contracts.ErrNotFound.
func (s *Store) GetNewsletter(ctx context.Context, period string) (*contracts.Newsletter, error) {
	var (
		n       contracts.Newsletter
		content []byte
	)
	// Compare as text so malformed periods are simply not found
	err := s.pool.QueryRow(ctx, `
		SELECT to_char(period, 'YYYY-MM-DD'), headline, content, created_at
		FROM newsletters
		WHERE to_char(period, 'YYYY-MM-DD') = $1`, period).Scan(&n.Period, &n.Headline, &content, &n.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, contracts.ErrNotFound
		}
		return nil, storeErr("get newsletter", err)
	}
	if err := json.Unmarshal(content, &n.Sections); err != nil {
		return nil, storeErr("decode newsletter", err)
	}
	return &n, nil
}

// ListNewsletters returns the archive, most recent first.
func (s *Store) ListNewsletters(ctx context.Context) ([]contracts.NewsletterSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(period, 'YYYY-MM-DD'), headline
		FROM newsletters
		ORDER BY period DESC`)
	if err != nil {
		return nil, storeErr("list newsletters", err)
	}
	defer rows.Close()

	out := []contracts.NewsletterSummary{}
	for rows.Next() {
		var ns contracts.NewsletterSummary
		if err := rows.Scan(&ns.Period, &ns.Headline); err != nil {
			return nil, storeErr("scan newsletter", err)
		}
		out = append(out, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list newsletters", err)
	}
	return out, nil
}

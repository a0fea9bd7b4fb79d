package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// Numerics travel as text so decimals round-trip exactly.
const snapshotColumns = `
	id::text, city_id::text, to_char(period, 'YYYY-MM-DD'), bpi_score::text, change_pct::text,
	cheapest_price::text, cheapest_restaurant, most_expensive_price::text, most_expensive_restaurant,
	avg_price::text, sample_size, raw_data, created_at`

func scanSnapshot(row pgx.Row) (*contracts.Snapshot, error) {
	var (
		snap                    contracts.Snapshot
		score, cheap, dear, avg string
		change                  *string
		raw                     []byte
	)
	err := row.Scan(
		&snap.ID, &snap.SubjectID, &snap.Period, &score, &change,
		&cheap, &snap.Cheapest.Label, &dear, &snap.MostExpensive.Label,
		&avg, &snap.SampleCount, &raw, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if snap.IndexScore, err = decimal.NewFromString(score); err != nil {
		return nil, fmt.Errorf("decode bpi_score: %w", err)
	}
	if snap.Cheapest.Price, err = decimal.NewFromString(cheap); err != nil {
		return nil, fmt.Errorf("decode cheapest_price: %w", err)
	}
	if snap.MostExpensive.Price, err = decimal.NewFromString(dear); err != nil {
		return nil, fmt.Errorf("decode most_expensive_price: %w", err)
	}
	if snap.AvgPrice, err = decimal.NewFromString(avg); err != nil {
		return nil, fmt.Errorf("decode avg_price: %w", err)
	}
	if snap.ChangePct, err = nullDecimal(change); err != nil {
		return nil, fmt.Errorf("decode change_pct: %w", err)
	}
	snap.RawSamples = []contracts.PriceSample{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &snap.RawSamples); err != nil {
			return nil, fmt.Errorf("decode raw samples: %w", err)
		}
	}
	return &snap, nil
}

func (s *Store) querySnapshots(ctx context.Context, op, query string, args ...interface{}) ([]contracts.Snapshot, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	snaps := []contracts.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return snaps, nil
}

// Exists reports whether a snapshot for (subjectID, period) is stored.
func (s *Store) Exists(ctx context.Context, subjectID, period string) (bool, error) {
	if err := checkSubjectID(subjectID); err != nil {
		return false, err
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bpi_snapshots WHERE city_id = $1::uuid AND period = $2::date
		)`, subjectID, period).Scan(&exists)
	if err != nil {
		return false, storeErr("snapshot exists", err)
	}
	return exists, nil
}

// GetPrevious returns the latest snapshot strictly before period, or nil.
func (s *Store) GetPrevious(ctx context.Context, subjectID, before string) (*contracts.Snapshot, error) {
	if err := checkSubjectID(subjectID); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM bpi_snapshots
		WHERE city_id = $1::uuid AND period < $2::date
		ORDER BY period DESC
		LIMIT 1`, subjectID, before)

	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, storeErr("get previous snapshot", err)
	}
	return snap, nil
}

// Insert stores a new snapshot. Returns ErrConflict if (city, period) exists.
func (s *Store) Insert(ctx context.Context, snap *contracts.Snapshot) error {
	raw, err := json.Marshal(snap.RawSamples)
	if err != nil {
		return fmt.Errorf("encode raw samples: %w", err)
	}

	query := `
		INSERT INTO bpi_snapshots (
			id, city_id, period, bpi_score, change_pct,
			cheapest_price, cheapest_restaurant, most_expensive_price, most_expensive_restaurant,
			avg_price, sample_size, raw_data, created_at
		) VALUES (
			$1::text::uuid, $2::text::uuid, $3::date, $4::numeric, $5::numeric,
			$6::numeric, $7, $8::numeric, $9,
			$10::numeric, $11, $12::jsonb, $13
		)
	`

	_, err = s.pool.Exec(ctx, query,
		snap.ID, snap.SubjectID, snap.Period, snap.IndexScore.String(), decimalText(snap.ChangePct),
		snap.Cheapest.Price.String(), snap.Cheapest.Label, snap.MostExpensive.Price.String(), snap.MostExpensive.Label,
		snap.AvgPrice.String(), snap.SampleCount, string(raw), snap.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("insert snapshot %s/%s: %w", snap.SubjectID, snap.Period, contracts.ErrConflict)
		}
		return storeErr("insert snapshot", err)
	}
	return nil
}

// ListByPeriod returns every snapshot of a period.
func (s *Store) ListByPeriod(ctx context.Context, period string) ([]contracts.Snapshot, error) {
	return s.querySnapshots(ctx, "list snapshots by period", `
		SELECT `+snapshotColumns+`
		FROM bpi_snapshots
		WHERE period = $1::date
		ORDER BY bpi_score DESC, city_id ASC`, period)
}

// ListBySubject returns a city's snapshots, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subjectID string) ([]contracts.Snapshot, error) {
	if err := checkSubjectID(subjectID); err != nil {
		return nil, err
	}
	return s.querySnapshots(ctx, "list snapshots by city", `
		SELECT `+snapshotColumns+`
		FROM bpi_snapshots
		WHERE city_id = $1::uuid
		ORDER BY period ASC`, subjectID)
}

// ListAll returns every snapshot, oldest first.
func (s *Store) ListAll(ctx context.Context) ([]contracts.Snapshot, error) {
	return s.querySnapshots(ctx, "list snapshots", `
		SELECT `+snapshotColumns+`
		FROM bpi_snapshots
		ORDER BY period ASC, city_id ASC`)
}

// ListPeriods returns distinct periods with data, most recent first.
func (s *Store) ListPeriods(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT DISTINCT to_char(period, 'YYYY-MM-DD') AS p FROM bpi_snapshots ORDER BY p DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list periods", err)
	}
	defer rows.Close()

	periods := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, storeErr("scan period", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list periods", err)
	}
	return periods, nil
}

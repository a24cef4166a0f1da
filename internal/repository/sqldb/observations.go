package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/service/pricing"
)

// SaveObservations appends a snapshot to competitor_rates. Rows are never
// updated; each refresh is its own snapshot keyed by collected_at.
func (s *Store) SaveObservations(ctx context.Context, propertyID string, collectedAt time.Time, obs []domain.CompetitorObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save observations: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO competitor_rates
			(id, property_id, competitor_id, competitor_name, room_type_code,
			 stay_date, rate, currency, available, source, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare observations: %w", err)
	}
	defer stmt.Close()

	at := timeArg(collectedAt)
	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), propertyID, o.CompetitorID, o.CompetitorName, o.RoomTypeCode,
			dayArg(o.Date), o.Rate, o.Currency, o.Available, string(o.Source), at,
		); err != nil {
			return 0, fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit observations: %w", err)
	}
	return len(obs), nil
}

// ListObservations returns the observations of the most recent snapshot
// for one room type and day. Competitors missing from that snapshot are not
// carried over from older ones.
func (s *Store) ListObservations(ctx context.Context, f pricing.ObservationFilter) ([]domain.CompetitorObservation, error) {
	day := dayArg(f.Date)
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT competitor_id, competitor_name, room_type_code, stay_date,
		       rate, currency, available, source
		FROM competitor_rates
		WHERE property_id = $1 AND stay_date = $2 AND room_type_code = $3
		  AND collected_at = (
			SELECT MAX(collected_at) FROM competitor_rates
			WHERE property_id = $4 AND stay_date = $5 AND room_type_code = $6
		  )
		ORDER BY competitor_id
	`), f.PropertyID, day, f.RoomTypeCode, f.PropertyID, day, f.RoomTypeCode)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	var out []domain.CompetitorObservation
	for rows.Next() {
		var (
			o      domain.CompetitorObservation
			source string
		)
		if err := rows.Scan(
			&o.CompetitorID, &o.CompetitorName, &o.RoomTypeCode, dayValue{&o.Date},
			&o.Rate, &o.Currency, &o.Available, &source,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if seen[o.CompetitorID] {
			continue
		}
		seen[o.CompetitorID] = true
		o.Source = domain.ObservationSource(source)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return out, nil
}

package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/service/pricing"
)

const suggestionColumns = `id, property_id, room_type_id, rate_plan_id, stay_date,
		       current_rate, suggested_rate, confidence, reasoning,
		       competitor_average, market_trend, demand_level, occupancy_forecast,
		       is_applied, applied_at, applied_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row rowScanner) (*domain.Suggestion, error) {
	var (
		s         domain.Suggestion
		appliedBy sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.PropertyID, &s.RoomTypeID, &s.RatePlanID, dayValue{&s.Date},
		&s.CurrentRate, &s.SuggestedRate, &s.Confidence, &s.Reasoning,
		&s.Factors.CompetitorAverage, &s.Factors.MarketTrend, &s.Factors.DemandLevel, &s.Factors.OccupancyForecast,
		&s.IsApplied, timeValue{&s.AppliedAt}, &appliedBy, requiredTime{&s.CreatedAt},
	)
	if err != nil {
		return nil, err
	}
	if appliedBy.Valid {
		s.AppliedBy = &appliedBy.String
	}
	return &s, nil
}

func (s *Store) CreateSuggestion(ctx context.Context, sg *domain.Suggestion) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO rate_suggestions
			(id, property_id, room_type_id, rate_plan_id, stay_date,
			 current_rate, suggested_rate, confidence, reasoning,
			 competitor_average, market_trend, demand_level, occupancy_forecast,
			 is_applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, $14)
	`), sg.ID, sg.PropertyID, sg.RoomTypeID, sg.RatePlanID, dayArg(sg.Date),
		sg.CurrentRate, sg.SuggestedRate, sg.Confidence, sg.Reasoning,
		sg.Factors.CompetitorAverage, string(sg.Factors.MarketTrend), string(sg.Factors.DemandLevel), sg.Factors.OccupancyForecast,
		timeArg(sg.CreatedAt))
	if err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

func (s *Store) GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error) {
	return s.getSuggestion(ctx, s.db, id)
}

func (s *Store) getSuggestion(ctx context.Context, ex execer, id string) (*domain.Suggestion, error) {
	sg, err := scanSuggestion(ex.QueryRowContext(ctx, s.q(`
		SELECT `+suggestionColumns+`
		FROM rate_suggestions
		WHERE id = $1
	`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pricing.ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return sg, nil
}

func (s *Store) ListSuggestions(ctx context.Context, f pricing.SuggestionFilter) ([]domain.Suggestion, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}

	q := `
		SELECT ` + suggestionColumns + `
		FROM rate_suggestions
		WHERE property_id = $1`
	args := []interface{}{f.PropertyID}
	idx := 2

	if !f.Start.IsZero() {
		q += fmt.Sprintf(" AND stay_date >= $%d", idx)
		args = append(args, dayArg(f.Start))
		idx++
	}
	if !f.End.IsZero() {
		q += fmt.Sprintf(" AND stay_date <= $%d", idx)
		args = append(args, dayArg(f.End))
		idx++
	}
	if f.Applied != nil {
		q += fmt.Sprintf(" AND is_applied = $%d", idx)
		args = append(args, *f.Applied)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY stay_date, created_at, id LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.q(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, *sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return out, nil
}

// ApplySuggestion flips is_applied with a conditional UPDATE and mirrors the
// suggested rate in the same transaction. The guard on is_applied = FALSE
// makes the row update the single point of contention: a concurrent second
// caller updates zero rows and reports a conflict.
func (s *Store) ApplySuggestion(ctx context.Context, id, actorID string, at time.Time) (*domain.Suggestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("apply suggestion: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE rate_suggestions
		SET is_applied = TRUE, applied_at = $1, applied_by = $2
		WHERE id = $3 AND is_applied = FALSE
	`), timeArg(at), actorID, id)
	if err != nil {
		return nil, fmt.Errorf("apply suggestion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("apply suggestion: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM rate_suggestions WHERE id = $1`), id).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("apply suggestion: %w", err)
		}
		if exists == 0 {
			return nil, pricing.ErrSuggestionNotFound
		}
		return nil, pricing.ErrSuggestionAlreadyApplied
	}

	sg, err := s.getSuggestion(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	res, err = tx.ExecContext(ctx, s.q(`
		UPDATE rate_records
		SET rate = $1, updated_at = $2
		WHERE property_id = $3 AND room_type_id = $4 AND rate_plan_id = $5 AND stay_date = $6
	`), sg.SuggestedRate, timeArg(at), sg.PropertyID, sg.RoomTypeID, sg.RatePlanID, dayArg(sg.Date))
	if err != nil {
		return nil, fmt.Errorf("mirror suggested rate: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("mirror suggested rate: %w", err)
	} else if n == 0 {
		return nil, pricing.ErrRateNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit apply: %w", err)
	}
	return sg, nil
}

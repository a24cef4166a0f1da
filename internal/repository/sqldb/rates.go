package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/service/pricing"
)

const rateColumns = `id, property_id, room_type_id, room_type_code, rate_plan_id,
		       stay_date, rate, currency, rooms_available, rooms_sold`

func (s *Store) ListRates(ctx context.Context, f pricing.RateFilter) ([]domain.RateRecord, error) {
	q := `
		SELECT ` + rateColumns + `
		FROM rate_records
		WHERE property_id = $1 AND stay_date >= $2 AND stay_date <= $3`
	args := []interface{}{f.PropertyID, dayArg(f.Start), dayArg(f.End)}
	idx := 4

	in := func(col string, vals []string) {
		marks := make([]string, len(vals))
		for i, v := range vals {
			marks[i] = fmt.Sprintf("$%d", idx)
			args = append(args, v)
			idx++
		}
		q += fmt.Sprintf(" AND %s IN (%s)", col, strings.Join(marks, ", "))
	}
	if len(f.RoomTypeIDs) > 0 {
		in("room_type_id", f.RoomTypeIDs)
	}
	if len(f.RatePlanIDs) > 0 {
		in("rate_plan_id", f.RatePlanIDs)
	}
	if f.RoomTypeCode != "" {
		q += fmt.Sprintf(" AND room_type_code = $%d", idx)
		args = append(args, f.RoomTypeCode)
	}
	q += " ORDER BY stay_date, room_type_id, rate_plan_id"

	rows, err := s.db.QueryContext(ctx, s.q(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var out []domain.RateRecord
	for rows.Next() {
		var r domain.RateRecord
		if err := rows.Scan(
			&r.ID, &r.PropertyID, &r.RoomTypeID, &r.RoomTypeCode, &r.RatePlanID,
			dayValue{&r.Date}, &r.Rate, &r.Currency, &r.RoomsAvailable, &r.RoomsSold,
		); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return out, nil
}

// UpsertRates inserts rate records or updates the rate and inventory of
// existing (property, room type, rate plan, date) rows. Records without an
// id get one.
func (s *Store) UpsertRates(ctx context.Context, records []domain.RateRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("upsert rates: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO rate_records
			(id, property_id, room_type_id, room_type_code, rate_plan_id,
			 stay_date, rate, currency, rooms_available, rooms_sold, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (property_id, room_type_id, rate_plan_id, stay_date) DO UPDATE SET
			room_type_code = excluded.room_type_code,
			rate = excluded.rate,
			currency = excluded.currency,
			rooms_available = excluded.rooms_available,
			rooms_sold = excluded.rooms_sold,
			updated_at = excluded.updated_at
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare upsert rates: %w", err)
	}
	defer stmt.Close()

	now := timeArg(time.Now())
	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Currency == "" {
			r.Currency = domain.DefaultCurrency
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.PropertyID, r.RoomTypeID, r.RoomTypeCode, r.RatePlanID,
			dayArg(r.Date), r.Rate, r.Currency, r.RoomsAvailable, r.RoomsSold, now,
		); err != nil {
			return 0, fmt.Errorf("upsert rate %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rates: %w", err)
	}
	return len(records), nil
}

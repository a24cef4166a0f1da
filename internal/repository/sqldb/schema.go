package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 2

type columnTypes struct {
	money     string
	day       string
	timestamp string
	float     string
}

func (s *Store) types() columnTypes {
	if s.dialect == Postgres {
		return columnTypes{money: "NUMERIC(12,2)", day: "DATE", timestamp: "TIMESTAMPTZ", float: "DOUBLE PRECISION"}
	}
	return columnTypes{money: "TEXT", day: "TEXT", timestamp: "TEXT", float: "REAL"}
}

// Migrate runs forward migrations to bring the database schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if version < 1 {
		if err := s.migrateV1(ctx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	if version < 2 {
		if err := s.migrateV2(ctx); err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) migrateV1(ctx context.Context) error {
	t := s.types()
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rate_records (
			id              TEXT PRIMARY KEY,
			property_id     TEXT NOT NULL,
			room_type_id    TEXT NOT NULL,
			room_type_code  TEXT NOT NULL,
			rate_plan_id    TEXT NOT NULL,
			stay_date       %[1]s NOT NULL,
			rate            %[2]s NOT NULL,
			currency        TEXT NOT NULL DEFAULT 'USD',
			rooms_available INTEGER NOT NULL DEFAULT 0,
			rooms_sold      INTEGER NOT NULL DEFAULT 0,
			updated_at      %[3]s NOT NULL,
			UNIQUE (property_id, room_type_id, rate_plan_id, stay_date)
		)`, t.day, t.money, t.timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rate_suggestions (
			id                 TEXT PRIMARY KEY,
			property_id        TEXT NOT NULL,
			room_type_id       TEXT NOT NULL,
			rate_plan_id       TEXT NOT NULL,
			stay_date          %[1]s NOT NULL,
			current_rate       %[2]s NOT NULL,
			suggested_rate     %[2]s NOT NULL,
			confidence         INTEGER NOT NULL,
			reasoning          TEXT NOT NULL,
			competitor_average %[4]s NOT NULL,
			market_trend       TEXT NOT NULL,
			demand_level       TEXT NOT NULL,
			occupancy_forecast %[4]s NOT NULL,
			is_applied         BOOLEAN NOT NULL DEFAULT FALSE,
			applied_at         %[3]s,
			applied_by         TEXT,
			created_at         %[3]s NOT NULL
		)`, t.day, t.money, t.timestamp, t.float),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS competitor_rates (
			id              TEXT PRIMARY KEY,
			property_id     TEXT NOT NULL,
			competitor_id   TEXT NOT NULL,
			competitor_name TEXT NOT NULL,
			room_type_code  TEXT NOT NULL,
			stay_date       %[1]s NOT NULL,
			rate            %[2]s NOT NULL,
			currency        TEXT NOT NULL,
			available       BOOLEAN NOT NULL,
			source          TEXT NOT NULL,
			collected_at    %[3]s NOT NULL
		)`, t.day, t.money, t.timestamp),

		`CREATE INDEX IF NOT EXISTS idx_rate_records_property_date ON rate_records(property_id, stay_date)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_suggestions_property_date ON rate_suggestions(property_id, stay_date)`,
		`CREATE INDEX IF NOT EXISTS idx_competitor_rates_lookup ON competitor_rates(property_id, stay_date, room_type_code)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if err := s.setVersion(ctx, tx, 1); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateV2 indexes snapshot time for retention pruning.
func (s *Store) migrateV2(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_competitor_rates_collected ON competitor_rates(collected_at)`); err != nil {
		return fmt.Errorf("creating collected_at index: %w", err)
	}
	if err := s.setVersion(ctx, tx, 2); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) setVersion(ctx context.Context, tx *sql.Tx, version int) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("clearing schema_version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q("INSERT INTO schema_version (version) VALUES ($1)"), version); err != nil {
		return fmt.Errorf("setting schema_version: %w", err)
	}
	return nil
}

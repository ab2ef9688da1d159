package postgres

import (
	"context"

	"github.com/uptrace/bun"
)

// migrationStatements is the full schema, applied idempotently at startup.
// The appointments_no_overlap exclusion constraint enforces the core
// invariant: scheduled appointments for one employee and date never occupy
// overlapping minute ranges.
var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS services (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		duration_minutes INT NOT NULL CHECK (duration_minutes > 0),
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		specialization TEXT NOT NULL DEFAULT '',
		service_ids BIGINT[] NOT NULL DEFAULT '{}',
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'client',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS availability_windows (
		id BIGSERIAL PRIMARY KEY,
		employee_id BIGINT NOT NULL REFERENCES employees (id),
		date DATE NOT NULL,
		start_minute INT NOT NULL,
		end_minute INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_minute < end_minute)
	)`,

	`CREATE INDEX IF NOT EXISTS availability_windows_employee_date_idx
		ON availability_windows (employee_id, date)`,

	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY,
		employee_id BIGINT NOT NULL REFERENCES employees (id),
		service_id BIGINT NOT NULL REFERENCES services (id),
		user_id UUID NOT NULL REFERENCES users (id),
		date DATE NOT NULL,
		start_minute INT NOT NULL,
		end_minute INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (start_minute < end_minute),
		CONSTRAINT appointments_no_overlap EXCLUDE USING gist (
			employee_id WITH =,
			date WITH =,
			int4range(start_minute, end_minute) WITH &&
		) WHERE (status = 'scheduled')
	)`,

	`CREATE INDEX IF NOT EXISTS appointments_employee_date_idx
		ON appointments (employee_id, date)`,

	`CREATE INDEX IF NOT EXISTS appointments_user_idx
		ON appointments (user_id)`,
}

func Migrate(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return applyMigrations(ctx, tx)
	})
}

func applyMigrations(ctx context.Context, tx bun.Tx) error {
	for _, stmt := range migrationStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The invariants the allocation engine depends on are expressed as hard
// constraints here rather than assumed in application code: coupon codes are
// globally unique, a beneficiary appears at most once per round, and round
// numbers are unique within a distribution.
const schema = `
CREATE TABLE IF NOT EXISTS institutions (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS coupon_templates (
	id             UUID PRIMARY KEY,
	institution_id UUID NOT NULL REFERENCES institutions(id),
	name           TEXT NOT NULL,
	type           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (institution_id, name)
);

CREATE TABLE IF NOT EXISTS distributions (
	id                 UUID PRIMARY KEY,
	institution_id     UUID NOT NULL REFERENCES institutions(id),
	coupon_template_id UUID NOT NULL REFERENCES coupon_templates(id),
	title              TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'ACTIVE',
	start_date         TIMESTAMPTZ,
	end_date           TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS beneficiaries (
	id          UUID PRIMARY KEY,
	full_name   TEXT NOT NULL,
	national_id TEXT NOT NULL UNIQUE,
	phone       TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rounds (
	id              UUID PRIMARY KEY,
	distribution_id UUID NOT NULL REFERENCES distributions(id),
	round_number    INTEGER NOT NULL CHECK (round_number >= 1),
	coupon_count    INTEGER NOT NULL CHECK (coupon_count >= 1),
	start_date      TIMESTAMPTZ,
	end_date        TIMESTAMPTZ NOT NULL,
	status          TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT rounds_distribution_round_number_key UNIQUE (distribution_id, round_number),
	CONSTRAINT rounds_dates_check CHECK (start_date IS NULL OR end_date >= start_date)
);

CREATE TABLE IF NOT EXISTS allocations (
	id             UUID PRIMARY KEY,
	round_id       UUID NOT NULL REFERENCES rounds(id) ON DELETE RESTRICT,
	beneficiary_id UUID NOT NULL REFERENCES beneficiaries(id),
	coupon_code    TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'DELIVERED')),
	expires_at     TIMESTAMPTZ,
	delivered_at   TIMESTAMPTZ,
	delivered_by   TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT allocations_coupon_code_key UNIQUE (coupon_code),
	CONSTRAINT allocations_round_beneficiary_key UNIQUE (round_id, beneficiary_id)
);

CREATE INDEX IF NOT EXISTS allocations_round_id_idx ON allocations (round_id);
`

// EnsureSchema creates the tables and constraints if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Package store persists Care+ patients and their measurements in Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("NOT_FOUND")

type scanner interface {
	Scan(dest ...interface{}) error
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS patients (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	diabetes_type  TEXT NOT NULL DEFAULT 'T2D',
	date_of_birth  DATE,
	blood_pressure TEXT,
	heart_rate     INTEGER,
	weight         DOUBLE PRECISION,
	target         JSONB,
	emergency      JSONB
);

CREATE TABLE IF NOT EXISTS readings (
	id         BIGSERIAL PRIMARY KEY,
	patient_id BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	taken_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	value_mgdl DOUBLE PRECISION NOT NULL,
	context    TEXT NOT NULL DEFAULT 'random',
	notes      TEXT
);
CREATE INDEX IF NOT EXISTS idx_readings_patient_taken ON readings (patient_id, taken_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id         BIGSERIAL PRIMARY KEY,
	patient_id BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	severity   TEXT NOT NULL,
	type       TEXT NOT NULL,
	message    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_patient_created ON alerts (patient_id, created_at DESC);

CREATE TABLE IF NOT EXISTS heart_rates (
	id          BIGSERIAL PRIMARY KEY,
	patient_id  BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	bpm         INTEGER NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS blood_pressures (
	id          BIGSERIAL PRIMARY KEY,
	patient_id  BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	systolic    INTEGER NOT NULL,
	diastolic   INTEGER NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS medications (
	id          BIGSERIAL PRIMARY KEY,
	patient_id  BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	dosage      TEXT,
	frequency   TEXT,
	next_refill DATE,
	notes       TEXT
);
`

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

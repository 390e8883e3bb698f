package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"careplus/internal/common/database"
	"careplus/internal/models"
	"careplus/internal/rules"
)

const readingColumns = `id, patient_id, taken_at, value_mgdl, context, notes`

func scanReading(row scanner) (models.Reading, error) {
	var r models.Reading
	if err := row.Scan(&r.ID, &r.PatientID, &r.Timestamp, &r.ValueMgdl, &r.Context, &r.Notes); err != nil {
		return models.Reading{}, err
	}
	return r, nil
}

// AddReading stores a reading together with the alerts the rules raise for
// it, in one transaction. ErrNotFound means the patient does not exist.
func (s *Store) AddReading(ctx context.Context, in models.ReadingCreate, now time.Time) (models.Reading, []models.Alert, error) {
	reading := in.ToReading(now)
	var alerts []models.Alert

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, in.PatientID)
		patient, err := scanPatient(row)
		if err != nil {
			return notFound(err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO readings (patient_id, taken_at, value_mgdl, context, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			reading.PatientID, reading.Timestamp, reading.ValueMgdl, reading.Context, reading.Notes,
		).Scan(&reading.ID)
		if err != nil {
			return err
		}

		alerts = rules.EvaluateReading(patient, reading, now)
		for i := range alerts {
			if err := insertAlert(ctx, tx, &alerts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Reading{}, nil, fmt.Errorf("add reading for patient %d: %w", in.PatientID, err)
	}
	return reading, alerts, nil
}

func insertAlert(ctx context.Context, tx *sql.Tx, a *models.Alert) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO alerts (patient_id, created_at, severity, type, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		a.PatientID, a.Timestamp, a.Severity, a.Type, a.Message,
	).Scan(&a.ID)
}

// ListReadings returns a patient's readings, newest first.
func (s *Store) ListReadings(ctx context.Context, patientID int64) ([]models.Reading, error) {
	return s.queryReadings(ctx, "list readings",
		`SELECT `+readingColumns+` FROM readings WHERE patient_id = $1 ORDER BY taken_at DESC`, patientID)
}

// ListAllReadings returns every reading, oldest first.
func (s *Store) ListAllReadings(ctx context.Context) ([]models.Reading, error) {
	return s.queryReadings(ctx, "list all readings",
		`SELECT `+readingColumns+` FROM readings ORDER BY taken_at ASC`)
}

func (s *Store) queryReadings(ctx context.Context, op, query string, args ...interface{}) ([]models.Reading, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	readings := []models.Reading{}
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return readings, nil
}

// Trend averages all readings per UTC day, oldest day first.
func (s *Store) Trend(ctx context.Context) ([]models.TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT (taken_at AT TIME ZONE 'UTC')::date AS day, AVG(value_mgdl), COUNT(*)
		FROM readings
		GROUP BY day
		ORDER BY day ASC`)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	defer rows.Close()

	points := []models.TrendPoint{}
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Day, &p.AvgMgdl, &p.Count); err != nil {
			return nil, fmt.Errorf("trend: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	return points, nil
}

// AvgLatestGlucose averages the most recent reading of each patient. It
// returns nil when there are no readings.
func (s *Store) AvgLatestGlucose(ctx context.Context) (*float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(value_mgdl) FROM (
			SELECT DISTINCT ON (patient_id) value_mgdl
			FROM readings
			ORDER BY patient_id, taken_at DESC
		) latest`).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average latest glucose: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

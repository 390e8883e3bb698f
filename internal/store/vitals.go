package store

import (
	"context"
	"fmt"
	"time"

	"careplus/internal/models"
)

func (s *Store) ListHeartRates(ctx context.Context, patientID int64) ([]models.HeartRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, bpm, recorded_at FROM heart_rates
		WHERE patient_id = $1 ORDER BY recorded_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list heart rates: %w", err)
	}
	defer rows.Close()

	out := []models.HeartRate{}
	for rows.Next() {
		var hr models.HeartRate
		if err := rows.Scan(&hr.ID, &hr.PatientID, &hr.BPM, &hr.Timestamp); err != nil {
			return nil, fmt.Errorf("list heart rates: %w", err)
		}
		out = append(out, hr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list heart rates: %w", err)
	}
	return out, nil
}

func (s *Store) AddHeartRate(ctx context.Context, patientID int64, in models.HeartRateCreate, now time.Time) (models.HeartRate, error) {
	hr := models.HeartRate{PatientID: patientID, BPM: in.BPM, Timestamp: now.UTC()}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO heart_rates (patient_id, bpm, recorded_at) VALUES ($1, $2, $3) RETURNING id`,
		hr.PatientID, hr.BPM, hr.Timestamp,
	).Scan(&hr.ID)
	if err != nil {
		return models.HeartRate{}, fmt.Errorf("add heart rate: %w", err)
	}
	return hr, nil
}

func (s *Store) ListBloodPressures(ctx context.Context, patientID int64) ([]models.BloodPressure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, systolic, diastolic, recorded_at FROM blood_pressures
		WHERE patient_id = $1 ORDER BY recorded_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list blood pressures: %w", err)
	}
	defer rows.Close()

	out := []models.BloodPressure{}
	for rows.Next() {
		var bp models.BloodPressure
		if err := rows.Scan(&bp.ID, &bp.PatientID, &bp.Systolic, &bp.Diastolic, &bp.Timestamp); err != nil {
			return nil, fmt.Errorf("list blood pressures: %w", err)
		}
		out = append(out, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blood pressures: %w", err)
	}
	return out, nil
}

func (s *Store) AddBloodPressure(ctx context.Context, patientID int64, in models.BloodPressureCreate, now time.Time) (models.BloodPressure, error) {
	bp := models.BloodPressure{PatientID: patientID, Systolic: in.Systolic, Diastolic: in.Diastolic, Timestamp: now.UTC()}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO blood_pressures (patient_id, systolic, diastolic, recorded_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		bp.PatientID, bp.Systolic, bp.Diastolic, bp.Timestamp,
	).Scan(&bp.ID)
	if err != nil {
		return models.BloodPressure{}, fmt.Errorf("add blood pressure: %w", err)
	}
	return bp, nil
}

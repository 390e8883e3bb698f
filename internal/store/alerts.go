package store

import (
	"context"
	"fmt"

	"careplus/internal/models"
)

// ListAlerts returns a patient's alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, patientID int64) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, created_at, severity, type, message
		FROM alerts
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Timestamp, &a.Severity, &a.Type, &a.Message); err != nil {
			return nil, fmt.Errorf("list alerts: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

func (s *Store) CountAlerts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return n, nil
}

// Summary gathers the three dashboard card values.
func (s *Store) Summary(ctx context.Context) (models.Summary, error) {
	var (
		sum models.Summary
		err error
	)
	if sum.TotalPatients, err = s.CountPatients(ctx); err != nil {
		return models.Summary{}, err
	}
	if sum.AvgGlucose, err = s.AvgLatestGlucose(ctx); err != nil {
		return models.Summary{}, err
	}
	if sum.TotalAlerts, err = s.CountAlerts(ctx); err != nil {
		return models.Summary{}, err
	}
	return sum, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"careplus/internal/common/database"
	"careplus/internal/models"
)

const seedNote = "Auto-generated sample"

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

// DemoPatients are the patients Seed inserts.
func DemoPatients() []models.PatientCreate {
	dob := func(y int, m time.Month, d int) *models.Date {
		date := models.NewDate(y, m, d)
		return &date
	}
	return []models.PatientCreate{
		{Name: "Ama Mensah", DiabetesType: models.DiabetesTypeT2D, DateOfBirth: dob(1984, time.May, 22),
			BloodPressure: strPtr("120/80 mmHg"), HeartRate: intPtr(72), Weight: floatPtr(68.5)},
		{Name: "Kwame Asare", DiabetesType: models.DiabetesTypeT1D, DateOfBirth: dob(1992, time.August, 14),
			BloodPressure: strPtr("130/85 mmHg"), HeartRate: intPtr(78), Weight: floatPtr(73.2)},
		{Name: "Akua Baah", DiabetesType: models.DiabetesTypeT2D, DateOfBirth: dob(1975, time.December, 3),
			BloodPressure: strPtr("118/79 mmHg"), HeartRate: intPtr(70), Weight: floatPtr(65.0)},
	}
}

// Seed wipes patients, readings and alerts, then inserts the demo data: the
// demo patients, one reading per day over the last week for each, and two
// example alerts. It returns the inserted patients.
func (s *Store) Seed(ctx context.Context, now time.Time) ([]models.Patient, error) {
	var patients []models.Patient

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range []string{"alerts", "readings", "patients"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for _, in := range DemoPatients() {
			p := in.ToPatient()
			err := tx.QueryRowContext(ctx, `
				INSERT INTO patients (name, diabetes_type, date_of_birth, blood_pressure, heart_rate, weight, target, emergency)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id`,
				p.Name, p.DiabetesType, p.DateOfBirth, p.BloodPressure, p.HeartRate, p.Weight, p.Target, models.JSONMap(p.Emergency),
			).Scan(&p.ID)
			if err != nil {
				return fmt.Errorf("insert patient %s: %w", p.Name, err)
			}
			patients = append(patients, p)
		}

		base := now.UTC().AddDate(0, 0, -7)
		for _, p := range patients {
			for i := 0; i < 7; i++ {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO readings (patient_id, taken_at, value_mgdl, context, notes)
					VALUES ($1, $2, $3, $4, $5)`,
					p.ID, base.AddDate(0, 0, i), float64(90+i*5), models.ContextRandom, seedNote,
				)
				if err != nil {
					return fmt.Errorf("insert reading for %s: %w", p.Name, err)
				}
			}
		}

		examples := []models.Alert{
			{PatientID: patients[0].ID, Severity: models.SeverityMedium, Type: "glucose",
				Message: "Glucose slightly above target range."},
			{PatientID: patients[1].ID, Severity: models.SeverityHigh, Type: "blood_pressure",
				Message: "Blood pressure higher than normal."},
		}
		for i := range examples {
			examples[i].Timestamp = now.UTC()
			if err := insertAlert(ctx, tx, &examples[i]); err != nil {
				return fmt.Errorf("insert alert: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return patients, nil
}

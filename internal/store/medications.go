package store

import (
	"context"
	"fmt"

	"careplus/internal/models"
)

func (s *Store) ListMedications(ctx context.Context, patientID int64) ([]models.Medication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, name, dosage, frequency, next_refill, notes
		FROM medications WHERE patient_id = $1 ORDER BY id ASC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	out := []models.Medication{}
	for rows.Next() {
		var m models.Medication
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency, &m.NextRefill, &m.Notes); err != nil {
			return nil, fmt.Errorf("list medications: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return out, nil
}

func (s *Store) AddMedication(ctx context.Context, patientID int64, in models.MedicationCreate) (models.Medication, error) {
	m := models.Medication{
		PatientID:  patientID,
		Name:       in.Name,
		Dosage:     in.Dosage,
		Frequency:  in.Frequency,
		NextRefill: in.NextRefill,
		Notes:      in.Notes,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO medications (patient_id, name, dosage, frequency, next_refill, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		m.PatientID, m.Name, m.Dosage, m.Frequency, m.NextRefill, m.Notes,
	).Scan(&m.ID)
	if err != nil {
		return models.Medication{}, fmt.Errorf("add medication: %w", err)
	}
	return m, nil
}

func (s *Store) DeleteMedication(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete medication %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete medication %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete medication %d: %w", id, ErrNotFound)
	}
	return nil
}

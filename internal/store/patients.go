package store

import (
	"context"
	"fmt"
	"strings"

	"careplus/internal/models"
)

const patientColumns = `id, name, diabetes_type, date_of_birth, blood_pressure, heart_rate, weight, target, emergency`

func scanPatient(row scanner) (models.Patient, error) {
	var (
		p         models.Patient
		emergency models.JSONMap
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.DiabetesType, &p.DateOfBirth,
		&p.BloodPressure, &p.HeartRate, &p.Weight, &p.Target, &emergency,
	)
	if err != nil {
		return models.Patient{}, err
	}
	p.Emergency = emergency
	return p, nil
}

func (s *Store) CreatePatient(ctx context.Context, in models.PatientCreate) (models.Patient, error) {
	p := in.ToPatient()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO patients (name, diabetes_type, date_of_birth, blood_pressure, heart_rate, weight, target, emergency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.Name, p.DiabetesType, p.DateOfBirth, p.BloodPressure, p.HeartRate, p.Weight, p.Target, models.JSONMap(p.Emergency),
	)
	if err := row.Scan(&p.ID); err != nil {
		return models.Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// ListPatients returns every patient, newest first.
func (s *Store) ListPatients(ctx context.Context) ([]models.Patient, error) {
	return s.queryPatients(ctx, "list patients",
		`SELECT `+patientColumns+` FROM patients ORDER BY id DESC`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPatients matches names case-insensitively by substring. LIKE
// wildcards in q match literally.
func (s *Store) SearchPatients(ctx context.Context, q string) ([]models.Patient, error) {
	return s.queryPatients(ctx, "search patients",
		`SELECT `+patientColumns+` FROM patients WHERE name ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY id DESC`,
		likeEscaper.Replace(q))
}

func (s *Store) queryPatients(ctx context.Context, op, query string, args ...interface{}) ([]models.Patient, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	patients := []models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return patients, nil
}

func (s *Store) GetPatient(ctx context.Context, id int64) (models.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		return models.Patient{}, fmt.Errorf("get patient %d: %w", id, notFound(err))
	}
	return p, nil
}

// UpdatePatient replaces every field of the patient. Omitted optional
// fields are cleared.
func (s *Store) UpdatePatient(ctx context.Context, id int64, in models.PatientCreate) (models.Patient, error) {
	p := in.ToPatient()
	p.Target = in.Target
	p.ID = id

	row := s.db.QueryRowContext(ctx, `
		UPDATE patients
		SET name = $1, diabetes_type = $2, date_of_birth = $3, blood_pressure = $4,
		    heart_rate = $5, weight = $6, target = $7, emergency = $8
		WHERE id = $9
		RETURNING id`,
		p.Name, p.DiabetesType, p.DateOfBirth, p.BloodPressure, p.HeartRate, p.Weight, p.Target, models.JSONMap(p.Emergency), id,
	)
	if err := row.Scan(&p.ID); err != nil {
		return models.Patient{}, fmt.Errorf("update patient %d: %w", id, notFound(err))
	}
	return p, nil
}

// DeletePatient removes the patient; readings, alerts, vitals and
// medications go with it.
func (s *Store) DeletePatient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete patient %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) CountPatients(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"careplus/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

var (
	testNow      = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	targetsJSON  = []byte(`{"fasting":{"min":80,"max":130},"post_meal":{"min":80,"max":180},"random":{"min":80,"max":180}}`)
	patientCols  = []string{"id", "name", "diabetes_type", "date_of_birth", "blood_pressure", "heart_rate", "weight", "target", "emergency"}
	readingCols  = []string{"id", "patient_id", "taken_at", "value_mgdl", "context", "notes"}
	selectByID   = regexp.QuoteMeta(`FROM patients WHERE id = $1`)
	insertAlerts = regexp.QuoteMeta(`INSERT INTO alerts`)
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func amaRow() *sqlmock.Rows {
	return sqlmock.NewRows(patientCols).AddRow(
		1, "Ama Mensah", "T2D", time.Date(1984, 5, 22, 0, 0, 0, 0, time.UTC),
		"120/80 mmHg", 72, 68.5, targetsJSON, []byte(`{"phone":"+233200000000","email":"kin@example.com"}`),
	)
}

// ==========================
// Patient Tests
// ==========================

func TestCreatePatient_AppliesDefaults(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO patients`)).
		WithArgs("Ama Mensah", models.DiabetesTypeT2D, nil, nil, nil, nil, sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	p, err := s.CreatePatient(context.Background(), models.PatientCreate{Name: "Ama Mensah"})
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, models.DiabetesTypeT2D, p.DiabetesType)
	require.NotNil(t, p.Target)
	assert.Equal(t, models.DefaultTargets(), *p.Target)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPatients_NewestFirst(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows(patientCols).
		AddRow(3, "Akua Baah", "T2D", nil, nil, nil, nil, nil, nil).
		AddRow(2, "Kwame Asare", "T1D", nil, nil, nil, nil, targetsJSON, nil)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM patients ORDER BY id DESC`)).WillReturnRows(rows)

	patients, err := s.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 2)

	assert.Equal(t, "Akua Baah", patients[0].Name)
	assert.Nil(t, patients[0].Target)
	assert.Nil(t, patients[0].DateOfBirth)
	assert.Nil(t, patients[0].Emergency)
	assert.Equal(t, models.DiabetesTypeT1D, patients[1].DiabetesType)
	require.NotNil(t, patients[1].Target)
	assert.Equal(t, 130.0, patients[1].Target.Fasting.Max)
}

func TestListPatients_EmptyIsNotNil(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM patients ORDER BY id DESC`)).WillReturnRows(sqlmock.NewRows(patientCols))

	patients, err := s.ListPatients(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, patients)
	assert.Empty(t, patients)
}

func TestGetPatient(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(selectByID).WithArgs(int64(1)).WillReturnRows(amaRow())

	p, err := s.GetPatient(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Ama Mensah", p.Name)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, "1984-05-22", p.DateOfBirth.String())
	require.NotNil(t, p.HeartRate)
	assert.Equal(t, 72, *p.HeartRate)
	assert.Equal(t, "+233200000000", p.EmergencyContact("phone"))
}

func TestGetPatient_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(selectByID).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := s.GetPatient(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchPatients(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'`)).
		WithArgs("ama").
		WillReturnRows(amaRow())

	patients, err := s.SearchPatients(context.Background(), "ama")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Ama Mensah", patients[0].Name)
}

func TestSearchPatients_EscapesWildcards(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{`%`, `\%`},
		{`_`, `\_`},
		{`a\b`, `a\\b`},
		{`100%_ok`, `100\%\_ok`},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectQuery(regexp.QuoteMeta(`ILIKE '%' || $1 || '%'`)).
				WithArgs(tt.want).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			patients, err := s.SearchPatients(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Empty(t, patients)
		})
	}
}

func TestUpdatePatient(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE patients`)).
		WithArgs("Ama M.", models.DiabetesTypeT1D, nil, nil, nil, nil, nil, nil, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	p, err := s.UpdatePatient(context.Background(), 1, models.PatientCreate{Name: "Ama M.", DiabetesType: models.DiabetesTypeT1D})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Nil(t, p.Target)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePatient_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE patients`)).WillReturnError(sql.ErrNoRows)

	_, err := s.UpdatePatient(context.Background(), 5, models.PatientCreate{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePatient(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM patients WHERE id = $1`)).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM patients WHERE id = $1`)).
		WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.DeletePatient(context.Background(), 1))
	assert.ErrorIs(t, s.DeletePatient(context.Background(), 2), ErrNotFound)
}

// ==========================
// Reading Tests
// ==========================

func TestAddReading_InRangeStoresNoAlert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs(int64(1)).WillReturnRows(amaRow())
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO readings`)).
		WithArgs(int64(1), testNow, 120.0, models.ContextRandom, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	r, alerts, err := s.AddReading(context.Background(), models.ReadingCreate{PatientID: 1, ValueMgdl: 120}, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(11), r.ID)
	assert.Equal(t, models.ContextRandom, r.Context)
	assert.Empty(t, alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReading_OutOfRangeStoresAlert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs(int64(1)).WillReturnRows(amaRow())
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO readings`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectQuery(insertAlerts).
		WithArgs(int64(1), testNow, models.SeverityHigh, "reading_range", "Dangerous glucose 320.0 mg/dL").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	_, alerts, err := s.AddReading(context.Background(),
		models.ReadingCreate{PatientID: 1, ValueMgdl: 320, Context: models.ContextPostMeal}, testNow)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(4), alerts[0].ID)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReading_UnknownPatientRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := s.AddReading(context.Background(), models.ReadingCreate{PatientID: 42, ValueMgdl: 100}, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReading_AlertInsertFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WillReturnRows(amaRow())
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO readings`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(13))
	mock.ExpectQuery(insertAlerts).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, _, err := s.AddReading(context.Background(), models.ReadingCreate{PatientID: 1, ValueMgdl: 200}, testNow)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReadings(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows(readingCols).
		AddRow(2, 1, testNow, 140.0, "fasting", "after walk").
		AddRow(1, 1, testNow.Add(-time.Hour), 95.0, "random", nil)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE patient_id = $1 ORDER BY taken_at DESC`)).
		WithArgs(int64(1)).WillReturnRows(rows)

	readings, err := s.ListReadings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, models.ContextFasting, readings[0].Context)
	require.NotNil(t, readings[0].Notes)
	assert.Equal(t, "after walk", *readings[0].Notes)
	assert.Nil(t, readings[1].Notes)
}

func TestListAllReadings_OldestFirst(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM readings ORDER BY taken_at ASC`)).
		WillReturnRows(sqlmock.NewRows(readingCols).AddRow(1, 1, testNow, 95.0, "random", nil))

	readings, err := s.ListAllReadings(context.Background())
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}

func TestTrend(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY day`)).
		WillReturnRows(sqlmock.NewRows([]string{"day", "avg", "count"}).
			AddRow(time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC), 90.0, 3).
			AddRow(time.Date(2025, 2, 23, 0, 0, 0, 0, time.UTC), 95.0, 3))

	points, err := s.Trend(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2025-02-22", points[0].Day.String())
	assert.Equal(t, 95.0, points[1].AvgMgdl)
	assert.Equal(t, 3, points[1].Count)
}

// ==========================
// Summary Tests
// ==========================

func TestSummary(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM patients`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`DISTINCT ON (patient_id)`)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(120.0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM alerts`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalPatients)
	require.NotNil(t, sum.AvgGlucose)
	assert.Equal(t, 120.0, *sum.AvgGlucose)
	assert.Equal(t, 2, sum.TotalAlerts)
}

func TestSummary_NoReadings(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM patients`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`DISTINCT ON (patient_id)`)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM alerts`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sum.AvgGlucose)
}

func TestListAlerts(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM alerts`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "created_at", "severity", "type", "message"}).
			AddRow(1, 2, testNow, "high", "blood_pressure", "Blood pressure higher than normal."))

	alerts, err := s.ListAlerts(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
}

// ==========================
// Vitals & Medication Tests
// ==========================

func TestVitals(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO heart_rates`)).
		WithArgs(int64(1), 72, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM heart_rates`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "bpm", "recorded_at"}).AddRow(1, 1, 72, testNow))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO blood_pressures`)).
		WithArgs(int64(1), 120, 80, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM blood_pressures`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "systolic", "diastolic", "recorded_at"}).AddRow(1, 1, 120, 80, testNow))

	ctx := context.Background()
	hr, err := s.AddHeartRate(ctx, 1, models.HeartRateCreate{BPM: 72}, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hr.ID)

	hrs, err := s.ListHeartRates(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, hrs, 1)

	bp, err := s.AddBloodPressure(ctx, 1, models.BloodPressureCreate{Systolic: 120, Diastolic: 80}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 80, bp.Diastolic)

	bps, err := s.ListBloodPressures(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, bps, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedications(t *testing.T) {
	s, mock := newMockStore(t)
	dosage := "500mg"
	refill := models.NewDate(2025, time.April, 30)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO medications`)).
		WithArgs(int64(1), "Metformin", "500mg", nil, refill.Time, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM medications WHERE patient_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "name", "dosage", "frequency", "next_refill", "notes"}).
			AddRow(5, 1, "Metformin", "500mg", nil, refill.Time, nil))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM medications WHERE id = $1`)).
		WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM medications WHERE id = $1`)).
		WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	m, err := s.AddMedication(ctx, 1, models.MedicationCreate{Name: "Metformin", Dosage: &dosage, NextRefill: &refill})
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.ID)

	meds, err := s.ListMedications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	require.NotNil(t, meds[0].NextRefill)
	assert.Equal(t, "2025-04-30", meds[0].NextRefill.String())

	assert.NoError(t, s.DeleteMedication(ctx, 5))
	assert.ErrorIs(t, s.DeleteMedication(ctx, 5), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Migrate & Seed Tests
// ==========================

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS patients`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM alerts`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM readings`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM patients`)).WillReturnResult(sqlmock.NewResult(0, 0))
	for i, name := range []string{"Ama Mensah", "Kwame Asare", "Akua Baah"} {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO patients`)).
			WithArgs(name, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}
	base := testNow.AddDate(0, 0, -7)
	for id := 1; id <= 3; id++ {
		for i := 0; i < 7; i++ {
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO readings`)).
				WithArgs(int64(id), base.AddDate(0, 0, i), float64(90+i*5), models.ContextRandom, seedNote).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
	}
	mock.ExpectQuery(insertAlerts).
		WithArgs(int64(1), testNow, models.SeverityMedium, "glucose", "Glucose slightly above target range.").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(insertAlerts).
		WithArgs(int64(2), testNow, models.SeverityHigh, "blood_pressure", "Blood pressure higher than normal.").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	patients, err := s.Seed(context.Background(), testNow)
	require.NoError(t, err)
	require.Len(t, patients, 3)
	assert.Equal(t, "Kwame Asare", patients[1].Name)
	assert.Equal(t, models.DiabetesTypeT1D, patients[1].DiabetesType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientCreate_ToPatientDefaults(t *testing.T) {
	p := PatientCreate{Name: "Ama Mensah"}.ToPatient()

	assert.Equal(t, DiabetesTypeT2D, p.DiabetesType)
	require.NotNil(t, p.Target)
	assert.Equal(t, DefaultTargets(), *p.Target)
}

func TestPatientCreate_ToPatientKeepsValues(t *testing.T) {
	custom := Targets{
		Fasting:  TargetRange{Min: 70, Max: 120},
		PostMeal: TargetRange{Min: 70, Max: 160},
		Random:   TargetRange{Min: 70, Max: 170},
	}
	p := PatientCreate{Name: "Kwame Asare", DiabetesType: DiabetesTypeT1D, Target: &custom}.ToPatient()

	assert.Equal(t, DiabetesTypeT1D, p.DiabetesType)
	assert.Equal(t, custom, *p.Target)
}

func TestTargets_ForContext(t *testing.T) {
	targets := DefaultTargets()

	tests := []struct {
		ctx  ReadingContext
		want TargetRange
	}{
		{ContextFasting, TargetRange{Min: 80, Max: 130}},
		{ContextPostMeal, TargetRange{Min: 80, Max: 180}},
		{ContextRandom, TargetRange{Min: 80, Max: 180}},
		{ContextPreMeal, TargetRange{Min: 80, Max: 180}},
		{"", TargetRange{Min: 80, Max: 180}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ctx), func(t *testing.T) {
			assert.Equal(t, tt.want, targets.ForContext(tt.ctx))
		})
	}
}

func TestTargetRange_ContainsIsInclusive(t *testing.T) {
	r := TargetRange{Min: 80, Max: 130}
	assert.True(t, r.Contains(80))
	assert.True(t, r.Contains(130))
	assert.False(t, r.Contains(79.9))
	assert.False(t, r.Contains(130.1))
}

func TestReadingCreate_ToReading(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 30, 0, 0, time.FixedZone("GMT+1", 3600))
	r := ReadingCreate{PatientID: 3, ValueMgdl: 142}.ToReading(now)

	assert.Equal(t, ContextRandom, r.Context)
	assert.Equal(t, int64(3), r.PatientID)
	assert.Equal(t, time.UTC, r.Timestamp.Location())
	assert.True(t, now.Equal(r.Timestamp))
}

func TestDate_JSON(t *testing.T) {
	var m MedicationCreate
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Metformin","next_refill":"2025-04-30"}`), &m))
	require.NotNil(t, m.NextRefill)
	assert.Equal(t, "2025-04-30", m.NextRefill.String())

	b, err := json.Marshal(Patient{Name: "Akua Baah", DateOfBirth: &Date{time.Date(1975, 12, 3, 0, 0, 0, 0, time.UTC)}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"date_of_birth":"1975-12-03"`)

	assert.Error(t, json.Unmarshal([]byte(`{"name":"x","next_refill":"30/04/2025"}`), &m))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(1984, 5, 22, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1984-05-22", d.String())

	require.NoError(t, d.Scan("1992-08-14T00:00:00Z"))
	assert.Equal(t, "1992-08-14", d.String())

	assert.Error(t, d.Scan(42))
}

func TestTargets_Scan(t *testing.T) {
	var tg Targets
	require.NoError(t, tg.Scan([]byte(`{"fasting":{"min":70,"max":120},"post_meal":{"min":70,"max":160},"random":{"min":70,"max":170}}`)))
	assert.Equal(t, 120.0, tg.Fasting.Max)

	var m JSONMap
	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
	require.NoError(t, m.Scan(`{"phone":"+233200000000"}`))
	assert.Equal(t, "+233200000000", m["phone"])
}

func TestPatient_EmergencyContact(t *testing.T) {
	p := Patient{Emergency: map[string]interface{}{"phone": "+233200000000", "email": 7}}
	assert.Equal(t, "+233200000000", p.EmergencyContact("phone"))
	assert.Equal(t, "", p.EmergencyContact("email"))
	assert.Equal(t, "", Patient{}.EmergencyContact("phone"))
}

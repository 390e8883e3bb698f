package rules

import (
	"testing"
	"time"

	"careplus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func reading(v float64, ctx models.ReadingContext) models.Reading {
	return models.Reading{PatientID: 1, ValueMgdl: v, Context: ctx}
}

func TestEvaluateReading_DefaultTargets(t *testing.T) {
	patient := models.Patient{ID: 1, Name: "Ama Mensah"}

	tests := []struct {
		name         string
		value        float64
		ctx          models.ReadingContext
		wantSeverity models.Severity
		wantMessage  string
	}{
		{"fasting in range", 110, models.ContextFasting, "", ""},
		{"fasting upper bound", 130, models.ContextFasting, "", ""},
		{"fasting above", 140, models.ContextFasting, models.SeverityMedium, "Out-of-range glucose 140.0 mg/dL"},
		{"post meal in range", 170, models.ContextPostMeal, "", ""},
		{"pre meal uses random range", 175, models.ContextPreMeal, "", ""},
		{"empty context uses random range", 79, "", models.SeverityMedium, "Out-of-range glucose 79.0 mg/dL"},
		{"lower bound in range", 80, models.ContextRandom, "", ""},
		{"severe low", 50, models.ContextRandom, models.SeverityHigh, "Dangerous glucose 50.0 mg/dL"},
		{"54 is not severe", 54, models.ContextRandom, models.SeverityMedium, "Out-of-range glucose 54.0 mg/dL"},
		{"300 is not severe", 300, models.ContextRandom, models.SeverityMedium, "Out-of-range glucose 300.0 mg/dL"},
		{"severe high", 320.5, models.ContextRandom, models.SeverityHigh, "Dangerous glucose 320.5 mg/dL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := EvaluateReading(patient, reading(tt.value, tt.ctx), now)
			if tt.wantSeverity == "" {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			a := alerts[0]
			assert.Equal(t, tt.wantSeverity, a.Severity)
			assert.Equal(t, tt.wantMessage, a.Message)
			assert.Equal(t, AlertTypeReadingRange, a.Type)
			assert.Equal(t, int64(1), a.PatientID)
			assert.Equal(t, now, a.Timestamp)
		})
	}
}

func TestEvaluateReading_CustomTargets(t *testing.T) {
	patient := models.Patient{
		ID: 2,
		Target: &models.Targets{
			Fasting:  models.TargetRange{Min: 70, Max: 100},
			PostMeal: models.TargetRange{Min: 70, Max: 140},
			Random:   models.TargetRange{Min: 70, Max: 150},
		},
	}

	assert.Empty(t, EvaluateReading(patient, reading(75, models.ContextFasting), now))
	alerts := EvaluateReading(patient, reading(105, models.ContextFasting), now)
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(2), alerts[0].PatientID)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
}

func TestIsSevere(t *testing.T) {
	assert.True(t, IsSevere(53.9))
	assert.False(t, IsSevere(54))
	assert.False(t, IsSevere(300))
	assert.True(t, IsSevere(300.1))
}

func TestFormatMgdl(t *testing.T) {
	tests := map[float64]string{
		250:    "250.0",
		0:      "0.0",
		99.5:   "99.5",
		120.25: "120.25",
	}
	for v, want := range tests {
		assert.Equal(t, want, formatMgdl(v))
	}
}

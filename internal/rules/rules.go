// Package rules holds the glucose alert rules applied to every new reading.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"careplus/internal/models"
)

const (
	AlertTypeReadingRange = "reading_range"

	// Readings outside [SevereLowMgdl, SevereHighMgdl] raise high-severity alerts.
	SevereLowMgdl  = 54
	SevereHighMgdl = 300
)

// EvaluateReading returns the alerts a reading raises for patient. A reading
// inside the patient's target range for its context raises none.
func EvaluateReading(patient models.Patient, reading models.Reading, now time.Time) []models.Alert {
	targets := models.DefaultTargets()
	if patient.Target != nil {
		targets = *patient.Target
	}

	ctx := reading.Context
	if ctx == "" {
		ctx = models.ContextRandom
	}

	v := reading.ValueMgdl
	if targets.ForContext(ctx).Contains(v) {
		return nil
	}

	alert := models.Alert{
		PatientID: patient.ID,
		Timestamp: now.UTC(),
		Type:      AlertTypeReadingRange,
	}
	if IsSevere(v) {
		alert.Severity = models.SeverityHigh
		alert.Message = fmt.Sprintf("Dangerous glucose %s mg/dL", formatMgdl(v))
	} else {
		alert.Severity = models.SeverityMedium
		alert.Message = fmt.Sprintf("Out-of-range glucose %s mg/dL", formatMgdl(v))
	}
	return []models.Alert{alert}
}

func IsSevere(v float64) bool {
	return v < SevereLowMgdl || v > SevereHighMgdl
}

// formatMgdl always keeps one decimal so 250 reads as "250.0".
func formatMgdl(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

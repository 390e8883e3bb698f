// internal/models/reading.go
package models

import "time"

type ReadingContext string

const (
	ContextFasting  ReadingContext = "fasting"
	ContextPreMeal  ReadingContext = "pre_meal"
	ContextPostMeal ReadingContext = "post_meal"
	ContextRandom   ReadingContext = "random"
)

// Glucose bounds accepted for a reading, in mg/dL.
const (
	MinReadingMgdl = 30
	MaxReadingMgdl = 600
)

type Reading struct {
	ID        int64          `json:"id"`
	PatientID int64          `json:"patient_id"`
	Timestamp time.Time      `json:"timestamp"`
	ValueMgdl float64        `json:"value_mgdl"`
	Context   ReadingContext `json:"context"`
	Notes     *string        `json:"notes"`
}

type ReadingCreate struct {
	PatientID int64          `json:"patient_id"`
	ValueMgdl float64        `json:"value_mgdl"`
	Context   ReadingContext `json:"context,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

// ToReading stamps the reading with now and the default context.
func (c ReadingCreate) ToReading(now time.Time) Reading {
	ctx := c.Context
	if ctx == "" {
		ctx = ContextRandom
	}
	return Reading{
		PatientID: c.PatientID,
		Timestamp: now.UTC(),
		ValueMgdl: c.ValueMgdl,
		Context:   ctx,
		Notes:     c.Notes,
	}
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Alert struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
}

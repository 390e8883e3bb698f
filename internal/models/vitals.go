// internal/models/vitals.go
package models

import "time"

type HeartRate struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	BPM       int       `json:"bpm"`
	Timestamp time.Time `json:"timestamp"`
}

type HeartRateCreate struct {
	BPM int `json:"bpm"`
}

type BloodPressure struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	Systolic  int       `json:"systolic"`
	Diastolic int       `json:"diastolic"`
	Timestamp time.Time `json:"timestamp"`
}

type BloodPressureCreate struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

type Medication struct {
	ID         int64   `json:"id"`
	PatientID  int64   `json:"patient_id"`
	Name       string  `json:"name"`
	Dosage     *string `json:"dosage"`
	Frequency  *string `json:"frequency"`
	NextRefill *Date   `json:"next_refill"`
	Notes      *string `json:"notes"`
}

type MedicationCreate struct {
	Name       string  `json:"name"`
	Dosage     *string `json:"dosage,omitempty"`
	Frequency  *string `json:"frequency,omitempty"`
	NextRefill *Date   `json:"next_refill,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

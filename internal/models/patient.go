// internal/models/patient.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type DiabetesType string

const (
	DiabetesTypeT1D DiabetesType = "T1D"
	DiabetesTypeT2D DiabetesType = "T2D"
)

type Patient struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	DiabetesType  DiabetesType           `json:"diabetes_type"`
	DateOfBirth   *Date                  `json:"date_of_birth"`
	BloodPressure *string                `json:"blood_pressure"` // e.g. "120/80 mmHg"
	HeartRate     *int                   `json:"heart_rate"`     // beats per minute
	Weight        *float64               `json:"weight"`         // kg
	Target        *Targets               `json:"target"`
	Emergency     map[string]interface{} `json:"emergency"`
}

// PatientCreate is the payload for creating or fully replacing a patient.
type PatientCreate struct {
	Name          string                 `json:"name"`
	DiabetesType  DiabetesType           `json:"diabetes_type,omitempty"`
	DateOfBirth   *Date                  `json:"date_of_birth,omitempty"`
	BloodPressure *string                `json:"blood_pressure,omitempty"`
	HeartRate     *int                   `json:"heart_rate,omitempty"`
	Weight        *float64               `json:"weight,omitempty"`
	Target        *Targets               `json:"target,omitempty"`
	Emergency     map[string]interface{} `json:"emergency,omitempty"`
}

// ToPatient applies the column defaults of a freshly created patient.
func (c PatientCreate) ToPatient() Patient {
	p := Patient{
		Name:          c.Name,
		DiabetesType:  c.DiabetesType,
		DateOfBirth:   c.DateOfBirth,
		BloodPressure: c.BloodPressure,
		HeartRate:     c.HeartRate,
		Weight:        c.Weight,
		Target:        c.Target,
		Emergency:     c.Emergency,
	}
	if p.DiabetesType == "" {
		p.DiabetesType = DiabetesTypeT2D
	}
	if p.Target == nil {
		t := DefaultTargets()
		p.Target = &t
	}
	return p
}

// EmergencyContact returns a string field of the emergency map, if set.
func (p Patient) EmergencyContact(key string) string {
	if p.Emergency == nil {
		return ""
	}
	s, _ := p.Emergency[key].(string)
	return s
}

type TargetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r TargetRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type Targets struct {
	Fasting  TargetRange `json:"fasting"`
	PostMeal TargetRange `json:"post_meal"`
	Random   TargetRange `json:"random"`
}

func DefaultTargets() Targets {
	return Targets{
		Fasting:  TargetRange{Min: 80, Max: 130},
		PostMeal: TargetRange{Min: 80, Max: 180},
		Random:   TargetRange{Min: 80, Max: 180},
	}
}

// ForContext picks the range for a reading context. Contexts without a
// dedicated range use the random range.
func (t Targets) ForContext(ctx ReadingContext) TargetRange {
	switch ctx {
	case ContextFasting:
		return t.Fasting
	case ContextPostMeal:
		return t.PostMeal
	default:
		return t.Random
	}
}

// Value stores targets as JSONB.
func (t Targets) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *Targets) Scan(src interface{}) error {
	return scanJSON(src, t)
}

// JSONMap is a nullable JSONB object column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	return scanJSON(src, m)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

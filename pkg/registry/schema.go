package registry

// SchemaRegistry lists the request payload schemas the API accepts.
type SchemaRegistry struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Schemas     []SchemaDefinition `json:"schemas"`
}

type SchemaDefinition struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
}

// Schema identifiers.
const (
	PatientCreate       = "patient.create"
	ReadingCreate       = "reading.create"
	HeartRateCreate     = "heartrate.create"
	BloodPressureCreate = "bloodpressure.create"
	MedicationCreate    = "medication.create"
)

// internal/models/dashboard.go
package models

// Summary backs the three dashboard cards.
type Summary struct {
	TotalPatients int      `json:"total_patients"`
	AvgGlucose    *float64 `json:"avg_glucose"`
	TotalAlerts   int      `json:"total_alerts"`
}

// TrendPoint is the average of all readings taken on one day.
type TrendPoint struct {
	Day     Date    `json:"day"`
	AvgMgdl float64 `json:"avg_mgdl"`
	Count   int     `json:"count"`
}

// Message is the body of informational responses.
type Message struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Package dashboard builds the Care+ overview page from the API, using the
// fail-soft client for every read.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	apihttp "careplus/internal/common/http"
	"careplus/internal/common/logger"
	"careplus/internal/models"
)

// NoValue is shown on a card that has nothing to average.
const NoValue = "–"

// maxFetches bounds the per-patient requests in flight.
const maxFetches = 8

// PatientRow is one entry of the patient list.
type PatientRow struct {
	ID            int64
	Name          string
	DiabetesType  models.DiabetesType
	LatestMgdl    *float64
	LatestContext models.ReadingContext
	Alerts        int
}

// Latest formats the most recent reading for display.
func (p PatientRow) Latest() string {
	if p.LatestMgdl == nil {
		return NoValue
	}
	return fmt.Sprintf("%.1f", *p.LatestMgdl)
}

// View holds everything the page template needs.
type View struct {
	TotalPatients int
	AvgGlucose    string
	TotalAlerts   int
	Patients      []PatientRow
	Trend         []models.TrendPoint
	Query         string
	Banners       []string
}

// Filter returns the rows whose name contains name, ignoring case. An empty
// name keeps every row.
func (v *View) Filter(name string) []PatientRow {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return v.Patients
	}
	out := make([]PatientRow, 0, len(v.Patients))
	for _, p := range v.Patients {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

type Dashboard struct {
	client *apihttp.Client
	logger logger.Logger
}

// New returns a dashboard reading through client.
func New(client *apihttp.Client, log logger.Logger) *Dashboard {
	return &Dashboard{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "dashboard"}),
	}
}

func (d *Dashboard) Client() *apihttp.Client {
	return d.client
}

// Load fetches patients, their latest readings and alerts, and the system
// trend. Backend errors leave the affected part empty and are returned as
// View.Banners of this load only; transport and decode errors abort the load.
func (d *Dashboard) Load(ctx context.Context) (*View, error) {
	alerts := &apihttp.RecordingAlerter{}
	client := d.client.Clone(apihttp.WithAlerter(alerts))

	patients, err := fetch[[]models.Patient](ctx, client, "/patients")
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	trend, err := fetch[[]models.TrendPoint](ctx, client, "/dashboard/trend")
	if err != nil {
		return nil, fmt.Errorf("load trend: %w", err)
	}

	rows, err := loadRows(ctx, client, patients)
	if err != nil {
		return nil, err
	}

	view := &View{
		TotalPatients: len(patients),
		AvgGlucose:    NoValue,
		Patients:      rows,
		Trend:         trend,
	}

	var sum float64
	var n int
	for _, r := range rows {
		view.TotalAlerts += r.Alerts
		if r.LatestMgdl != nil {
			sum += *r.LatestMgdl
			n++
		}
	}
	if n > 0 {
		view.AvgGlucose = fmt.Sprintf("%.1f", sum/float64(n))
	}

	view.Banners = alerts.Drain()

	d.logger.Debug("dashboard loaded", map[string]interface{}{
		"patients": view.TotalPatients,
		"alerts":   view.TotalAlerts,
		"trend":    len(trend),
	})
	return view, nil
}

func loadRows(ctx context.Context, client *apihttp.Client, patients []models.Patient) ([]PatientRow, error) {
	rows := make([]PatientRow, len(patients))
	errs := make([]error, len(patients))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxFetches)
	for i, p := range patients {
		wg.Add(1)
		go func(i int, p models.Patient) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rows[i], errs[i] = loadRow(ctx, client, p)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func loadRow(ctx context.Context, client *apihttp.Client, p models.Patient) (PatientRow, error) {
	row := PatientRow{ID: p.ID, Name: p.Name, DiabetesType: p.DiabetesType}

	readings, err := fetch[[]models.Reading](ctx, client, fmt.Sprintf("/patients/%d/readings", p.ID))
	if err != nil {
		return row, fmt.Errorf("load readings for patient %d: %w", p.ID, err)
	}
	alerts, err := fetch[[]models.Alert](ctx, client, fmt.Sprintf("/patients/%d/alerts", p.ID))
	if err != nil {
		return row, fmt.Errorf("load alerts for patient %d: %w", p.ID, err)
	}

	if latest, ok := latestReading(readings); ok {
		v := latest.ValueMgdl
		row.LatestMgdl = &v
		row.LatestContext = latest.Context
	}
	row.Alerts = len(alerts)
	return row, nil
}

func latestReading(readings []models.Reading) (models.Reading, bool) {
	if len(readings) == 0 {
		return models.Reading{}, false
	}
	sorted := append([]models.Reading(nil), readings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted[0], true
}

// fetch issues a fail-soft GET and converts the decoded body into T.
func fetch[T any](ctx context.Context, c *apihttp.Client, path string) (T, error) {
	raw, err := c.Request(ctx, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return apihttp.As[T](raw)
}

// Package api serves the Care+ REST API consumed by the dashboard.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"careplus/internal/cache"
	"careplus/internal/common/config"
	apperrors "careplus/internal/common/errors"
	"careplus/internal/common/logger"
	"careplus/internal/common/observability"
	"careplus/internal/common/validation"
	"careplus/internal/models"
	"careplus/internal/notify"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Store is the persistence the API needs; *store.Store implements it.
type Store interface {
	CreatePatient(ctx context.Context, in models.PatientCreate) (models.Patient, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	SearchPatients(ctx context.Context, q string) ([]models.Patient, error)
	GetPatient(ctx context.Context, id int64) (models.Patient, error)
	UpdatePatient(ctx context.Context, id int64, in models.PatientCreate) (models.Patient, error)
	DeletePatient(ctx context.Context, id int64) error

	AddReading(ctx context.Context, in models.ReadingCreate, now time.Time) (models.Reading, []models.Alert, error)
	ListReadings(ctx context.Context, patientID int64) ([]models.Reading, error)
	ListAlerts(ctx context.Context, patientID int64) ([]models.Alert, error)
	Trend(ctx context.Context) ([]models.TrendPoint, error)
	Summary(ctx context.Context) (models.Summary, error)

	ListHeartRates(ctx context.Context, patientID int64) ([]models.HeartRate, error)
	AddHeartRate(ctx context.Context, patientID int64, in models.HeartRateCreate, now time.Time) (models.HeartRate, error)
	ListBloodPressures(ctx context.Context, patientID int64) ([]models.BloodPressure, error)
	AddBloodPressure(ctx context.Context, patientID int64, in models.BloodPressureCreate, now time.Time) (models.BloodPressure, error)
	ListMedications(ctx context.Context, patientID int64) ([]models.Medication, error)
	AddMedication(ctx context.Context, patientID int64, in models.MedicationCreate) (models.Medication, error)
	DeleteMedication(ctx context.Context, id int64) error
}

// Searcher is the optional patient-name index; *search.Index implements it.
type Searcher interface {
	Search(ctx context.Context, q string) ([]models.Patient, error)
	Put(ctx context.Context, p models.Patient) error
	Remove(ctx context.Context, id int64) error
}

type AlertNotifier interface {
	NotifyAlert(ctx context.Context, patient models.Patient, alert models.Alert) (*notify.Result, error)
}

type Server struct {
	config    config.ServerConfig
	store     Store
	validator *validation.Validator
	search    Searcher
	cache     *cache.SummaryCache
	notifier  AlertNotifier
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Server)

func WithSearch(s Searcher) Option { return func(srv *Server) { srv.search = s } }

func WithCache(c *cache.SummaryCache) Option { return func(srv *Server) { srv.cache = c } }

func WithNotifier(n AlertNotifier) Option { return func(srv *Server) { srv.notifier = n } }

func WithObservability(o *observability.Observability) Option {
	return func(srv *Server) { srv.obs = o }
}

// WithClock overrides time.Now for stored timestamps.
func WithClock(now func() time.Time) Option { return func(srv *Server) { srv.now = now } }

func NewServer(cfg config.ServerConfig, st Store, v *validation.Validator, log logger.Logger, opts ...Option) *Server {
	log = log.WithFields(map[string]interface{}{"component": "api"})
	s := &Server{
		config:    cfg,
		store:     st,
		validator: v,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API handler with CORS applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /health", s.health)
	s.handle(mux, "GET /{$}", s.root)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handle(mux, "POST /patients", s.createPatient)
	s.handle(mux, "GET /patients", s.listPatients)
	s.handle(mux, "GET /patients/search", s.searchPatients)
	s.handle(mux, "GET /patients/{id}", s.getPatient)
	s.handle(mux, "PUT /patients/{id}", s.updatePatient)
	s.handle(mux, "DELETE /patients/{id}", s.deletePatient)

	s.handle(mux, "POST /readings", s.addReading)
	s.handle(mux, "GET /patients/{id}/readings", s.listReadings)
	s.handle(mux, "GET /patients/{id}/alerts", s.listAlerts)

	s.handle(mux, "GET /patients/{id}/heartrate", s.listHeartRates)
	s.handle(mux, "POST /patients/{id}/heartrate", s.addHeartRate)
	s.handle(mux, "GET /patients/{id}/bloodpressure", s.listBloodPressures)
	s.handle(mux, "POST /patients/{id}/bloodpressure", s.addBloodPressure)
	s.handle(mux, "GET /patients/{id}/medications", s.listMedications)
	s.handle(mux, "POST /patients/{id}/medications", s.addMedication)
	s.handle(mux, "DELETE /medications/{id}", s.deleteMedication)

	s.handle(mux, "GET /dashboard/summary", s.dashboardSummary)
	s.handle(mux, "GET /dashboard/trend", s.dashboardTrend)

	return s.cors(mux)
}

func (s *Server) health(_ *http.Request) (any, error) {
	return models.Message{Status: "ok"}, nil
}

func (s *Server) root(_ *http.Request) (any, error) {
	return models.Message{Message: "Care+ API running."}, nil
}

// cors answers preflight requests and stamps the allow headers.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			if origin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	for _, o := range s.config.AllowedOrigins {
		if o == "*" {
			return "*"
		}
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

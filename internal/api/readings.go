package api

import (
	"net/http"

	apperrors "careplus/internal/common/errors"
	"careplus/internal/common/metrics"
	"careplus/internal/models"
	"careplus/pkg/registry"
)

// addReading stores the reading and the alerts it raises. High-severity
// alerts are passed to the notifier; delivery failures do not fail the
// request.
func (s *Server) addReading(r *http.Request) (any, error) {
	var in models.ReadingCreate
	if err := s.decodeBody(r, registry.ReadingCreate, &in); err != nil {
		return nil, err
	}

	ctx := r.Context()
	reading, alerts, err := s.store.AddReading(ctx, in, s.now())
	if err != nil {
		return nil, storeError("add reading", err, patientNotFound(in.PatientID))
	}
	s.cache.Invalidate(ctx)

	for _, a := range alerts {
		metrics.AlertsGenerated.WithLabelValues(string(a.Severity)).Inc()
		s.logger.Info("glucose alert raised", map[string]interface{}{
			"patientId": a.PatientID,
			"severity":  string(a.Severity),
			"message":   a.Message,
		})
	}
	s.dispatchAlerts(r, alerts)

	return reading, nil
}

func (s *Server) dispatchAlerts(r *http.Request, alerts []models.Alert) {
	if s.notifier == nil || len(alerts) == 0 {
		return
	}
	ctx := r.Context()

	var patient *models.Patient
	for _, a := range alerts {
		if a.Severity != models.SeverityHigh {
			continue
		}
		if patient == nil {
			p, err := s.store.GetPatient(ctx, a.PatientID)
			if err != nil {
				s.logger.Warn("cannot load patient for alert notification", map[string]interface{}{
					"error":     err,
					"patientId": a.PatientID,
				})
				return
			}
			patient = &p
		}
		if _, err := s.notifier.NotifyAlert(ctx, *patient, a); err != nil {
			stdErr := apperrors.NewNotificationSendFailedError("alert", err)
			s.logger.Error("alert notification failed", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
				"patientId": a.PatientID,
			})
		}
	}
}

func (s *Server) listReadings(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	readings, err := s.store.ListReadings(r.Context(), id)
	if err != nil {
		return nil, storeError("list readings", err, nil)
	}
	return readings, nil
}

func (s *Server) listAlerts(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	alerts, err := s.store.ListAlerts(r.Context(), id)
	if err != nil {
		return nil, storeError("list alerts", err, nil)
	}
	return alerts, nil
}

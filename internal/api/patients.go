package api

import (
	"net/http"
	"strings"

	apperrors "careplus/internal/common/errors"
	"careplus/internal/models"
	"careplus/pkg/registry"
)

func patientNotFound(id int64) func() *apperrors.StandardError {
	return func() *apperrors.StandardError { return apperrors.NewPatientNotFoundError(id) }
}

func (s *Server) createPatient(r *http.Request) (any, error) {
	var in models.PatientCreate
	if err := s.decodeBody(r, registry.PatientCreate, &in); err != nil {
		return nil, err
	}

	p, err := s.store.CreatePatient(r.Context(), in)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError("create patient", err)
	}
	s.indexPatient(r, p)
	s.cache.Invalidate(r.Context())

	s.logger.Info("patient created", map[string]interface{}{"patientId": p.ID})
	return p, nil
}

func (s *Server) listPatients(r *http.Request) (any, error) {
	patients, err := s.store.ListPatients(r.Context())
	if err != nil {
		return nil, storeError("list patients", err, nil)
	}
	return patients, nil
}

// searchPatients prefers the search index and falls back to a name scan in
// Postgres when the index is absent or failing.
func (s *Server) searchPatients(r *http.Request) (any, error) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		return s.listPatients(r)
	}

	if s.search != nil {
		patients, err := s.search.Search(r.Context(), q)
		if err == nil {
			return patients, nil
		}
		stdErr := apperrors.NewSearchQueryFailedError(q, err)
		s.logger.Warn("patient search failed, falling back to database", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
			"query":     q,
		})
	}

	patients, err := s.store.SearchPatients(r.Context(), q)
	if err != nil {
		return nil, storeError("search patients", err, nil)
	}
	return patients, nil
}

func (s *Server) getPatient(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetPatient(r.Context(), id)
	if err != nil {
		return nil, storeError("get patient", err, patientNotFound(id))
	}
	return p, nil
}

func (s *Server) updatePatient(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	var in models.PatientCreate
	if err := s.decodeBody(r, registry.PatientCreate, &in); err != nil {
		return nil, err
	}

	p, err := s.store.UpdatePatient(r.Context(), id, in)
	if err != nil {
		return nil, storeError("update patient", err, patientNotFound(id))
	}
	s.indexPatient(r, p)
	s.cache.Invalidate(r.Context())
	return p, nil
}

func (s *Server) deletePatient(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeletePatient(r.Context(), id); err != nil {
		return nil, storeError("delete patient", err, patientNotFound(id))
	}

	if s.search != nil {
		if err := s.search.Remove(r.Context(), id); err != nil {
			s.logger.Warn("failed to remove patient from search index", map[string]interface{}{
				"error":     err,
				"patientId": id,
			})
		}
	}
	s.cache.Invalidate(r.Context())

	s.logger.Info("patient deleted", map[string]interface{}{"patientId": id})
	return models.Message{Detail: "Patient deleted"}, nil
}

func (s *Server) indexPatient(r *http.Request, p models.Patient) {
	if s.search == nil {
		return
	}
	if err := s.search.Put(r.Context(), p); err != nil {
		s.logger.Warn("failed to index patient", map[string]interface{}{
			"error":     err,
			"patientId": p.ID,
		})
	}
}

// requirePatient loads the patient behind the {id} wildcard.
func (s *Server) requirePatient(r *http.Request) (models.Patient, error) {
	id, err := pathID(r)
	if err != nil {
		return models.Patient{}, err
	}
	p, err := s.store.GetPatient(r.Context(), id)
	if err != nil {
		return models.Patient{}, storeError("get patient", err, patientNotFound(id))
	}
	return p, nil
}

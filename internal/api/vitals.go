package api

import (
	"net/http"

	apperrors "careplus/internal/common/errors"
	"careplus/internal/models"
	"careplus/pkg/registry"
)

func (s *Server) listHeartRates(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListHeartRates(r.Context(), id)
	if err != nil {
		return nil, storeError("list heart rates", err, nil)
	}
	return out, nil
}

func (s *Server) addHeartRate(r *http.Request) (any, error) {
	p, err := s.requirePatient(r)
	if err != nil {
		return nil, err
	}
	var in models.HeartRateCreate
	if err := s.decodeBody(r, registry.HeartRateCreate, &in); err != nil {
		return nil, err
	}
	hr, err := s.store.AddHeartRate(r.Context(), p.ID, in, s.now())
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError("add heart rate", err)
	}
	return hr, nil
}

func (s *Server) listBloodPressures(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListBloodPressures(r.Context(), id)
	if err != nil {
		return nil, storeError("list blood pressures", err, nil)
	}
	return out, nil
}

func (s *Server) addBloodPressure(r *http.Request) (any, error) {
	p, err := s.requirePatient(r)
	if err != nil {
		return nil, err
	}
	var in models.BloodPressureCreate
	if err := s.decodeBody(r, registry.BloodPressureCreate, &in); err != nil {
		return nil, err
	}
	bp, err := s.store.AddBloodPressure(r.Context(), p.ID, in, s.now())
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError("add blood pressure", err)
	}
	return bp, nil
}

func (s *Server) listMedications(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListMedications(r.Context(), id)
	if err != nil {
		return nil, storeError("list medications", err, nil)
	}
	return out, nil
}

func (s *Server) addMedication(r *http.Request) (any, error) {
	p, err := s.requirePatient(r)
	if err != nil {
		return nil, err
	}
	var in models.MedicationCreate
	if err := s.decodeBody(r, registry.MedicationCreate, &in); err != nil {
		return nil, err
	}
	m, err := s.store.AddMedication(r.Context(), p.ID, in)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError("add medication", err)
	}
	return m, nil
}

func (s *Server) deleteMedication(r *http.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteMedication(r.Context(), id); err != nil {
		return nil, storeError("delete medication", err, func() *apperrors.StandardError {
			return apperrors.NewMedicationNotFoundError(id)
		})
	}
	return models.Message{Detail: "Medication deleted"}, nil
}

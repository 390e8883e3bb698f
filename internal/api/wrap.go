package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "careplus/internal/common/errors"
	"careplus/internal/common/metrics"
	"careplus/internal/store"

	"github.com/google/uuid"
)

// Handler returns the value to encode as the 200 response, or an error for
// the error handler.
type Handler func(r *http.Request) (any, error)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h Handler) {
	method, route, _ := strings.Cut(pattern, " ")
	mux.HandleFunc(pattern, s.wrap(method, route, h))
}

func (s *Server) wrap(method, route string, h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		rec.Header().Set("X-Request-ID", requestID)

		data, err := h(r)
		if err != nil {
			s.errors.HandleHTTPError(rec, r, err)
		} else {
			rec.Header().Set("Content-Type", "application/json")
			rec.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(rec).Encode(data)
		}

		elapsed := time.Since(start)
		metrics.APIRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
		if s.obs != nil {
			s.obs.RecordRequest(r.Context(), route, rec.status, elapsed)
		}
		s.logger.Debug("request handled", map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    rec.status,
			"requestId": requestID,
			"duration":  elapsed.String(),
		})
	}
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationFailedError(fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// decodeBody validates the body against schemaID, then decodes it into dst.
func (s *Server) decodeBody(r *http.Request, schemaID string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apperrors.NewValidationFailedError("unreadable request body")
	}
	if len(body) > maxBodyBytes {
		return apperrors.NewValidationFailedError("request body too large")
	}
	if err := s.validator.Validate(schemaID, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewValidationFailedError(err.Error())
	}
	return nil
}

// storeError classifies store failures. notFound builds the error used for
// store.ErrNotFound.
func storeError(op string, err error, notFound func() *apperrors.StandardError) error {
	if stderrors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound()
	}
	return apperrors.NewDatabaseQueryFailedError(op, err)
}

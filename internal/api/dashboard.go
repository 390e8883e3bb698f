package api

import (
	"net/http"
)

// dashboardSummary serves the card values, from Redis when cached.
func (s *Server) dashboardSummary(r *http.Request) (any, error) {
	ctx := r.Context()
	if sum, ok := s.cache.Get(ctx); ok {
		return sum, nil
	}

	gen := s.cache.Generation(ctx)
	sum, err := s.store.Summary(ctx)
	if err != nil {
		return nil, storeError("dashboard summary", err, nil)
	}
	s.cache.Set(ctx, sum, gen)
	return sum, nil
}

func (s *Server) dashboardTrend(r *http.Request) (any, error) {
	points, err := s.store.Trend(r.Context())
	if err != nil {
		return nil, storeError("dashboard trend", err, nil)
	}
	return points, nil
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// CalculateDistanceRequest is the single-route calculation body.
type CalculateDistanceRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Driving     bool   `json:"driving"`
}

// CalculateBatchRequest carries the edited records back from the client
// for batch resolution. FixedOrigin, when set, overrides every record's
// origin with one address.
type CalculateBatchRequest struct {
	Records     []domain.TripRecord `json:"records"`
	FixedOrigin string              `json:"fixed_origin,omitempty"`
}

// CalculateBatchResponse returns one entry per input record, in input
// order. Failed records carry a failure instead of being dropped.
type CalculateBatchResponse struct {
	Results []domain.ResolvedTrip `json:"results"`
}

// CalculateDistance handles POST /api/calculate/distance: one
// origin/destination pair, resolved synchronously.
func (s *Server) CalculateDistance(w http.ResponseWriter, r *http.Request) {
	var req CalculateDistanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be valid JSON")
		return
	}
	if req.Origin == "" || req.Destination == "" {
		requestError(w, "origin and destination are required")
		return
	}

	trips := s.resolver.ResolveAll(r.Context(), []domain.TripRecord{{
		Origin:      req.Origin,
		Destination: req.Destination,
		Driving:     req.Driving,
	}}, "")

	writeJSON(w, http.StatusOK, trips[0].Result)
}

// CalculateBatch handles POST /api/calculate/batch.
func (s *Server) CalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req CalculateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be valid JSON")
		return
	}
	if len(req.Records) == 0 {
		requestError(w, "records must not be empty")
		return
	}

	results := s.resolver.ResolveAll(r.Context(), req.Records, req.FixedOrigin)
	writeJSON(w, http.StatusOK, CalculateBatchResponse{Results: results})
}

package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/handler"
)

// ---- POST /api/calculate/distance ------------------------------------------

func TestCalculateDistance_OK(t *testing.T) {
	h := newHTTPHandler(echoResolver(), nil, nil)

	body := `{"origin":"安環高雄處","destination":"管理局","driving":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculate/distance", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.ResolutionResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.NotNil(t, result.Success)
	assert.InDelta(t, 25.4, result.Success.RoundTripKm, 0.001)
	assert.Equal(t, "abc123.png", result.Success.MapImageRef)
}

func TestCalculateDistance_MissingFields(t *testing.T) {
	h := newHTTPHandler(echoResolver(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/distance", strings.NewReader(`{"origin":"只有起點"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Error.Code)
}

func TestCalculateDistance_BadJSON(t *testing.T) {
	h := newHTTPHandler(echoResolver(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/distance", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCalculateDistance_FailedResolution_StillHTTP200(t *testing.T) {
	resolver := &mockResolver{
		resolveAll: func(_ context.Context, records []domain.TripRecord, _ string) []domain.ResolvedTrip {
			return []domain.ResolvedTrip{{
				Record: records[0],
				Result: domain.Fail(domain.FailurePlaceNotFound, "查無此地點"),
			}}
		},
	}
	h := newHTTPHandler(resolver, nil, nil)

	body := `{"origin":"不存在","destination":"管理局","driving":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculate/distance", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// A per-record failure is a result, not a transport error.
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.ResolutionResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.NotNil(t, result.Failure)
	assert.Equal(t, domain.FailurePlaceNotFound, result.Failure.Reason)
}

// ---- POST /api/calculate/batch ---------------------------------------------

func TestCalculateBatch_OK(t *testing.T) {
	h := newHTTPHandler(echoResolver(), nil, nil)

	payload := handler.CalculateBatchRequest{Records: []domain.TripRecord{recordFixture(), recordFixture()}}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/batch", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.CalculateBatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Results, 2)
	assert.NotNil(t, resp.Results[0].Result.Success)
}

func TestCalculateBatch_FixedOriginForwarded(t *testing.T) {
	var gotFixed string
	resolver := &mockResolver{
		resolveAll: func(_ context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip {
			gotFixed = fixedOrigin
			return make([]domain.ResolvedTrip, len(records))
		},
	}
	h := newHTTPHandler(resolver, nil, nil)

	payload := handler.CalculateBatchRequest{
		Records:     []domain.TripRecord{recordFixture()},
		FixedOrigin: "高雄市前鎮區成功二路25號",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/batch", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "高雄市前鎮區成功二路25號", gotFixed)
}

func TestCalculateBatch_EmptyRecords(t *testing.T) {
	h := newHTTPHandler(echoResolver(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/batch", strings.NewReader(`{"records":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

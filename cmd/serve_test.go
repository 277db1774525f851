package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/pricewatch/internal/analyzer"
	"github.com/pricelens/pricewatch/internal/match"
	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	norm, err := textnorm.New()
	require.NoError(t, err)
	return buildMux(
		analyzer.NewPriceAnalyzer(nil),
		analyzer.NewComparisonAnalyzer(match.NewMatcher(norm)),
	)
}

func analysisPayload(t *testing.T, records []model.ProductRecord) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"records": records})
	require.NoError(t, err)
	return body
}

func TestServeHealth(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeAnalyze(t *testing.T) {
	mux := newTestMux(t)

	records := []model.ProductRecord{
		model.NewProductRecord("amazon", "A1", "USB-C cable", 9.99, "USD"),
		model.NewProductRecord("ebay", "E1", "USB-C cable 2m", 7.49, "USD"),
		model.NewProductRecord("walmart", "W1", "USB C charging cable", 8.49, "USD"),
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(analysisPayload(t, records)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, model.AnalysisTypeComprehensive, resp["analysis_type"])
	assert.NotNil(t, resp["data"])
}

func TestServeAnalyzeInvalidJSON(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestServeAnalyzeEmptyRecords(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte(`{"records":[]}`)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "records are required")
}

func TestServeAnalyzeValidationFailure(t *testing.T) {
	mux := newTestMux(t)

	// record with no platform fails table validation
	records := []model.ProductRecord{
		model.NewProductRecord("", "A1", "Widget", 10, "USD"),
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(analysisPayload(t, records)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServeCompareSinglePlatform(t *testing.T) {
	mux := newTestMux(t)

	// comparison needs at least two platforms
	records := []model.ProductRecord{
		model.NewProductRecord("amazon", "A1", "Widget", 10, "USD"),
		model.NewProductRecord("amazon", "A2", "Widget Pro", 15, "USD"),
	}

	req := httptest.NewRequest(http.MethodPost, "/compare", bytes.NewReader(analysisPayload(t, records)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServeCompare(t *testing.T) {
	mux := newTestMux(t)

	records := []model.ProductRecord{
		model.NewProductRecord("amazon", "A1", "Apple iPhone 15 Pro 256GB", 999, "USD"),
		model.NewProductRecord("ebay", "E1", "Apple iPhone 15 Pro 256GB", 949, "USD"),
	}

	req := httptest.NewRequest(http.MethodPost, "/compare", bytes.NewReader(analysisPayload(t, records)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, model.AnalysisTypeComparison, resp["analysis_type"])
}

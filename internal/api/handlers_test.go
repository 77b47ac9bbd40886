package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genorisk-server/internal/domain"
	"github.com/genorisk-server/internal/service"
)

type stubConfigManager struct {
	config *domain.Config
}

func (s *stubConfigManager) GetConfig() *domain.Config             { return s.config }
func (s *stubConfigManager) GetServerConfig() *domain.ServerConfig { return &s.config.Server }
func (s *stubConfigManager) GetGridSpec() domain.GridSpec          { return s.config.Grid }
func (s *stubConfigManager) Reload() error                         { return nil }
func (s *stubConfigManager) Validate() error                       { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	table := domain.NewLookupTable(domain.DefaultGridSpec(), map[domain.TableKey]float64{
		{Prevalence: 0.3, AlleleFreqA: 0.25, OddsRatio: 1.1}: 1.05,
	})
	lookup, err := service.NewLookupService(logger, table, 16)
	require.NoError(t, err)

	cfg := &domain.Config{
		Server: domain.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Grid:    domain.DefaultGridSpec(),
		Logging: domain.LoggingConfig{Level: "error"},
	}

	return NewServer(&stubConfigManager{config: cfg}, logger, lookup, service.NewRiskModel(logger))
}

func doRequest(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload["status"])
}

func TestHandleLookup(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet,
		"/api/v1/lookup?prevalence=0.3&allele_freq=0.25&odds_ratio=1.1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload lookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.InDelta(t, 1.05, payload.RelativeRiskA, 1e-9)
	assert.InDelta(t, 0.9833, payload.RelativeRiskB, 1e-4)
}

func TestHandleLookupNotFound(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet,
		"/api/v1/lookup?prevalence=0.3&allele_freq=0.25&odds_ratio=1.7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleLookupBadRequest(t *testing.T) {
	server := newTestServer(t)

	// Missing parameter.
	rec := doRequest(t, server, http.MethodGet, "/api/v1/lookup?prevalence=0.3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-numeric parameter.
	rec = doRequest(t, server, http.MethodGet,
		"/api/v1/lookup?prevalence=abc&allele_freq=0.25&odds_ratio=1.1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Out-of-domain prevalence.
	rec = doRequest(t, server, http.MethodGet,
		"/api/v1/lookup?prevalence=1.5&allele_freq=0.25&odds_ratio=1.1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOddsRatio(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/odds-ratio", oddsRatioRequest{
		Prevalence:    0.1,
		AlleleFreqA:   0.3,
		RelativeRiskA: 1.2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.InDelta(t, 1.3551136, payload["odds_ratio"].(float64), 1e-6)
}

func TestHandleOddsRatioImpossible(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/odds-ratio", oddsRatioRequest{
		Prevalence:    0.1,
		AlleleFreqA:   0.9,
		RelativeRiskA: 1.2,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleCombine(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/combine", combineRequest{
		RelativeRisks: []float64{1.05, 1.2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.InDelta(t, 1.05*1.2, payload["combined_relative_risk"].(float64), 1e-12)
}

func TestHandleCombineEmpty(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/combine", combineRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1.0, payload["combined_relative_risk"].(float64))
}

func TestHandleCombineInvalid(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/combine", combineRequest{
		RelativeRisks: []float64{1.05, -1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTableStats(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/table/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, float64(1), payload["entries"])
}

func TestCorrelationIDHeader(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

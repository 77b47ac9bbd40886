package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genorisk-server/internal/domain"
)

func testTable() *domain.LookupTable {
	return domain.NewLookupTable(domain.DefaultGridSpec(), map[domain.TableKey]float64{
		{Prevalence: 0.3, AlleleFreqA: 0.25, OddsRatio: 1.1}: 1.05,
		{Prevalence: 0.1, AlleleFreqA: 0.3, OddsRatio: 1.36}: 1.2,
	})
}

func TestLookupServiceLookup(t *testing.T) {
	svc, err := NewLookupService(testLogger(), testTable(), 16)
	require.NoError(t, err)

	result, err := svc.Lookup(0.3, 0.25, 1.1)
	require.NoError(t, err)
	assert.InDelta(t, 1.05, result.RelativeRiskA, 1e-9)
	assert.InDelta(t, 0.9833, result.RelativeRiskB, 1e-4)
}

func TestLookupServiceCacheHitMatchesColdLookup(t *testing.T) {
	svc, err := NewLookupService(testLogger(), testTable(), 16)
	require.NoError(t, err)

	cold, err := svc.Lookup(0.1, 0.3, 1.36)
	require.NoError(t, err)

	// Second call is served from the cache.
	warm, err := svc.Lookup(0.1, 0.3, 1.36)
	require.NoError(t, err)
	assert.Equal(t, cold, warm)
}

func TestLookupServiceNotFound(t *testing.T) {
	svc, err := NewLookupService(testLogger(), testTable(), 16)
	require.NoError(t, err)

	_, err = svc.Lookup(0.3, 0.25, 1.5)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.Lookup(0.3051, 0.25, 1.1)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err), "off-grid prevalence must miss, got %v", err)
}

func TestLookupServiceInvalidInput(t *testing.T) {
	svc, err := NewLookupService(testLogger(), testTable(), 16)
	require.NoError(t, err)

	_, err = svc.Lookup(0.3, 0.25, -1)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidInput(err))
}

func TestLookupServiceDefaultCacheSize(t *testing.T) {
	svc, err := NewLookupService(testLogger(), testTable(), 0)
	require.NoError(t, err)
	require.NotNil(t, svc)
}

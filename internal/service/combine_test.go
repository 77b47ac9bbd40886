package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genorisk-server/internal/domain"
)

func TestCombineRisksIdentity(t *testing.T) {
	combined, err := CombineRisks()
	require.NoError(t, err)
	assert.Equal(t, 1.0, combined, "empty sequence is the identity")

	combined, err = CombineRisks(1.3)
	require.NoError(t, err)
	assert.Equal(t, 1.3, combined)
}

func TestCombineRisksProduct(t *testing.T) {
	combined, err := CombineRisks(1.2, 1.05, 0.9)
	require.NoError(t, err)
	assert.InDelta(t, 1.2*1.05*0.9, combined, 1e-12)
}

func TestCombineRisksOrderIndependent(t *testing.T) {
	a, err := CombineRisks(1.2, 0.8, 1.5, 1.05)
	require.NoError(t, err)
	b, err := CombineRisks(1.05, 1.5, 0.8, 1.2)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 1e-12)

	// Associativity: folding a prefix first gives the same product.
	prefix, err := CombineRisks(1.2, 0.8)
	require.NoError(t, err)
	c, err := CombineRisks(prefix, 1.5, 1.05)
	require.NoError(t, err)
	assert.InDelta(t, a, c, 1e-12)
}

func TestCombineRisksRejectsNonPositive(t *testing.T) {
	_, err := CombineRisks(1.2, 0)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidInput(err))

	_, err = CombineRisks(-0.5)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidInput(err))
}

func TestPopulationMeanRisk(t *testing.T) {
	model := NewRiskModel(testLogger())

	// Averaged over the population, genotype relative risks weighted by
	// their Hardy-Weinberg frequencies must come out at 1.0.
	for _, tt := range []domain.RiskParameters{
		{Prevalence: 0.1, AlleleFreqA: 0.3, RelativeRiskA: 1.2},
		{Prevalence: 0.05, AlleleFreqA: 0.25, RelativeRiskA: 1.05},
		{Prevalence: 0.3, AlleleFreqA: 0.5, RelativeRiskA: 1.4},
	} {
		mean, err := PopulationMeanRisk(model, tt)
		require.NoError(t, err, "%+v", tt)
		assert.InDelta(t, 1.0, mean, 1e-9, "%+v", tt)
	}
}

func TestPopulationMeanRiskPropagatesErrors(t *testing.T) {
	model := NewRiskModel(testLogger())

	_, err := PopulationMeanRisk(model, domain.RiskParameters{
		Prevalence: 0.1, AlleleFreqA: 0.9, RelativeRiskA: 1.2,
	})
	require.Error(t, err)
	assert.True(t, domain.IsImpossibleParameters(err))
}

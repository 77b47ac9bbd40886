package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genorisk-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

func TestComputeOddsRatio(t *testing.T) {
	model := NewRiskModel(testLogger())

	or, err := model.ComputeOddsRatio(domain.RiskParameters{
		Prevalence:    0.1,
		AlleleFreqA:   0.3,
		RelativeRiskA: 1.2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.3551136, or, 1e-6)
}

func TestGenotypeStatsHardyWeinberg(t *testing.T) {
	model := NewRiskModel(testLogger())

	for _, freq := range []float64{0.01, 0.1, 0.3, 0.5, 0.9, 0.99} {
		stats, err := model.GenotypeStats(domain.RiskParameters{
			Prevalence:    0.1,
			AlleleFreqA:   freq,
			RelativeRiskA: 1.01,
		})
		require.NoError(t, err, "freq=%g", freq)

		sum := stats.AA.Frequency + stats.AB.Frequency + stats.BB.Frequency
		assert.InDelta(t, 1.0, sum, 1e-12, "genotype frequencies must sum to 1 at freq=%g", freq)
	}
}

func TestGenotypeStatsWeightedRiskSum(t *testing.T) {
	model := NewRiskModel(testLogger())

	stats, err := model.GenotypeStats(domain.RiskParameters{
		Prevalence:    0.1,
		AlleleFreqA:   0.3,
		RelativeRiskA: 1.2,
	})
	require.NoError(t, err)

	weighted := stats.AA.Frequency*stats.AA.RelativeRisk +
		stats.AB.Frequency*stats.AB.RelativeRisk +
		stats.BB.Frequency*stats.BB.RelativeRisk
	assert.InDelta(t, 1.0, weighted, 1e-9)
}

func TestGenotypeStatsFractionsDecompose(t *testing.T) {
	model := NewRiskModel(testLogger())

	stats, err := model.GenotypeStats(domain.RiskParameters{
		Prevalence:    0.2,
		AlleleFreqA:   0.4,
		RelativeRiskA: 1.1,
	})
	require.NoError(t, err)

	// With- and without-disease fractions partition each genotype.
	assert.InDelta(t, stats.AA.Frequency, stats.AA.WithDisease+stats.AA.WithoutDisease, 1e-12)
	assert.InDelta(t, stats.AB.Frequency, stats.AB.WithDisease+stats.AB.WithoutDisease, 1e-12)
	assert.InDelta(t, stats.BB.Frequency, stats.BB.WithDisease+stats.BB.WithoutDisease, 1e-12)
}

func TestComputeOddsRatioImpossibleParameters(t *testing.T) {
	model := NewRiskModel(testLogger())

	tests := []struct {
		name   string
		params domain.RiskParameters
	}{
		// freqA*riskA > 1 drives the derived risk of B negative, which
		// surfaces as a non-positive AB with-disease fraction.
		{"negative derived risk", domain.RiskParameters{Prevalence: 0.1, AlleleFreqA: 0.9, RelativeRiskA: 1.2}},
		// prevalence*riskAA > 1 drives the AA without-disease fraction
		// negative.
		{"risk exceeds prevalence ceiling", domain.RiskParameters{Prevalence: 0.9, AlleleFreqA: 0.5, RelativeRiskA: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.ComputeOddsRatio(tt.params)
			require.Error(t, err)
			assert.True(t, domain.IsImpossibleParameters(err), "expected impossible parameters, got %v", err)
		})
	}
}

func TestComputeOddsRatioInvalidInput(t *testing.T) {
	model := NewRiskModel(testLogger())

	_, err := model.ComputeOddsRatio(domain.RiskParameters{Prevalence: 1.5, AlleleFreqA: 0.3, RelativeRiskA: 1.2})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidInput(err))
	assert.False(t, domain.IsImpossibleParameters(err))
}

func TestOddsRatioAboveOneForRiskAllele(t *testing.T) {
	model := NewRiskModel(testLogger())

	// A risk-increasing A allele must produce an odds ratio above 1.
	for _, risk := range []float64{1.001, 1.1, 1.5, 1.999} {
		or, err := model.ComputeOddsRatio(domain.RiskParameters{
			Prevalence:    0.05,
			AlleleFreqA:   0.2,
			RelativeRiskA: risk,
		})
		require.NoError(t, err, "risk=%g", risk)
		assert.Greater(t, or, 1.0, "risk=%g", risk)
	}
}

func BenchmarkComputeOddsRatio(b *testing.B) {
	model := NewRiskModel(testLogger())
	params := domain.RiskParameters{Prevalence: 0.1, AlleleFreqA: 0.3, RelativeRiskA: 1.2}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := model.ComputeOddsRatio(params); err != nil {
			b.Fatal(err)
		}
	}
}

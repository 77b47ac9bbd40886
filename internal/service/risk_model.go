// Package service implements the genotype risk engine: the forward odds
// ratio model, the grid-sweep inverse table builder, the lookup service
// and multiplicative risk combination.
package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/genorisk-server/internal/domain"
)

// RiskModel computes genotype and allele disease co-occurrence statistics
// and the resulting odds ratio for a fully specified parameter triple,
// assuming Hardy-Weinberg genotype frequencies and a multiplicative risk
// model.
//
// All methods are pure and deterministic. The success path performs no
// heap allocation; the model is evaluated millions of times per table
// build.
type RiskModel struct {
	logger *logrus.Logger
}

// NewRiskModel creates a new forward risk model.
func NewRiskModel(logger *logrus.Logger) *RiskModel {
	return &RiskModel{logger: logger}
}

// GenotypeStats derives the per-genotype and allele-level population
// fractions for params. The relative risk of the B allele is recomputed
// internally from the balance invariant, never taken as an input.
//
// Every genotype fraction must lie strictly in (0,1) and every allele
// aggregate strictly in (0,2); a violation means the triple is not
// biologically realizable and yields ErrImpossibleParameters. Nothing is
// ever clamped.
func (m *RiskModel) GenotypeStats(params domain.RiskParameters) (domain.GenotypeStats, error) {
	if err := params.Validate(); err != nil {
		return domain.GenotypeStats{}, err
	}

	freqA := params.AlleleFreqA
	freqB := params.AlleleFreqB()
	riskA := params.RelativeRiskA
	riskB := params.RelativeRiskB()
	prevalence := params.Prevalence

	stats := domain.GenotypeStats{
		AA: genotypeFractions(freqA*freqA, prevalence, riskA*riskA),
		AB: genotypeFractions(2*freqA*freqB, prevalence, riskA*riskB),
		BB: genotypeFractions(freqB*freqB, prevalence, riskB*riskB),
	}

	if err := checkGenotype(domain.GenotypeAA, stats.AA); err != nil {
		return domain.GenotypeStats{}, err
	}
	if err := checkGenotype(domain.GenotypeAB, stats.AB); err != nil {
		return domain.GenotypeStats{}, err
	}
	if err := checkGenotype(domain.GenotypeBB, stats.BB); err != nil {
		return domain.GenotypeStats{}, err
	}

	// Homozygote carriers contribute both of their alleles.
	stats.AlleleAWithDisease = 2*stats.AA.WithDisease + stats.AB.WithDisease
	stats.AlleleAWithoutDisease = 2*stats.AA.WithoutDisease + stats.AB.WithoutDisease
	stats.AlleleBWithDisease = 2*stats.BB.WithDisease + stats.AB.WithDisease
	stats.AlleleBWithoutDisease = 2*stats.BB.WithoutDisease + stats.AB.WithoutDisease

	if err := checkAlleleAggregates(stats); err != nil {
		return domain.GenotypeStats{}, err
	}
	return stats, nil
}

// ComputeOddsRatio returns the odds ratio between carriers of the A and B
// alleles implied by params.
func (m *RiskModel) ComputeOddsRatio(params domain.RiskParameters) (float64, error) {
	stats, err := m.GenotypeStats(params)
	if err != nil {
		return 0, err
	}
	return stats.OddsRatio(), nil
}

func genotypeFractions(frequency, prevalence, relativeRisk float64) domain.GenotypeFractions {
	return domain.GenotypeFractions{
		Frequency:      frequency,
		RelativeRisk:   relativeRisk,
		WithDisease:    frequency * prevalence * relativeRisk,
		WithoutDisease: frequency * (1 - prevalence*relativeRisk),
	}
}

func checkGenotype(g domain.Genotype, f domain.GenotypeFractions) error {
	if f.WithDisease <= 0 || f.WithDisease >= 1 {
		return domain.NewImpossibleParametersError(fmt.Sprintf("genotype %s with-disease fraction", g), f.WithDisease)
	}
	if f.WithoutDisease <= 0 || f.WithoutDisease >= 1 {
		return domain.NewImpossibleParametersError(fmt.Sprintf("genotype %s without-disease fraction", g), f.WithoutDisease)
	}
	return nil
}

func checkAlleleAggregates(s domain.GenotypeStats) error {
	aggregates := [...]struct {
		name  string
		value float64
	}{
		{"allele A with-disease aggregate", s.AlleleAWithDisease},
		{"allele A without-disease aggregate", s.AlleleAWithoutDisease},
		{"allele B with-disease aggregate", s.AlleleBWithDisease},
		{"allele B without-disease aggregate", s.AlleleBWithoutDisease},
	}
	for _, a := range aggregates {
		if a.value <= 0 || a.value >= 2 {
			return domain.NewImpossibleParametersError(a.name, a.value)
		}
	}
	return nil
}

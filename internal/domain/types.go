// Package domain contains the core entities for genotype-level relative
// disease risk estimation under a multiplicative (log-additive) risk model.
//
// The model relates disease prevalence, allele frequency and per-allele
// relative risk to the population odds ratio, assuming Hardy-Weinberg
// genotype frequencies. Because the forward equation has no closed-form
// inverse, odds ratios are mapped back to relative risks through a
// discretized lookup table built by a grid sweep.
package domain

import (
	"math"
)

// Genotype identifies a paired-allele combination at a single biallelic locus.
type Genotype string

const (
	GenotypeAA Genotype = "AA"
	GenotypeAB Genotype = "AB"
	GenotypeBB Genotype = "BB"
)

// IsValid reports whether the Genotype is one of the three recognized
// combinations.
func (g Genotype) IsValid() bool {
	switch g {
	case GenotypeAA, GenotypeAB, GenotypeBB:
		return true
	default:
		return false
	}
}

// RiskParameters fully specifies one point of the forward risk model.
//
// The frequency and relative risk of allele B are not independent inputs:
// they follow from the balance invariant
//
//	alleleFreqA*relativeRiskA + alleleFreqB*relativeRiskB = 1
//
// which is the defining constraint of "relative risk" (the
// frequency-weighted average of relative risks over both alleles is 1).
type RiskParameters struct {
	Prevalence    float64 `json:"prevalence"`
	AlleleFreqA   float64 `json:"allele_freq_a"`
	RelativeRiskA float64 `json:"relative_risk_a"`
}

// Validate checks the basic domain bounds before any computation is
// attempted. Violations are InvalidInput errors, not impossibility errors:
// the parameters are malformed rather than biologically unrealizable.
func (p RiskParameters) Validate() error {
	// NaN compares false against every bound, so it is rejected explicitly.
	if math.IsNaN(p.Prevalence) || p.Prevalence <= 0 || p.Prevalence >= 1 {
		return NewInvalidInputError("prevalence", p.Prevalence, "must be in the open interval (0,1)")
	}
	if math.IsNaN(p.AlleleFreqA) || p.AlleleFreqA <= 0 || p.AlleleFreqA >= 1 {
		return NewInvalidInputError("allele_freq_a", p.AlleleFreqA, "must be in the open interval (0,1)")
	}
	if math.IsNaN(p.RelativeRiskA) || p.RelativeRiskA <= 0 {
		return NewInvalidInputError("relative_risk_a", p.RelativeRiskA, "must be positive")
	}
	return nil
}

// AlleleFreqB returns the derived frequency of the B allele.
func (p RiskParameters) AlleleFreqB() float64 {
	return 1 - p.AlleleFreqA
}

// RelativeRiskB returns the derived relative risk of the B allele from the
// balance invariant.
func (p RiskParameters) RelativeRiskB() float64 {
	return (1 - p.AlleleFreqA*p.RelativeRiskA) / p.AlleleFreqB()
}

// GenotypeFractions holds the population fractions for one genotype: its
// Hardy-Weinberg frequency, the joint fraction of the population that
// carries the genotype and has the disease, the joint fraction that
// carries it and does not, and the genotype relative risk (the product of
// its two allele-level relative risks).
type GenotypeFractions struct {
	Frequency      float64 `json:"frequency"`
	WithDisease    float64 `json:"with_disease"`
	WithoutDisease float64 `json:"without_disease"`
	RelativeRisk   float64 `json:"relative_risk"`
}

// GenotypeStats holds the per-genotype fractions and the allele-level
// aggregates derived from them. Allele aggregates double-count homozygote
// carriers (each AA individual contributes two A alleles), so they lie in
// (0,2) rather than (0,1).
type GenotypeStats struct {
	AA GenotypeFractions `json:"aa"`
	AB GenotypeFractions `json:"ab"`
	BB GenotypeFractions `json:"bb"`

	AlleleAWithDisease    float64 `json:"allele_a_with_disease"`
	AlleleAWithoutDisease float64 `json:"allele_a_without_disease"`
	AlleleBWithDisease    float64 `json:"allele_b_with_disease"`
	AlleleBWithoutDisease float64 `json:"allele_b_without_disease"`
}

// OddsRatio returns the odds ratio between carriers of the A and B alleles.
func (s GenotypeStats) OddsRatio() float64 {
	oddsA := s.AlleleAWithDisease / s.AlleleAWithoutDisease
	oddsB := s.AlleleBWithDisease / s.AlleleBWithoutDisease
	return oddsA / oddsB
}

// GridSpec configures the discretized sweep that builds the inverse lookup
// table. All three axes are uniform grids: prevalence and allele frequency
// sample i*Step for i in 1..Steps, relative risk samples 1+j*Step for j in
// 1..Steps (only risk-increasing alleles are tabulated; protective alleles
// are queried by swapping the A/B allele roles).
type GridSpec struct {
	PrevalenceStep    float64 `json:"prevalence_step" mapstructure:"prevalence_step"`
	PrevalenceSteps   int     `json:"prevalence_steps" mapstructure:"prevalence_steps"`
	AlleleFreqStep    float64 `json:"allele_freq_step" mapstructure:"allele_freq_step"`
	AlleleFreqSteps   int     `json:"allele_freq_steps" mapstructure:"allele_freq_steps"`
	RelativeRiskStep  float64 `json:"relative_risk_step" mapstructure:"relative_risk_step"`
	RelativeRiskSteps int     `json:"relative_risk_steps" mapstructure:"relative_risk_steps"`
	RoundingDecimals  int     `json:"rounding_decimals" mapstructure:"rounding_decimals"`
}

// DefaultGridSpec returns the reference grid: prevalence and allele
// frequency swept 0.01..0.99 in steps of 0.01, relative risk swept
// 1.001..1.999 in steps of 0.001, odds ratios rounded to 2 decimals.
func DefaultGridSpec() GridSpec {
	return GridSpec{
		PrevalenceStep:    0.01,
		PrevalenceSteps:   99,
		AlleleFreqStep:    0.01,
		AlleleFreqSteps:   99,
		RelativeRiskStep:  0.001,
		RelativeRiskSteps: 999,
		RoundingDecimals:  2,
	}
}

// Validate checks that the grid is well formed and stays inside the valid
// parameter domain.
func (g GridSpec) Validate() error {
	if g.PrevalenceStep <= 0 || g.PrevalenceSteps < 1 || float64(g.PrevalenceSteps)*g.PrevalenceStep >= 1 {
		return NewInvalidInputError("prevalence_step", g.PrevalenceStep, "prevalence samples must stay inside (0,1)")
	}
	if g.AlleleFreqStep <= 0 || g.AlleleFreqSteps < 1 || float64(g.AlleleFreqSteps)*g.AlleleFreqStep >= 1 {
		return NewInvalidInputError("allele_freq_step", g.AlleleFreqStep, "allele frequency samples must stay inside (0,1)")
	}
	if g.RelativeRiskStep <= 0 || g.RelativeRiskSteps < 1 {
		return NewInvalidInputError("relative_risk_step", g.RelativeRiskStep, "relative risk axis must contain at least one positive step")
	}
	if g.RoundingDecimals < 1 || g.RoundingDecimals > 8 {
		return NewInvalidInputError("rounding_decimals", float64(g.RoundingDecimals), "must be between 1 and 8")
	}
	return nil
}

// PrevalenceAt returns the i-th prevalence sample, i in 1..PrevalenceSteps.
func (g GridSpec) PrevalenceAt(i int) float64 {
	return RoundTo(float64(i)*g.PrevalenceStep, decimalsOf(g.PrevalenceStep))
}

// AlleleFreqAt returns the i-th allele frequency sample.
func (g GridSpec) AlleleFreqAt(i int) float64 {
	return RoundTo(float64(i)*g.AlleleFreqStep, decimalsOf(g.AlleleFreqStep))
}

// RelativeRiskAt returns the j-th relative risk sample, starting above 1.0.
func (g GridSpec) RelativeRiskAt(j int) float64 {
	return RoundTo(1+float64(j)*g.RelativeRiskStep, decimalsOf(g.RelativeRiskStep))
}

// RoundOddsRatio rounds an odds ratio to the grid's tabulation precision.
func (g GridSpec) RoundOddsRatio(or float64) float64 {
	return RoundTo(or, g.RoundingDecimals)
}

// SnapPrevalence maps a queried prevalence to its grid sample, or reports
// that it is off-grid. Queries never interpolate: off-grid is a miss.
func (g GridSpec) SnapPrevalence(p float64) (float64, bool) {
	return snapToGrid(p, g.PrevalenceStep, g.PrevalenceSteps)
}

// SnapAlleleFreq maps a queried allele frequency to its grid sample, or
// reports that it is off-grid.
func (g GridSpec) SnapAlleleFreq(f float64) (float64, bool) {
	return snapToGrid(f, g.AlleleFreqStep, g.AlleleFreqSteps)
}

// snapGridTolerance bounds the distance from a query value to a grid
// sample before the value is considered off-grid. It absorbs float64
// representation noise only, not genuinely off-grid inputs.
const snapGridTolerance = 1e-9

func snapToGrid(v, step float64, steps int) (float64, bool) {
	i := int(math.Round(v / step))
	if i < 1 || i > steps {
		return 0, false
	}
	sample := RoundTo(float64(i)*step, decimalsOf(step))
	if math.Abs(sample-v) > snapGridTolerance {
		return 0, false
	}
	return sample, true
}

// RoundTo rounds x to the given number of decimal digits.
func RoundTo(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}

func decimalsOf(step float64) int {
	decimals := 0
	for step < 1 && decimals < 8 {
		step *= 10
		decimals++
	}
	return decimals
}

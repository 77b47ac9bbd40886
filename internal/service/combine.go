package service

import (
	"gonum.org/v1/gonum/stat"

	"github.com/genorisk-server/internal/domain"
)

// CombineRisks folds a sequence of relative risks into one combined
// relative risk under the multiplicative model. An empty sequence returns
// 1.0, the identity of "no risk modification". Inputs must be positive;
// no further validation is performed here, the values are trusted to come
// from the forward model or the lookup table.
func CombineRisks(risks ...float64) (float64, error) {
	combined := 1.0
	for _, r := range risks {
		if r <= 0 {
			return 0, domain.NewInvalidInputError("relative_risk", r, "must be positive")
		}
		combined *= r
	}
	return combined, nil
}

// PopulationMeanRisk returns the genotype-frequency-weighted mean of the
// genotype relative risks for params. For any valid triple this is 1.0 up
// to floating-point tolerance; a systematic deviation indicates a modeling
// defect, so the value is exposed for verification rather than assumed.
func PopulationMeanRisk(model *RiskModel, params domain.RiskParameters) (float64, error) {
	stats, err := model.GenotypeStats(params)
	if err != nil {
		return 0, err
	}
	risks := []float64{stats.AA.RelativeRisk, stats.AB.RelativeRisk, stats.BB.RelativeRisk}
	weights := []float64{stats.AA.Frequency, stats.AB.Frequency, stats.BB.Frequency}
	return stat.Mean(risks, weights), nil
}

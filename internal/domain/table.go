package domain

import (
	"math"
)

// TableKey identifies one inverse lookup entry. Prevalence and AlleleFreqA
// are grid sample values; OddsRatio is rounded to the grid's tabulation
// precision. All three are normalized through RoundTo so that equal
// samples compare equal as map keys.
type TableKey struct {
	Prevalence  float64 `json:"prevalence"`
	AlleleFreqA float64 `json:"allele_freq_a"`
	OddsRatio   float64 `json:"odds_ratio"`
}

// LookupTable is the completed inverse of the forward risk model: a sparse
// mapping from (prevalence, alleleFreqA, roundedOddsRatio) to the
// relative risk of the A allele.
//
// A table is built once by a full grid sweep and is immutable afterwards;
// it is safe for unsynchronized concurrent reads. For every key the stored
// relative risk is the grid sample whose exact odds ratio is closest to
// the rounded key value. Keys with a rounded odds ratio of exactly 1.00
// are excluded by construction (many relative risks round there).
type LookupTable struct {
	grid    GridSpec
	entries map[TableKey]float64
}

// NewLookupTable constructs an immutable table over a copy of entries.
func NewLookupTable(grid GridSpec, entries map[TableKey]float64) *LookupTable {
	copied := make(map[TableKey]float64, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &LookupTable{grid: grid, entries: copied}
}

// Grid returns the grid specification the table was built from.
func (t *LookupTable) Grid() GridSpec {
	return t.grid
}

// Len returns the number of table entries.
func (t *LookupTable) Len() int {
	return len(t.entries)
}

// Lookup resolves an observed odds ratio to the tabulated relative risk of
// the A allele. The odds ratio is rounded to the table's precision and
// matched exactly; prevalence and allele frequency must be grid samples.
// Misses return ErrNotFound, never an interpolation.
func (t *LookupTable) Lookup(prevalence, alleleFreqA, oddsRatio float64) (float64, error) {
	// NaN compares false against every bound, so it is rejected explicitly.
	if math.IsNaN(prevalence) || prevalence <= 0 || prevalence >= 1 {
		return 0, NewInvalidInputError("prevalence", prevalence, "must be in the open interval (0,1)")
	}
	if math.IsNaN(alleleFreqA) || alleleFreqA <= 0 || alleleFreqA >= 1 {
		return 0, NewInvalidInputError("allele_freq_a", alleleFreqA, "must be in the open interval (0,1)")
	}
	if math.IsNaN(oddsRatio) || oddsRatio <= 0 {
		return 0, NewInvalidInputError("odds_ratio", oddsRatio, "must be positive")
	}

	p, ok := t.grid.SnapPrevalence(prevalence)
	if !ok {
		return 0, NewNotFoundError(prevalence, alleleFreqA, oddsRatio)
	}
	f, ok := t.grid.SnapAlleleFreq(alleleFreqA)
	if !ok {
		return 0, NewNotFoundError(prevalence, alleleFreqA, oddsRatio)
	}

	key := TableKey{
		Prevalence:  p,
		AlleleFreqA: f,
		OddsRatio:   t.grid.RoundOddsRatio(oddsRatio),
	}
	risk, ok := t.entries[key]
	if !ok {
		return 0, NewNotFoundError(prevalence, alleleFreqA, oddsRatio)
	}
	return risk, nil
}

// Walk visits every entry in unspecified order. Used for serialization.
func (t *LookupTable) Walk(fn func(key TableKey, relativeRisk float64)) {
	for k, v := range t.entries {
		fn(k, v)
	}
}

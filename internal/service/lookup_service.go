package service

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/genorisk-server/internal/domain"
)

// LookupService answers inverse queries against a completed table,
// fronting it with an in-memory LRU cache for hot keys. The table itself
// is immutable, so cached values can never go stale.
//
// Only risk-increasing alleles (relative risk > 1) are tabulated. For a
// protective allele, callers swap the A/B allele roles and query with
// allele frequency 1-f and the reciprocal odds ratio.
type LookupService struct {
	logger *logrus.Logger
	table  *domain.LookupTable
	cache  *lru.Cache[domain.TableKey, float64]
}

// LookupResult carries the tabulated relative risk of the queried allele
// and the relative risk of the other allele derived from the balance
// invariant.
type LookupResult struct {
	RelativeRiskA float64 `json:"relative_risk_a"`
	RelativeRiskB float64 `json:"relative_risk_b"`
}

// NewLookupService creates a lookup service over table with a hot-key
// cache of the given size.
func NewLookupService(logger *logrus.Logger, table *domain.LookupTable, cacheSize int) (*LookupService, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[domain.TableKey, float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}
	return &LookupService{logger: logger, table: table, cache: cache}, nil
}

// Lookup resolves an observed odds ratio to relative risks for both
// alleles. Off-grid prevalence or allele frequency, and odds ratios no
// grid sample ever produced, return ErrNotFound.
func (s *LookupService) Lookup(prevalence, alleleFreqA, oddsRatio float64) (*LookupResult, error) {
	grid := s.table.Grid()
	if p, ok := grid.SnapPrevalence(prevalence); ok {
		if f, ok := grid.SnapAlleleFreq(alleleFreqA); ok {
			key := domain.TableKey{
				Prevalence:  p,
				AlleleFreqA: f,
				OddsRatio:   grid.RoundOddsRatio(oddsRatio),
			}
			if risk, hit := s.cache.Get(key); hit {
				s.logger.WithField("key", key).Debug("Lookup cache hit")
				return s.result(f, risk), nil
			}
		}
	}

	risk, err := s.table.Lookup(prevalence, alleleFreqA, oddsRatio)
	if err != nil {
		return nil, err
	}

	p, _ := grid.SnapPrevalence(prevalence)
	f, _ := grid.SnapAlleleFreq(alleleFreqA)
	s.cache.Add(domain.TableKey{
		Prevalence:  p,
		AlleleFreqA: f,
		OddsRatio:   grid.RoundOddsRatio(oddsRatio),
	}, risk)

	return s.result(f, risk), nil
}

// Table returns the underlying immutable table.
func (s *LookupService) Table() *domain.LookupTable {
	return s.table
}

func (s *LookupService) result(alleleFreqA, relativeRiskA float64) *LookupResult {
	params := domain.RiskParameters{AlleleFreqA: alleleFreqA, RelativeRiskA: relativeRiskA}
	return &LookupResult{
		RelativeRiskA: relativeRiskA,
		RelativeRiskB: params.RelativeRiskB(),
	}
}

package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/genorisk-server/internal/domain"
)

// TableBuilder constructs the inverse lookup table by brute-force grid
// inversion: the forward model is evaluated over the full Cartesian
// product of the discretized parameter ranges and, per rounded odds
// ratio, the relative risk with the smallest rounding error is kept.
type TableBuilder struct {
	logger  *logrus.Logger
	model   *RiskModel
	workers int
}

// candidate is the construction-time bookkeeping for one table key: the
// retained relative risk and the rounding error that won it the slot. The
// error never leaves the builder.
type candidate struct {
	relativeRisk  float64
	roundingError float64
}

// accumulator collects candidates for a slice of the grid. Partial
// accumulators merge by per-key minimum error, which is commutative and
// associative, so shards can be swept in any order and on any worker.
type accumulator struct {
	entries map[domain.TableKey]candidate
}

func newAccumulator() *accumulator {
	return &accumulator{entries: make(map[domain.TableKey]candidate)}
}

// upsert keeps the candidate with the strictly smaller rounding error.
func (a *accumulator) upsert(key domain.TableKey, c candidate) {
	existing, ok := a.entries[key]
	if !ok || c.roundingError < existing.roundingError {
		a.entries[key] = c
	}
}

// merge folds other into a.
func (a *accumulator) merge(other *accumulator) {
	for key, c := range other.entries {
		a.upsert(key, c)
	}
}

// NewTableBuilder creates a builder sweeping with the given number of
// workers; workers <= 0 selects one worker per CPU.
func NewTableBuilder(logger *logrus.Logger, model *RiskModel, workers int) *TableBuilder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &TableBuilder{logger: logger, model: model, workers: workers}
}

// Build sweeps the full grid and returns the completed, immutable table.
// Construction is deterministic and idempotent for a given grid.
//
// Unrealizable parameter combinations are an expected, frequent outcome of
// the sweep and are skipped; so are points whose odds ratio rounds to
// exactly 1.00, where the inversion is ambiguous. No partially built table
// is ever exposed.
func (b *TableBuilder) Build(ctx context.Context, grid domain.GridSpec) (*domain.LookupTable, error) {
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}

	start := time.Now()
	points := grid.PrevalenceSteps * grid.AlleleFreqSteps * grid.RelativeRiskSteps
	b.logger.WithFields(logrus.Fields{
		"grid_points": points,
		"workers":     b.workers,
	}).Info("Building inverse lookup table")

	// The prevalence axis is the partition unit: coarse enough to keep
	// scheduling overhead low, fine enough to saturate the workers.
	shards := make([]*accumulator, grid.PrevalenceSteps+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := 1; i <= grid.PrevalenceSteps; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			shard, err := b.sweepPrevalence(grid, i)
			if err != nil {
				return err
			}
			shards[i] = shard
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("grid sweep failed: %w", err)
	}

	merged := newAccumulator()
	for _, shard := range shards {
		if shard != nil {
			merged.merge(shard)
		}
	}

	entries := make(map[domain.TableKey]float64, len(merged.entries))
	for key, c := range merged.entries {
		entries[key] = c.relativeRisk
	}
	table := domain.NewLookupTable(grid, entries)

	b.logger.WithFields(logrus.Fields{
		"entries": table.Len(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Inverse lookup table built")
	return table, nil
}

// sweepPrevalence evaluates the forward model over one prevalence sample
// crossed with the full relative risk and allele frequency axes.
func (b *TableBuilder) sweepPrevalence(grid domain.GridSpec, prevalenceIdx int) (*accumulator, error) {
	acc := newAccumulator()
	prevalence := grid.PrevalenceAt(prevalenceIdx)

	for j := 1; j <= grid.RelativeRiskSteps; j++ {
		relativeRisk := grid.RelativeRiskAt(j)
		for k := 1; k <= grid.AlleleFreqSteps; k++ {
			alleleFreq := grid.AlleleFreqAt(k)

			stats, err := b.model.GenotypeStats(domain.RiskParameters{
				Prevalence:    prevalence,
				AlleleFreqA:   alleleFreq,
				RelativeRiskA: relativeRisk,
			})
			if err != nil {
				if domain.IsImpossibleParameters(err) {
					continue
				}
				return nil, fmt.Errorf("forward model at prevalence=%g freq=%g risk=%g: %w",
					prevalence, alleleFreq, relativeRisk, err)
			}

			exact := stats.OddsRatio()
			rounded := grid.RoundOddsRatio(exact)
			if rounded == 1 {
				continue
			}

			acc.upsert(domain.TableKey{
				Prevalence:  prevalence,
				AlleleFreqA: alleleFreq,
				OddsRatio:   rounded,
			}, candidate{
				relativeRisk:  relativeRisk,
				roundingError: absFloat(rounded - exact),
			})
		}
	}
	return acc, nil
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Package store persists completed lookup tables. Two SQL backends are
// provided (SQLite for single-node deployments, PostgreSQL for shared
// ones) plus a JSON export format. All backends guarantee round-trip
// fidelity: loading a saved table yields the identical mapping.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/genorisk-server/internal/domain"
)

// TableRow is one serialized table entry.
type TableRow struct {
	Prevalence   float64 `json:"prevalence"`
	AlleleFreq   float64 `json:"allele_freq"`
	OddsRatio    float64 `json:"odds_ratio"`
	RelativeRisk float64 `json:"relative_risk"`
}

// TableExport is the JSON serialization envelope for a lookup table.
type TableExport struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Grid       domain.GridSpec `json:"grid"`
	Count      int             `json:"count"`
	Entries    []TableRow      `json:"entries"`
}

// exportVersion identifies the JSON envelope layout.
const exportVersion = "1.0"

// rowsOf flattens a table into deterministically ordered rows.
func rowsOf(table *domain.LookupTable) []TableRow {
	rows := make([]TableRow, 0, table.Len())
	table.Walk(func(key domain.TableKey, risk float64) {
		rows = append(rows, TableRow{
			Prevalence:   key.Prevalence,
			AlleleFreq:   key.AlleleFreqA,
			OddsRatio:    key.OddsRatio,
			RelativeRisk: risk,
		})
	})
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Prevalence != b.Prevalence {
			return a.Prevalence < b.Prevalence
		}
		if a.AlleleFreq != b.AlleleFreq {
			return a.AlleleFreq < b.AlleleFreq
		}
		return a.OddsRatio < b.OddsRatio
	})
	return rows
}

// ExportJSON writes table to writer as an indented JSON envelope. Entries
// are sorted so the entry list of two exports of the same table is
// identical; the envelope itself is not, it carries the export timestamp.
func ExportJSON(writer io.Writer, table *domain.LookupTable) error {
	export := &TableExport{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Grid:       table.Grid(),
		Count:      table.Len(),
		Entries:    rowsOf(table),
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON reads a JSON envelope back into an immutable table.
func ImportJSON(reader io.Reader) (*domain.LookupTable, error) {
	var export TableExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if err := export.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid in export: %w", err)
	}

	entries := make(map[domain.TableKey]float64, len(export.Entries))
	for _, row := range export.Entries {
		entries[domain.TableKey{
			Prevalence:  row.Prevalence,
			AlleleFreqA: row.AlleleFreq,
			OddsRatio:   row.OddsRatio,
		}] = row.RelativeRisk
	}
	return domain.NewLookupTable(export.Grid, entries), nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/genorisk-server/internal/domain"
)

// SQLiteStore implements the TableStore interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite table store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS table_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		grid_spec TEXT NOT NULL,
		built_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS risk_entries (
		prevalence REAL NOT NULL,
		allele_freq REAL NOT NULL,
		odds_ratio REAL NOT NULL,
		relative_risk REAL NOT NULL,
		UNIQUE(prevalence, allele_freq, odds_ratio)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_pair ON risk_entries(prevalence, allele_freq);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveTable replaces any previously stored table with table. The write is
// a single transaction: readers never observe a partially saved table.
func (s *SQLiteStore) SaveTable(ctx context.Context, table *domain.LookupTable) error {
	gridJSON, err := json.Marshal(table.Grid())
	if err != nil {
		return fmt.Errorf("failed to encode grid: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM risk_entries"); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM table_meta"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO table_meta (id, grid_spec, built_at) VALUES (1, ?, ?)",
		string(gridJSON), time.Now(),
	); err != nil {
		return fmt.Errorf("failed to insert metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO risk_entries (prevalence, allele_freq, odds_ratio, relative_risk)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rowsOf(table) {
		if _, err := stmt.ExecContext(ctx, row.Prevalence, row.AlleleFreq, row.OddsRatio, row.RelativeRisk); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	return tx.Commit()
}

// LoadTable reads the stored table. It returns (nil, nil) if no table has
// been saved yet.
func (s *SQLiteStore) LoadTable(ctx context.Context) (*domain.LookupTable, error) {
	var gridJSON string
	err := s.db.QueryRowContext(ctx, "SELECT grid_spec FROM table_meta WHERE id = 1").Scan(&gridJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var grid domain.GridSpec
	if err := json.Unmarshal([]byte(gridJSON), &grid); err != nil {
		return nil, fmt.Errorf("failed to decode grid: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT prevalence, allele_freq, odds_ratio, relative_risk
		FROM risk_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[domain.TableKey]float64)
	for rows.Next() {
		var row TableRow
		if err := rows.Scan(&row.Prevalence, &row.AlleleFreq, &row.OddsRatio, &row.RelativeRisk); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries[domain.TableKey{
			Prevalence:  row.Prevalence,
			AlleleFreqA: row.AlleleFreq,
			OddsRatio:   row.OddsRatio,
		}] = row.RelativeRisk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return domain.NewLookupTable(grid, entries), nil
}

// Count returns the number of stored table entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM risk_entries").Scan(&count)
	return count, err
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/genorisk-server/internal/domain"
)

// PostgresStore implements the TableStore interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL table store over an existing
// connection and ensures the schema exists.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return store, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL table store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS table_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		grid_spec TEXT NOT NULL,
		built_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS risk_entries (
		prevalence DOUBLE PRECISION NOT NULL,
		allele_freq DOUBLE PRECISION NOT NULL,
		odds_ratio DOUBLE PRECISION NOT NULL,
		relative_risk DOUBLE PRECISION NOT NULL,
		UNIQUE(prevalence, allele_freq, odds_ratio)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_pair ON risk_entries(prevalence, allele_freq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTable replaces any previously stored table with table inside one
// transaction.
func (s *PostgresStore) SaveTable(ctx context.Context, table *domain.LookupTable) error {
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

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO table_meta (id, grid_spec, built_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET grid_spec = EXCLUDED.grid_spec, built_at = EXCLUDED.built_at
	`, string(gridJSON), time.Now()); err != nil {
		return fmt.Errorf("failed to upsert metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO risk_entries (prevalence, allele_freq, odds_ratio, relative_risk)
		VALUES ($1, $2, $3, $4)
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
func (s *PostgresStore) LoadTable(ctx context.Context) (*domain.LookupTable, error) {
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM risk_entries").Scan(&count)
	return count, err
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

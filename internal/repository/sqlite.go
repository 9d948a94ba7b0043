package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// SQLiteStore implements domain.CacheStore on a local SQLite file. It is
// the default backend for development and single-node deployments.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite cache store.
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

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS vin_cache (
		vin TEXT PRIMARY KEY,
		vehicle TEXT NOT NULL,
		estimate TEXT DEFAULT '',
		decoded_at DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_vin_cache_decoded_at ON vin_cache(decoded_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Get retrieves a cached decode by VIN.
func (s *SQLiteStore) Get(ctx context.Context, vin string) (*domain.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT vin, vehicle, estimate, decoded_at
		FROM vin_cache
		WHERE vin = ?
	`, vin)

	var (
		entry        domain.CacheEntry
		vehicleJSON  string
		estimateJSON string
	)

	err := row.Scan(&entry.VIN, &vehicleJSON, &estimateJSON, &entry.DecodedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vehicle not cached: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}

	if err := json.Unmarshal([]byte(vehicleJSON), &entry.Vehicle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vehicle: %w", err)
	}
	if estimateJSON != "" {
		if err := json.Unmarshal([]byte(estimateJSON), &entry.Estimate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal estimate: %w", err)
		}
	}

	return &entry, nil
}

// Put stores or updates a cached decode.
func (s *SQLiteStore) Put(ctx context.Context, entry *domain.CacheEntry) error {
	vehicleJSON, err := json.Marshal(entry.Vehicle)
	if err != nil {
		return fmt.Errorf("failed to marshal vehicle: %w", err)
	}

	estimateJSON := ""
	if entry.Estimate != nil {
		data, err := json.Marshal(entry.Estimate)
		if err != nil {
			return fmt.Errorf("failed to marshal estimate: %w", err)
		}
		estimateJSON = string(data)
	}

	if entry.DecodedAt.IsZero() {
		entry.DecodedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vin_cache (vin, vehicle, estimate, decoded_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(vin) DO UPDATE SET
			vehicle = excluded.vehicle,
			estimate = excluded.estimate,
			decoded_at = excluded.decoded_at,
			updated_at = excluded.updated_at
	`,
		entry.VIN,
		string(vehicleJSON),
		estimateJSON,
		entry.DecodedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert: %w", err)
	}

	return nil
}

// List returns cached decodes with pagination, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vin, vehicle, estimate, decoded_at
		FROM vin_cache
		ORDER BY decoded_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.CacheEntry
	for rows.Next() {
		var (
			entry        domain.CacheEntry
			vehicleJSON  string
			estimateJSON string
		)
		if err := rows.Scan(&entry.VIN, &vehicleJSON, &estimateJSON, &entry.DecodedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(vehicleJSON), &entry.Vehicle); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vehicle: %w", err)
		}
		if estimateJSON != "" {
			if err := json.Unmarshal([]byte(estimateJSON), &entry.Estimate); err != nil {
				return nil, fmt.Errorf("failed to unmarshal estimate: %w", err)
			}
		}
		result = append(result, &entry)
	}
	return result, rows.Err()
}

// Count returns the total number of cached decodes.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vin_cache").Scan(&count)
	return count, err
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

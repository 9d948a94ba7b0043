// Package repository holds the durable decode cache implementations. Both
// backends implement domain.CacheStore: Postgres for service deployments,
// SQLite for single-node and development use.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// VehicleRepository persists decoded vehicles in Postgres. The vehicle and
// estimate payloads are stored as JSONB so decoder schema growth never
// needs a column migration.
type VehicleRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *pgxpool.Pool, logger *logrus.Logger) *VehicleRepository {
	return &VehicleRepository{
		db:  db,
		log: logger,
	}
}

// Get retrieves a cached decode by VIN
func (r *VehicleRepository) Get(ctx context.Context, vin string) (*domain.CacheEntry, error) {
	query := `
		SELECT vin, vehicle, estimate, decoded_at
		FROM vin_cache
		WHERE vin = $1`

	var (
		entry        domain.CacheEntry
		vehicleJSON  []byte
		estimateJSON []byte
	)

	err := r.db.QueryRow(ctx, query, vin).Scan(
		&entry.VIN,
		&vehicleJSON,
		&estimateJSON,
		&entry.DecodedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("vehicle not cached: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"vin":   vin,
			"error": err,
		}).Error("Failed to get cached vehicle")
		return nil, fmt.Errorf("getting cached vehicle: %w", err)
	}

	if err := json.Unmarshal(vehicleJSON, &entry.Vehicle); err != nil {
		return nil, fmt.Errorf("unmarshaling cached vehicle: %w", err)
	}
	if len(estimateJSON) > 0 {
		if err := json.Unmarshal(estimateJSON, &entry.Estimate); err != nil {
			return nil, fmt.Errorf("unmarshaling cached estimate: %w", err)
		}
	}

	return &entry, nil
}

// Put upserts a decoded vehicle. The upsert keeps the operation idempotent
// when two concurrent requests decode the same VIN.
func (r *VehicleRepository) Put(ctx context.Context, entry *domain.CacheEntry) error {
	vehicleJSON, err := json.Marshal(entry.Vehicle)
	if err != nil {
		return fmt.Errorf("marshaling vehicle: %w", err)
	}

	var estimateJSON []byte
	if entry.Estimate != nil {
		estimateJSON, err = json.Marshal(entry.Estimate)
		if err != nil {
			return fmt.Errorf("marshaling estimate: %w", err)
		}
	}

	if entry.DecodedAt.IsZero() {
		entry.DecodedAt = time.Now()
	}

	query := `
		INSERT INTO vin_cache (vin, vehicle, estimate, decoded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vin) DO UPDATE
		SET vehicle = EXCLUDED.vehicle,
			estimate = EXCLUDED.estimate,
			decoded_at = EXCLUDED.decoded_at,
			updated_at = NOW()`

	_, err = r.db.Exec(ctx, query,
		entry.VIN,
		vehicleJSON,
		estimateJSON,
		entry.DecodedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"vin":   entry.VIN,
			"error": err,
		}).Error("Failed to store cached vehicle")
		return fmt.Errorf("storing cached vehicle: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"vin":    entry.VIN,
		"make":   entry.Vehicle.Make,
		"source": entry.Vehicle.SourceQuality,
	}).Info("Vehicle cached")

	return nil
}

// List returns cached decodes ordered by recency, for admin inspection.
func (r *VehicleRepository) List(ctx context.Context, limit, offset int) ([]*domain.CacheEntry, error) {
	query := `
		SELECT vin, vehicle, estimate, decoded_at
		FROM vin_cache
		ORDER BY decoded_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.WithError(err).Error("Failed to list cached vehicles")
		return nil, fmt.Errorf("listing cached vehicles: %w", err)
	}
	defer rows.Close()

	var entries []*domain.CacheEntry
	for rows.Next() {
		var (
			entry        domain.CacheEntry
			vehicleJSON  []byte
			estimateJSON []byte
		)
		if err := rows.Scan(&entry.VIN, &vehicleJSON, &estimateJSON, &entry.DecodedAt); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		if err := json.Unmarshal(vehicleJSON, &entry.Vehicle); err != nil {
			return nil, fmt.Errorf("unmarshaling cached vehicle: %w", err)
		}
		if len(estimateJSON) > 0 {
			if err := json.Unmarshal(estimateJSON, &entry.Estimate); err != nil {
				return nil, fmt.Errorf("unmarshaling cached estimate: %w", err)
			}
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache rows: %w", err)
	}

	return entries, nil
}

// Count returns the number of cached decodes
func (r *VehicleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM vin_cache").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting cached vehicles: %w", err)
	}
	return count, nil
}

// Ping verifies database connectivity
func (r *VehicleRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close releases the connection pool
func (r *VehicleRepository) Close() error {
	r.db.Close()
	return nil
}

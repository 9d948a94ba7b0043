package domain

import (
	"context"
)

// CacheStore is the permanent identifier-to-vehicle store. Get returns
// ErrNotFound (wrapped) on a miss; Put is an idempotent upsert keyed on the
// identifier. Implementations must never expire entries.
type CacheStore interface {
	Get(ctx context.Context, vin string) (*CacheEntry, error)
	Put(ctx context.Context, entry *CacheEntry) error
	Ping(ctx context.Context) error
	Close() error
}

// VehicleDataClient is the external decoder API with its two endpoint
// variants. Both return an error on timeout, non-200 status or a payload
// that does not decode.
type VehicleDataClient interface {
	DecodeExtended(ctx context.Context, vin string) (*DecodedVehicle, error)
	DecodeBasic(ctx context.Context, vin string) (*DecodedVehicle, error)
}

// InsightGenerator produces the AI portion of an enrichment. Failures are
// recoverable: callers omit the AI fields rather than failing enrichment.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, vehicle *DecodedVehicle) (*AIInsight, error)
}

// Decoder runs the ordered decode strategy chain.
type Decoder interface {
	Decode(ctx context.Context, vin string) (*DecodedVehicle, error)
}

// Enricher produces heuristic and AI supplementary data. It never fails:
// a degraded result carries only the heuristic fields.
type Enricher interface {
	Enrich(ctx context.Context, vehicle *DecodedVehicle) *EnrichedEstimate
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Validate() error
	IsProduction() bool
}

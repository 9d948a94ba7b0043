package domain

import (
	"time"

	"github.com/motomind/vin-decoder-service/pkg/vin"
)

// Core Enums and Types

// SourceQuality records which fallback tier produced a decoded result. It is
// always surfaced to callers so UIs can signal reduced confidence; a
// low-quality result must never be indistinguishable from a high-quality one.
type SourceQuality string

const (
	SourceFull    SourceQuality = "full"    // network decode, authoritative fields
	SourcePartial SourceQuality = "partial" // structural decode, year and make only
	SourceManual  SourceQuality = "manual"  // caller-entered data
)

// VehicleCategory is the coarse classification used by heuristic estimates.
type VehicleCategory string

const (
	CategoryEconomy  VehicleCategory = "economy"
	CategoryTruck    VehicleCategory = "truck"
	CategorySUV      VehicleCategory = "suv"
	CategoryLuxury   VehicleCategory = "luxury"
	CategoryElectric VehicleCategory = "electric"
	CategoryAverage  VehicleCategory = "average"
)

// Core Data Models

// DecodedVehicle represents the decoded attributes of a vehicle. Logically
// immutable once produced: re-decoding the same identifier yields the same
// core fields, modulo upstream data revisions.
type DecodedVehicle struct {
	VIN            string            `json:"vin"`
	Year           int               `json:"year,omitempty"`
	Make           string            `json:"make,omitempty"`
	Model          string            `json:"model,omitempty"`
	Trim           string            `json:"trim,omitempty"`
	BodyType       string            `json:"body_type,omitempty"`
	Engine         string            `json:"engine,omitempty"`
	Transmission   string            `json:"transmission,omitempty"`
	DriveType      string            `json:"drive_type,omitempty"`
	FuelType       string            `json:"fuel_type,omitempty"`
	SafetyFeatures []string          `json:"safety_features,omitempty"`
	Specs          map[string]string `json:"specs,omitempty"`
	SourceQuality  SourceQuality     `json:"source_quality"`
}

// EnrichedEstimate carries heuristic and AI-generated supplementary data.
// Every field is non-authoritative and must be labeled as an estimate
// downstream. The AI fields are absent when the insight call failed.
type EnrichedEstimate struct {
	Category                 VehicleCategory `json:"category"`
	MPGCity                  int             `json:"mpg_city"`
	MPGHighway               int             `json:"mpg_highway"`
	MaintenanceIntervalMiles int             `json:"maintenance_interval_miles"`
	AnnualCostEstimate       int             `json:"annual_cost_estimate"`
	AISummary                string          `json:"ai_summary,omitempty"`
	AIReliabilityScore       float64         `json:"ai_reliability_score,omitempty"`
	AIMaintenanceTip         string          `json:"ai_maintenance_tip,omitempty"`
	AICostTip                string          `json:"ai_cost_tip,omitempty"`
}

// AIInsight is the parsed output of the text-generation API.
type AIInsight struct {
	Summary          string  `json:"summary"`
	ReliabilityScore float64 `json:"reliability_score"`
	MaintenanceTip   string  `json:"maintenance_tip"`
	CostTip          string  `json:"cost_tip"`
}

// CacheEntry is the persisted decode result, keyed by VIN. Entries are
// permanent: a VIN-to-vehicle mapping is a historical fact, so the durable
// stores carry no TTL and never evict.
type CacheEntry struct {
	VIN       string            `json:"vin"`
	Vehicle   *DecodedVehicle   `json:"vehicle"`
	Estimate  *EnrichedEstimate `json:"estimate,omitempty"`
	DecodedAt time.Time         `json:"decoded_at"`
}

// Request/Response Models

// DecodeRequest is the inbound payload for decode and validate operations.
type DecodeRequest struct {
	VIN string `json:"vin" binding:"required"`
}

// ManualEntryRequest is the inbound payload for caller-entered vehicle data.
// The pipeline forces SourceQuality to "manual" on the stored record.
type ManualEntryRequest struct {
	VIN      string `json:"vin" binding:"required"`
	Year     int    `json:"year"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Trim     string `json:"trim"`
	BodyType string `json:"body_type"`
	FuelType string `json:"fuel_type"`
}

// DecodeResult is the outbound result of a full pipeline run.
type DecodeResult struct {
	VIN        string               `json:"vin"`
	Vehicle    *DecodedVehicle      `json:"vehicle"`
	Estimate   *EnrichedEstimate    `json:"estimate,omitempty"`
	Validation vin.ValidationResult `json:"validation"`
	Cached     bool                 `json:"cached"`
	DecodedAt  time.Time            `json:"decoded_at"`
}

// PipelineStats reports orchestrator counters for the health endpoint.
type PipelineStats struct {
	Requests       int64     `json:"requests"`
	Rejected       int64     `json:"rejected"`
	MemoryHits     int64     `json:"memory_hits"`
	StoreHits      int64     `json:"store_hits"`
	Decodes        int64     `json:"decodes"`
	PartialDecodes int64     `json:"partial_decodes"`
	CacheErrors    int64     `json:"cache_errors"`
	LastReset      time.Time `json:"last_reset"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/motomind/vin-decoder-service/internal/domain"
	"github.com/motomind/vin-decoder-service/pkg/vin"
)

// ErrRejected marks a request refused before any decode work happened.
var ErrRejected = errors.New("vin rejected by validation")

// Pipeline orchestrates a decode request end to end: validate, consult the
// in-memory and durable caches, run the decode chain, enrich, persist.
// Cache failures degrade to a live decode; they never fail the request.
type Pipeline struct {
	validator *vin.Validator
	memory    *lru.Cache
	store     domain.CacheStore
	decoder   domain.Decoder
	enricher  domain.Enricher
	logger    *logrus.Logger

	requests       atomic.Int64
	rejected       atomic.Int64
	memoryHits     atomic.Int64
	storeHits      atomic.Int64
	decodes        atomic.Int64
	partialDecodes atomic.Int64
	cacheErrors    atomic.Int64
	startedAt      time.Time
}

// NewPipeline creates a new decode pipeline. memorySize bounds the
// in-process LRU tier; store may be nil when no durable cache is
// configured.
func NewPipeline(
	store domain.CacheStore,
	decoder domain.Decoder,
	enricher domain.Enricher,
	memorySize int,
	logger *logrus.Logger,
) (*Pipeline, error) {
	if memorySize <= 0 {
		memorySize = 1024
	}
	memory, err := lru.New(memorySize)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}

	return &Pipeline{
		validator: vin.NewValidator(),
		memory:    memory,
		store:     store,
		decoder:   decoder,
		enricher:  enricher,
		logger:    logger,
		startedAt: time.Now(),
	}, nil
}

// Validate checks a VIN without touching the network or caches.
func (p *Pipeline) Validate(raw string) vin.ValidationResult {
	return p.validator.Validate(raw)
}

// Decode runs the full pipeline for a raw VIN.
func (p *Pipeline) Decode(ctx context.Context, raw string) (*domain.DecodeResult, error) {
	p.requests.Add(1)

	validation := p.validator.Validate(raw)
	if !validation.Valid {
		p.rejected.Add(1)
		p.logger.WithFields(logrus.Fields{
			"vin":   raw,
			"error": validation.Error,
		}).Info("VIN rejected")
		return &domain.DecodeResult{
			VIN:        vin.Normalize(raw),
			Validation: validation,
		}, fmt.Errorf("%w: %s", ErrRejected, validation.Error)
	}

	id := vin.Normalize(raw)

	// Memory tier
	if cached, ok := p.memory.Get(id); ok {
		p.memoryHits.Add(1)
		entry := cached.(*domain.CacheEntry)
		return resultFromEntry(entry, validation, true), nil
	}

	// Durable tier
	if p.store != nil {
		entry, err := p.store.Get(ctx, id)
		switch {
		case err == nil:
			p.storeHits.Add(1)
			p.memory.Add(id, entry)
			return resultFromEntry(entry, validation, true), nil
		case errors.Is(err, domain.ErrNotFound):
			// fall through to a live decode
		default:
			p.cacheErrors.Add(1)
			p.logger.WithFields(logrus.Fields{
				"vin":   id,
				"error": err,
			}).Warn("Cache read failed, decoding live")
		}
	}

	vehicle, err := p.decoder.Decode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", id, err)
	}
	p.decodes.Add(1)
	if vehicle.SourceQuality == domain.SourcePartial {
		p.partialDecodes.Add(1)
	}

	estimate := p.enricher.Enrich(ctx, vehicle)

	entry := &domain.CacheEntry{
		VIN:       id,
		Vehicle:   vehicle,
		Estimate:  estimate,
		DecodedAt: time.Now(),
	}
	p.persist(ctx, entry)

	return resultFromEntry(entry, validation, false), nil
}

// ManualEntry stores caller-supplied vehicle data for a VIN. The record is
// tagged manual so it is never mistaken for a network decode; a later real
// decode overwrites it.
func (p *Pipeline) ManualEntry(ctx context.Context, req *domain.ManualEntryRequest) (*domain.DecodeResult, error) {
	p.requests.Add(1)

	validation := p.validator.Validate(req.VIN)
	if !validation.Valid {
		p.rejected.Add(1)
		return nil, fmt.Errorf("%w: %s", ErrRejected, validation.Error)
	}

	id := vin.Normalize(req.VIN)
	vehicle := &domain.DecodedVehicle{
		VIN:           id,
		Year:          req.Year,
		Make:          req.Make,
		Model:         req.Model,
		Trim:          req.Trim,
		BodyType:      req.BodyType,
		FuelType:      req.FuelType,
		SourceQuality: domain.SourceManual,
	}
	if vehicle.Year == 0 && validation.Metadata.ModelYear > 0 {
		vehicle.Year = validation.Metadata.ModelYear
	}

	estimate := p.enricher.Enrich(ctx, vehicle)

	entry := &domain.CacheEntry{
		VIN:       id,
		Vehicle:   vehicle,
		Estimate:  estimate,
		DecodedAt: time.Now(),
	}
	p.persist(ctx, entry)

	return resultFromEntry(entry, validation, false), nil
}

// GetVehicle serves a previously decoded VIN from the caches only.
func (p *Pipeline) GetVehicle(ctx context.Context, raw string) (*domain.CacheEntry, error) {
	id := vin.Normalize(raw)

	if cached, ok := p.memory.Get(id); ok {
		p.memoryHits.Add(1)
		return cached.(*domain.CacheEntry), nil
	}

	if p.store == nil {
		return nil, domain.ErrNotFound
	}

	entry, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.storeHits.Add(1)
	p.memory.Add(id, entry)
	return entry, nil
}

// Ping reports durable store health.
func (p *Pipeline) Ping(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	return p.store.Ping(ctx)
}

// Stats returns a snapshot of pipeline counters.
func (p *Pipeline) Stats() domain.PipelineStats {
	return domain.PipelineStats{
		Requests:       p.requests.Load(),
		Rejected:       p.rejected.Load(),
		MemoryHits:     p.memoryHits.Load(),
		StoreHits:      p.storeHits.Load(),
		Decodes:        p.decodes.Load(),
		PartialDecodes: p.partialDecodes.Load(),
		CacheErrors:    p.cacheErrors.Load(),
		LastReset:      p.startedAt,
	}
}

// persist writes to both cache tiers. Write failures are counted and
// logged, nothing more: the caller already has the result in hand.
func (p *Pipeline) persist(ctx context.Context, entry *domain.CacheEntry) {
	p.memory.Add(entry.VIN, entry)

	if p.store == nil {
		return
	}
	if err := p.store.Put(ctx, entry); err != nil {
		p.cacheErrors.Add(1)
		p.logger.WithFields(logrus.Fields{
			"vin":   entry.VIN,
			"error": err,
		}).Warn("Cache write failed")
	}
}

func resultFromEntry(entry *domain.CacheEntry, validation vin.ValidationResult, cached bool) *domain.DecodeResult {
	return &domain.DecodeResult{
		VIN:        entry.VIN,
		Vehicle:    entry.Vehicle,
		Estimate:   entry.Estimate,
		Validation: validation,
		Cached:     cached,
		DecodedAt:  entry.DecodedAt,
	}
}

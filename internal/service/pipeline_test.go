package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// memoryStore is an in-memory CacheStore with injectable failures.
type memoryStore struct {
	entries  map[string]*domain.CacheEntry
	getErr   error
	putErr   error
	getCalls int
	putCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]*domain.CacheEntry{}}
}

func (s *memoryStore) Get(_ context.Context, vinID string) (*domain.CacheEntry, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[vinID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func (s *memoryStore) Put(_ context.Context, entry *domain.CacheEntry) error {
	s.putCalls++
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[entry.VIN] = entry
	return nil
}

func (s *memoryStore) Ping(_ context.Context) error { return nil }
func (s *memoryStore) Close() error                 { return nil }

// stubDecoder counts invocations so tests can assert the network was never
// touched.
type stubDecoder struct {
	vehicle *domain.DecodedVehicle
	err     error
	calls   int
}

func (d *stubDecoder) Decode(_ context.Context, vinID string) (*domain.DecodedVehicle, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	vehicle := *d.vehicle
	vehicle.VIN = vinID
	return &vehicle, nil
}

func hondaDecoder() *stubDecoder {
	return &stubDecoder{vehicle: &domain.DecodedVehicle{
		Year:          1991,
		Make:          "HONDA",
		Model:         "Accord",
		BodyType:      "Sedan/Saloon",
		FuelType:      "Gasoline",
		SourceQuality: domain.SourceFull,
	}}
}

func newTestPipeline(t *testing.T, store domain.CacheStore, decoder domain.Decoder) *Pipeline {
	pipeline, err := NewPipeline(store, decoder, NewEnrichmentService(nil, 0, testLogger()), 16, testLogger())
	require.NoError(t, err)
	return pipeline
}

func TestPipeline_Decode_EndToEnd(t *testing.T) {
	store := newMemoryStore()
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, store, decoder)

	result, err := pipeline.Decode(context.Background(), "1hgbh41jxmn109186")

	require.NoError(t, err)
	assert.Equal(t, "1HGBH41JXMN109186", result.VIN)
	assert.True(t, result.Validation.Valid)
	assert.Equal(t, 100, result.Validation.Confidence)
	assert.Equal(t, "HONDA", result.Vehicle.Make)
	assert.Equal(t, domain.SourceFull, result.Vehicle.SourceQuality)
	assert.False(t, result.Cached)

	// Enrichment always accompanies a fresh decode
	require.NotNil(t, result.Estimate)
	assert.Equal(t, domain.CategoryEconomy, result.Estimate.Category)

	// Persisted for next time
	assert.Equal(t, 1, store.putCalls)
	_, ok := store.entries["1HGBH41JXMN109186"]
	assert.True(t, ok)
}

func TestPipeline_Decode_InvalidVINNeverDecodes(t *testing.T) {
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, newMemoryStore(), decoder)

	result, err := pipeline.Decode(context.Background(), "TOO-SHORT")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.False(t, result.Validation.Valid)
	assert.Equal(t, 0, decoder.calls, "rejected VIN must not reach the decoder")

	stats := pipeline.Stats()
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(1), stats.Rejected)
}

func TestPipeline_Decode_ChecksumFailureRejected(t *testing.T) {
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, newMemoryStore(), decoder)

	_, err := pipeline.Decode(context.Background(), "1HGBH4110MN109186")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "check digit")
	assert.Equal(t, 0, decoder.calls)
}

func TestPipeline_Decode_MemoryCacheHit(t *testing.T) {
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, newMemoryStore(), decoder)

	first, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, decoder.calls, "second request must be served from cache")

	// Idempotence: repeat decodes return the same vehicle
	assert.Equal(t, first.Vehicle, second.Vehicle)
	assert.Equal(t, first.DecodedAt, second.DecodedAt)

	stats := pipeline.Stats()
	assert.Equal(t, int64(1), stats.MemoryHits)
	assert.Equal(t, int64(1), stats.Decodes)
}

func TestPipeline_Decode_StoreHitWarmsMemory(t *testing.T) {
	store := newMemoryStore()
	decoder := hondaDecoder()

	// Warm the durable store through one pipeline
	warm := newTestPipeline(t, store, decoder)
	_, err := warm.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)

	// A fresh pipeline has a cold memory tier but shares the store
	cold := newTestPipeline(t, store, decoder)
	result, err := cold.Decode(context.Background(), "1HGBH41JXMN109186")

	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, 1, decoder.calls, "store hit must not decode again")
	assert.Equal(t, int64(1), cold.Stats().StoreHits)

	// Memory tier was warmed, next read skips the store
	reads := store.getCalls
	_, err = cold.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)
	assert.Equal(t, reads, store.getCalls)
}

func TestPipeline_Decode_StoreReadFailureFallsBackToLive(t *testing.T) {
	store := newMemoryStore()
	store.getErr = fmt.Errorf("connection refused")
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, store, decoder)

	result, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")

	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 1, decoder.calls)
	assert.Equal(t, int64(1), pipeline.Stats().CacheErrors)
}

func TestPipeline_Decode_StoreWriteFailureIsSoft(t *testing.T) {
	store := newMemoryStore()
	store.putErr = fmt.Errorf("disk full")
	pipeline := newTestPipeline(t, store, hondaDecoder())

	result, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")

	require.NoError(t, err)
	require.NotNil(t, result.Vehicle)
	assert.Equal(t, int64(1), pipeline.Stats().CacheErrors)
}

func TestPipeline_Decode_DecoderFailure(t *testing.T) {
	decoder := &stubDecoder{err: fmt.Errorf("all decode strategies failed")}
	pipeline := newTestPipeline(t, newMemoryStore(), decoder)

	_, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding 1HGBH41JXMN109186")
}

func TestPipeline_Decode_PartialCounted(t *testing.T) {
	decoder := &stubDecoder{vehicle: &domain.DecodedVehicle{
		Year:          2011,
		Make:          "Ford",
		SourceQuality: domain.SourcePartial,
	}}
	pipeline := newTestPipeline(t, newMemoryStore(), decoder)

	result, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")

	require.NoError(t, err)
	assert.Equal(t, domain.SourcePartial, result.Vehicle.SourceQuality)
	assert.Equal(t, int64(1), pipeline.Stats().PartialDecodes)
}

func TestPipeline_ManualEntry(t *testing.T) {
	store := newMemoryStore()
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, store, decoder)

	result, err := pipeline.ManualEntry(context.Background(), &domain.ManualEntryRequest{
		VIN:      "1HGBH41JXMN109186",
		Make:     "Honda",
		Model:    "Accord",
		BodyType: "Sedan",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, result.Vehicle.SourceQuality)
	// Year backfilled from the VIN's year code when omitted
	assert.Equal(t, 1991, result.Vehicle.Year)
	assert.Equal(t, 0, decoder.calls, "manual entry must not decode")
	assert.Equal(t, 1, store.putCalls)
}

func TestPipeline_ManualEntry_InvalidVIN(t *testing.T) {
	pipeline := newTestPipeline(t, newMemoryStore(), hondaDecoder())

	_, err := pipeline.ManualEntry(context.Background(), &domain.ManualEntryRequest{
		VIN:  "INVALID",
		Make: "Honda",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestPipeline_GetVehicle(t *testing.T) {
	store := newMemoryStore()
	pipeline := newTestPipeline(t, store, hondaDecoder())

	_, err := pipeline.GetVehicle(context.Background(), "1HGBH41JXMN109186")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = pipeline.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)

	entry, err := pipeline.GetVehicle(context.Background(), "1hgbh41jxmn109186")
	require.NoError(t, err)
	assert.Equal(t, "HONDA", entry.Vehicle.Make)
}

func TestPipeline_WithoutStore(t *testing.T) {
	decoder := hondaDecoder()
	pipeline := newTestPipeline(t, nil, decoder)

	result, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)
	assert.False(t, result.Cached)

	// Memory tier still works without a durable store
	second, err := pipeline.Decode(context.Background(), "1HGBH41JXMN109186")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, decoder.calls)

	assert.NoError(t, pipeline.Ping(context.Background()))
}

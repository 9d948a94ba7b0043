package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// vehicleCache is the hot tier contract, satisfied by CacheClient.
type vehicleCache interface {
	GetVehicle(ctx context.Context, vin string) (*domain.DecodedVehicle, bool, error)
	SetVehicle(ctx context.Context, vin string, vehicle *domain.DecodedVehicle, ttl time.Duration) error
	GetStats(ctx context.Context) (map[string]interface{}, error)
	Close() error
}

// ResilientVehicleClient wraps the vPIC client with circuit breakers and an
// optional Redis hot tier. The two decode endpoints get independent breakers
// since vPIC outages are sometimes endpoint-specific.
type ResilientVehicleClient struct {
	vpicClient *VPICClient
	cache      vehicleCache

	extendedBreaker *gobreaker.CircuitBreaker
	basicBreaker    *gobreaker.CircuitBreaker

	logger *logrus.Logger
}

// NewResilientVehicleClient creates a new resilient vehicle data client.
// cacheClient may be nil when the Redis tier is disabled.
func NewResilientVehicleClient(vpicConfig domain.VPICConfig, cacheClient *CacheClient, logger *logrus.Logger) *ResilientVehicleClient {
	vpicClient := NewVPICClient(vpicConfig)

	onStateChange := func(name string, from gobreaker.State, to gobreaker.State) {
		logger.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}

	extendedBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "VPICExtended",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: onStateChange,
	})

	basicBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "VPICBasic",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: onStateChange,
	})

	r := &ResilientVehicleClient{
		vpicClient:      vpicClient,
		extendedBreaker: extendedBreaker,
		basicBreaker:    basicBreaker,
		logger:          logger,
	}
	// A typed nil must not become a non-nil interface value
	if cacheClient != nil {
		r.cache = cacheClient
	}
	return r
}

// DecodeExtended decodes via the extended endpoint with circuit breaker and
// hot-tier caching.
func (r *ResilientVehicleClient) DecodeExtended(ctx context.Context, vin string) (*domain.DecodedVehicle, error) {
	return r.decode(ctx, vin, r.extendedBreaker, r.vpicClient.DecodeExtended)
}

// DecodeBasic decodes via the basic endpoint with circuit breaker and
// hot-tier caching.
func (r *ResilientVehicleClient) DecodeBasic(ctx context.Context, vin string) (*domain.DecodedVehicle, error) {
	return r.decode(ctx, vin, r.basicBreaker, r.vpicClient.DecodeBasic)
}

func (r *ResilientVehicleClient) decode(
	ctx context.Context,
	vin string,
	breaker *gobreaker.CircuitBreaker,
	call func(context.Context, string) (*domain.DecodedVehicle, error),
) (*domain.DecodedVehicle, error) {
	// Check hot tier first
	if r.cache != nil {
		if vehicle, found, err := r.cache.GetVehicle(ctx, vin); err == nil && found {
			return vehicle, nil
		}
	}

	result, err := breaker.Execute(func() (interface{}, error) {
		return call(ctx, vin)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			// Serve from the hot tier while the provider is tripped
			if r.cache != nil {
				if vehicle, found, cacheErr := r.cache.GetVehicle(ctx, vin); cacheErr == nil && found {
					return vehicle, nil
				}
			}
			return nil, fmt.Errorf("vPIC unavailable (circuit breaker %s open)", breaker.Name())
		}
		return nil, fmt.Errorf("vPIC decode failed: %w", err)
	}

	vehicle := result.(*domain.DecodedVehicle)

	if r.cache != nil {
		if cacheErr := r.cache.SetVehicle(ctx, vin, vehicle, 0); cacheErr != nil {
			// Cache failures never fail the decode
			r.logger.WithError(cacheErr).WithField("vin", vin).Warn("Failed to cache decoded vehicle")
		}
	}

	return vehicle, nil
}

// GetCircuitBreakerStats returns statistics for both breakers
func (r *ResilientVehicleClient) GetCircuitBreakerStats() map[string]gobreaker.Counts {
	return map[string]gobreaker.Counts{
		"VPICExtended": r.extendedBreaker.Counts(),
		"VPICBasic":    r.basicBreaker.Counts(),
	}
}

// GetCircuitBreakerStates returns the current state of both breakers
func (r *ResilientVehicleClient) GetCircuitBreakerStates() map[string]gobreaker.State {
	return map[string]gobreaker.State{
		"VPICExtended": r.extendedBreaker.State(),
		"VPICBasic":    r.basicBreaker.State(),
	}
}

// GetCacheStats reports hot tier statistics; nil when the tier is disabled.
func (r *ResilientVehicleClient) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	if r.cache == nil {
		return nil, nil
	}
	return r.cache.GetStats(ctx)
}

// Close releases the hot tier connection if one is configured
func (r *ResilientVehicleClient) Close() error {
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}

// Package service contains the decode pipeline: the ordered strategy chain,
// the enrichment engine, and the orchestrator that ties validation, caching
// and persistence together.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/motomind/vin-decoder-service/internal/domain"
	"github.com/motomind/vin-decoder-service/pkg/vin"
)

// DecoderService runs the ordered decode strategies: the extended network
// endpoint first, the basic endpoint second, and finally a local structural
// decode of the VIN itself. The first strategy to produce a result wins;
// later strategies never overwrite an earlier success.
type DecoderService struct {
	client          domain.VehicleDataClient
	strategyTimeout time.Duration
	logger          *logrus.Logger
}

// NewDecoderService creates a new decoder service
func NewDecoderService(client domain.VehicleDataClient, strategyTimeout time.Duration, logger *logrus.Logger) *DecoderService {
	if strategyTimeout == 0 {
		strategyTimeout = 5 * time.Second
	}
	return &DecoderService{
		client:          client,
		strategyTimeout: strategyTimeout,
		logger:          logger,
	}
}

// Decode runs the strategy chain for a normalized VIN. Returns an error
// only when every strategy failed, which for a well-formed VIN means the
// structural decode could not even resolve a model year.
func (s *DecoderService) Decode(ctx context.Context, vinID string) (*domain.DecodedVehicle, error) {
	strategies := []struct {
		name string
		run  func(context.Context, string) (*domain.DecodedVehicle, error)
	}{
		{"extended", s.decodeExtended},
		{"basic", s.decodeBasic},
		{"structural", s.decodeStructural},
	}

	var lastErr error
	for _, strategy := range strategies {
		vehicle, err := strategy.run(ctx, vinID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"vin":      vinID,
				"strategy": strategy.name,
				"error":    err,
			}).Warn("Decode strategy failed")
			lastErr = err
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"vin":      vinID,
			"strategy": strategy.name,
			"quality":  vehicle.SourceQuality,
		}).Info("Decode strategy succeeded")
		return vehicle, nil
	}

	return nil, fmt.Errorf("all decode strategies failed for %s: %w", vinID, lastErr)
}

func (s *DecoderService) decodeExtended(ctx context.Context, vinID string) (*domain.DecodedVehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.strategyTimeout)
	defer cancel()

	vehicle, err := s.client.DecodeExtended(ctx, vinID)
	if err != nil {
		return nil, err
	}
	vehicle.SourceQuality = domain.SourceFull
	return vehicle, nil
}

func (s *DecoderService) decodeBasic(ctx context.Context, vinID string) (*domain.DecodedVehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.strategyTimeout)
	defer cancel()

	vehicle, err := s.client.DecodeBasic(ctx, vinID)
	if err != nil {
		return nil, err
	}
	vehicle.SourceQuality = domain.SourceFull
	return vehicle, nil
}

// decodeStructural derives year and manufacturer from the VIN characters
// alone. No network involved, so it also works fully offline.
func (s *DecoderService) decodeStructural(_ context.Context, vinID string) (*domain.DecodedVehicle, error) {
	year, make, err := vin.StructuralDecode(vinID)
	if err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	if year == 0 && make == "" {
		return nil, fmt.Errorf("structural decode resolved nothing for %s", vinID)
	}

	return &domain.DecodedVehicle{
		VIN:           vinID,
		Year:          year,
		Make:          make,
		SourceQuality: domain.SourcePartial,
	}, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// categoryEstimate holds the heuristic baseline figures for one vehicle
// category.
type categoryEstimate struct {
	mpgCity             int
	mpgHighway          int
	maintenanceInterval int
	annualCost          int
}

var categoryEstimates = map[domain.VehicleCategory]categoryEstimate{
	domain.CategoryEconomy:  {mpgCity: 28, mpgHighway: 36, maintenanceInterval: 7500, annualCost: 400},
	domain.CategoryTruck:    {mpgCity: 17, mpgHighway: 23, maintenanceInterval: 5000, annualCost: 700},
	domain.CategorySUV:      {mpgCity: 20, mpgHighway: 26, maintenanceInterval: 6000, annualCost: 600},
	domain.CategoryLuxury:   {mpgCity: 19, mpgHighway: 27, maintenanceInterval: 7500, annualCost: 1100},
	domain.CategoryElectric: {mpgCity: 120, mpgHighway: 105, maintenanceInterval: 10000, annualCost: 300},
	domain.CategoryAverage:  {mpgCity: 23, mpgHighway: 30, maintenanceInterval: 6000, annualCost: 550},
}

var luxuryMakes = map[string]bool{
	"BMW":           true,
	"MERCEDES-BENZ": true,
	"AUDI":          true,
	"LEXUS":         true,
	"PORSCHE":       true,
	"JAGUAR":        true,
	"LAND ROVER":    true,
	"MASERATI":      true,
	"BENTLEY":       true,
	"CADILLAC":      true,
	"ACURA":         true,
	"INFINITI":      true,
	"GENESIS":       true,
	"VOLVO":         true,
}

var economyMakes = map[string]bool{
	"HONDA":      true,
	"TOYOTA":     true,
	"HYUNDAI":    true,
	"KIA":        true,
	"NISSAN":     true,
	"MAZDA":      true,
	"MITSUBISHI": true,
	"SUZUKI":     true,
	"FIAT":       true,
}

// EnrichmentService derives heuristic cost and efficiency estimates from a
// decoded vehicle and optionally layers AI-written insight on top. It never
// fails: when the AI step errors the estimate simply carries heuristic
// fields only.
type EnrichmentService struct {
	insights  domain.InsightGenerator
	aiTimeout time.Duration
	logger    *logrus.Logger
}

// NewEnrichmentService creates a new enrichment service. insights may be
// nil, which disables the AI step entirely.
func NewEnrichmentService(insights domain.InsightGenerator, aiTimeout time.Duration, logger *logrus.Logger) *EnrichmentService {
	if aiTimeout == 0 {
		aiTimeout = 15 * time.Second
	}
	return &EnrichmentService{
		insights:  insights,
		aiTimeout: aiTimeout,
		logger:    logger,
	}
}

// Enrich produces the estimate for a decoded vehicle.
func (s *EnrichmentService) Enrich(ctx context.Context, vehicle *domain.DecodedVehicle) *domain.EnrichedEstimate {
	category := Categorize(vehicle)
	base := categoryEstimates[category]

	estimate := &domain.EnrichedEstimate{
		Category:                 category,
		MPGCity:                  base.mpgCity,
		MPGHighway:               base.mpgHighway,
		MaintenanceIntervalMiles: base.maintenanceInterval,
		AnnualCostEstimate:       base.annualCost,
	}

	// Older vehicles cost more to keep on the road
	if vehicle.Year > 0 {
		age := time.Now().Year() - vehicle.Year
		if age > 10 {
			estimate.AnnualCostEstimate += (age - 10) * 50
		}
	}

	if s.insights != nil {
		s.applyInsight(ctx, vehicle, estimate)
	}

	return estimate
}

// applyInsight runs the AI step with its own deadline.
func (s *EnrichmentService) applyInsight(ctx context.Context, vehicle *domain.DecodedVehicle, estimate *domain.EnrichedEstimate) {
	ctx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	insight, err := s.insights.GenerateInsight(ctx, vehicle)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"vin":   vehicle.VIN,
			"error": err,
		}).Warn("AI insight generation failed, serving heuristic estimate")
		return
	}

	estimate.AISummary = insight.Summary
	estimate.AIReliabilityScore = insight.ReliabilityScore
	estimate.AIMaintenanceTip = insight.MaintenanceTip
	estimate.AICostTip = insight.CostTip
}

// Categorize maps a decoded vehicle onto its estimate category. Fuel type
// wins over body type, body type wins over make.
func Categorize(vehicle *domain.DecodedVehicle) domain.VehicleCategory {
	fuel := strings.ToUpper(vehicle.FuelType)
	if strings.Contains(fuel, "ELECTRIC") {
		return domain.CategoryElectric
	}

	body := strings.ToUpper(vehicle.BodyType)
	switch {
	case strings.Contains(body, "PICKUP") || strings.Contains(body, "TRUCK"):
		return domain.CategoryTruck
	case strings.Contains(body, "SUV") || strings.Contains(body, "SPORT UTILITY") || strings.Contains(body, "MPV"):
		return domain.CategorySUV
	}

	make := strings.ToUpper(vehicle.Make)
	switch {
	case luxuryMakes[make]:
		return domain.CategoryLuxury
	case economyMakes[make]:
		return domain.CategoryEconomy
	}

	return domain.CategoryAverage
}

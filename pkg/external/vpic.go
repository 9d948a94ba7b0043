// Package external contains clients for the third-party APIs the decode
// pipeline depends on: the NHTSA vPIC vehicle decoder, the text-generation
// API used for AI enrichment, and the Redis hot tier that fronts them.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// VPICClient handles interactions with the NHTSA vPIC decoder API. The API
// is free and unauthenticated; it is treated as unreliable and always sits
// behind the resilient wrapper.
type VPICClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewVPICClient creates a new vPIC API client
func NewVPICClient(config domain.VPICConfig) *VPICClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://vpic.nhtsa.dot.gov/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	return &VPICClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// vpicResponse represents the JSON envelope returned by both vPIC decode
// endpoints. All attribute values arrive as strings.
type vpicResponse struct {
	Count          int          `json:"Count"`
	Message        string       `json:"Message"`
	SearchCriteria string       `json:"SearchCriteria"`
	Results        []vpicResult `json:"Results"`
}

type vpicResult struct {
	Make              string `json:"Make"`
	Model             string `json:"Model"`
	ModelYear         string `json:"ModelYear"`
	Trim              string `json:"Trim"`
	Series            string `json:"Series"`
	BodyClass         string `json:"BodyClass"`
	EngineModel       string `json:"EngineModel"`
	EngineCylinders   string `json:"EngineCylinders"`
	DisplacementL     string `json:"DisplacementL"`
	EngineHP          string `json:"EngineHP"`
	TransmissionStyle string `json:"TransmissionStyle"`
	TransmissionSpeeds string `json:"TransmissionSpeeds"`
	DriveType         string `json:"DriveType"`
	FuelTypePrimary   string `json:"FuelTypePrimary"`
	Doors             string `json:"Doors"`
	PlantCountry      string `json:"PlantCountry"`
	VehicleType       string `json:"VehicleType"`
	GVWR              string `json:"GVWR"`

	// Safety fields, populated only by the extended endpoint.
	ABS                     string `json:"ABS"`
	ESC                     string `json:"ESC"`
	TractionControl         string `json:"TractionControl"`
	TPMS                    string `json:"TPMS"`
	AirBagLocFront          string `json:"AirBagLocFront"`
	AirBagLocSide           string `json:"AirBagLocSide"`
	AirBagLocCurtain        string `json:"AirBagLocCurtain"`
	BlindSpotMon            string `json:"BlindSpotMon"`
	ForwardCollisionWarning string `json:"ForwardCollisionWarning"`
	LaneDepartureWarning    string `json:"LaneDepartureWarning"`
	RearVisibilitySystem    string `json:"RearVisibilitySystem"`
	AdaptiveCruiseControl   string `json:"AdaptiveCruiseControl"`

	ErrorCode string `json:"ErrorCode"`
	ErrorText string `json:"ErrorText"`
}

// DecodeExtended decodes a VIN via the extended endpoint, which carries the
// richest field set including safety features and drivetrain detail.
func (c *VPICClient) DecodeExtended(ctx context.Context, vin string) (*domain.DecodedVehicle, error) {
	result, err := c.decode(ctx, "DecodeVinValuesExtended", vin)
	if err != nil {
		return nil, err
	}
	vehicle := c.convertToDecodedVehicle(vin, result)
	vehicle.SafetyFeatures = extractSafetyFeatures(result)
	return vehicle, nil
}

// DecodeBasic decodes a VIN via the basic endpoint. Fewer fields, same
// provider; used when the extended endpoint is unavailable.
func (c *VPICClient) DecodeBasic(ctx context.Context, vin string) (*domain.DecodedVehicle, error) {
	result, err := c.decode(ctx, "DecodeVinValues", vin)
	if err != nil {
		return nil, err
	}
	return c.convertToDecodedVehicle(vin, result), nil
}

// decode performs a single request against one decode endpoint.
func (c *VPICClient) decode(ctx context.Context, endpoint, vin string) (*vpicResult, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/vehicles/%s/%s?format=json", c.baseURL, endpoint, vin)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create vPIC request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vPIC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vPIC %s returned status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vPIC response: %w", err)
	}

	var decoded vpicResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse vPIC response: %w", err)
	}

	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("vPIC %s returned no results for %s", endpoint, vin)
	}

	result := &decoded.Results[0]
	if result.Make == "" && result.Model == "" {
		return nil, fmt.Errorf("vPIC %s returned an empty decode for %s: %s", endpoint, vin, result.ErrorText)
	}

	return result, nil
}

// convertToDecodedVehicle maps a vPIC result onto the domain model. The
// secondary attributes land in Specs so the richer extended payload is not
// lost.
func (c *VPICClient) convertToDecodedVehicle(vin string, r *vpicResult) *domain.DecodedVehicle {
	vehicle := &domain.DecodedVehicle{
		VIN:           vin,
		Make:          r.Make,
		Model:         r.Model,
		Trim:          firstNonEmpty(r.Trim, r.Series),
		BodyType:      r.BodyClass,
		Engine:        buildEngineDescription(r),
		Transmission:  r.TransmissionStyle,
		DriveType:     r.DriveType,
		FuelType:      r.FuelTypePrimary,
		SourceQuality: domain.SourceFull,
	}

	if year, err := parseModelYear(r.ModelYear); err == nil {
		vehicle.Year = year
	}

	specs := map[string]string{}
	for key, value := range map[string]string{
		"engine_cylinders":    r.EngineCylinders,
		"displacement_l":      r.DisplacementL,
		"engine_hp":           r.EngineHP,
		"transmission_speeds": r.TransmissionSpeeds,
		"doors":               r.Doors,
		"plant_country":       r.PlantCountry,
		"vehicle_type":        r.VehicleType,
		"gvwr":                r.GVWR,
	} {
		if value != "" {
			specs[key] = value
		}
	}
	if len(specs) > 0 {
		vehicle.Specs = specs
	}

	return vehicle
}

// extractSafetyFeatures collects the extended endpoint's safety attributes
// that report as present.
func extractSafetyFeatures(r *vpicResult) []string {
	var features []string
	add := func(value, name string) {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "Not Applicable") {
			return
		}
		features = append(features, name)
	}

	add(r.ABS, "Anti-lock Braking System")
	add(r.ESC, "Electronic Stability Control")
	add(r.TractionControl, "Traction Control")
	add(r.TPMS, "Tire Pressure Monitoring")
	add(r.AirBagLocFront, "Front Airbags")
	add(r.AirBagLocSide, "Side Airbags")
	add(r.AirBagLocCurtain, "Curtain Airbags")
	add(r.BlindSpotMon, "Blind Spot Monitoring")
	add(r.ForwardCollisionWarning, "Forward Collision Warning")
	add(r.LaneDepartureWarning, "Lane Departure Warning")
	add(r.RearVisibilitySystem, "Backup Camera")
	add(r.AdaptiveCruiseControl, "Adaptive Cruise Control")

	return features
}

func buildEngineDescription(r *vpicResult) string {
	var parts []string
	if r.DisplacementL != "" {
		parts = append(parts, r.DisplacementL+"L")
	}
	if r.EngineCylinders != "" {
		parts = append(parts, r.EngineCylinders+"-cylinder")
	}
	if r.EngineModel != "" {
		parts = append(parts, r.EngineModel)
	}
	return strings.Join(parts, " ")
}

func parseModelYear(s string) (int, error) {
	var year int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &year); err != nil {
		return 0, fmt.Errorf("unparseable model year %q", s)
	}
	return year, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// stubVehicleClient simulates the network decoder with per-endpoint
// failures and call counting.
type stubVehicleClient struct {
	extendedErr   error
	basicErr      error
	extendedCalls int
	basicCalls    int
}

func (c *stubVehicleClient) DecodeExtended(_ context.Context, vinID string) (*domain.DecodedVehicle, error) {
	c.extendedCalls++
	if c.extendedErr != nil {
		return nil, c.extendedErr
	}
	return &domain.DecodedVehicle{
		VIN:      vinID,
		Year:     1991,
		Make:     "HONDA",
		Model:    "Accord",
		BodyType: "Sedan/Saloon",
		FuelType: "Gasoline",
		SafetyFeatures: []string{
			"Anti-lock Braking System",
		},
	}, nil
}

func (c *stubVehicleClient) DecodeBasic(_ context.Context, vinID string) (*domain.DecodedVehicle, error) {
	c.basicCalls++
	if c.basicErr != nil {
		return nil, c.basicErr
	}
	return &domain.DecodedVehicle{
		VIN:   vinID,
		Year:  1991,
		Make:  "HONDA",
		Model: "Accord",
	}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestDecoderService_ExtendedWins(t *testing.T) {
	client := &stubVehicleClient{}
	decoder := NewDecoderService(client, 0, testLogger())

	vehicle, err := decoder.Decode(context.Background(), "1HGBH41JXMN109186")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceFull, vehicle.SourceQuality)
	assert.Equal(t, "Sedan/Saloon", vehicle.BodyType)
	assert.Equal(t, 1, client.extendedCalls)
	// Later strategies never run after a success
	assert.Equal(t, 0, client.basicCalls)
}

func TestDecoderService_FallsBackToBasic(t *testing.T) {
	client := &stubVehicleClient{extendedErr: fmt.Errorf("503 from upstream")}
	decoder := NewDecoderService(client, 0, testLogger())

	vehicle, err := decoder.Decode(context.Background(), "1HGBH41JXMN109186")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceFull, vehicle.SourceQuality)
	assert.Equal(t, "HONDA", vehicle.Make)
	assert.Equal(t, 1, client.extendedCalls)
	assert.Equal(t, 1, client.basicCalls)
}

func TestDecoderService_FallsBackToStructural(t *testing.T) {
	client := &stubVehicleClient{
		extendedErr: fmt.Errorf("timeout"),
		basicErr:    fmt.Errorf("timeout"),
	}
	decoder := NewDecoderService(client, 0, testLogger())

	// A well-formed VIN always yields at least year and make locally
	vehicle, err := decoder.Decode(context.Background(), "1FTFW1ET5BFC10312")

	require.NoError(t, err)
	assert.Equal(t, domain.SourcePartial, vehicle.SourceQuality)
	assert.Equal(t, 2011, vehicle.Year)
	assert.Equal(t, "Ford", vehicle.Make)
	assert.Empty(t, vehicle.Model)
}

func TestDecoderService_StructuralUnknownManufacturer(t *testing.T) {
	client := &stubVehicleClient{
		extendedErr: fmt.Errorf("timeout"),
		basicErr:    fmt.Errorf("timeout"),
	}
	decoder := NewDecoderService(client, 0, testLogger())

	// Unknown WMI still resolves the model year
	vehicle, err := decoder.Decode(context.Background(), "8AGBH41JXMN109186")

	require.NoError(t, err)
	assert.Equal(t, domain.SourcePartial, vehicle.SourceQuality)
	assert.Equal(t, 1991, vehicle.Year)
	assert.Empty(t, vehicle.Make)
}

func TestDecoderService_AllStrategiesFail(t *testing.T) {
	client := &stubVehicleClient{
		extendedErr: fmt.Errorf("timeout"),
		basicErr:    fmt.Errorf("timeout"),
	}
	decoder := NewDecoderService(client, 0, testLogger())

	_, err := decoder.Decode(context.Background(), "NOT-A-REAL-VIN-00")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all decode strategies failed")
}

package vin

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name           string
		vin            string
		wantValid      bool
		wantConfidence int
		wantErrSubstr  string
	}{
		{
			name:           "valid Honda VIN passes all four checks",
			vin:            "1HGBH41JXMN109186",
			wantValid:      true,
			wantConfidence: 100,
		},
		{
			name:           "lowercase input is normalized",
			vin:            "1hgbh41jxmn109186",
			wantValid:      true,
			wantConfidence: 100,
		},
		{
			name:           "corrupted check digit fails checksum first",
			vin:            "1HGBH4110MN109186",
			wantValid:      false,
			wantConfidence: 75,
			wantErrSubstr:  "check digit mismatch at position 9",
		},
		{
			name:           "pre-1981 model year waives checksum enforcement",
			vin:            "1HGBH4110AN109186",
			wantValid:      true,
			wantConfidence: 100,
		},
		{
			name:           "unknown region is a soft failure",
			vin:            "0HGBH41J2MN109186",
			wantValid:      true,
			wantConfidence: 75,
			wantErrSubstr:  "unknown manufacturer region",
		},
		{
			name:          "too short",
			vin:           "1HGBH41JX",
			wantValid:     false,
			wantErrSubstr: "must be 17 characters",
		},
		{
			name:          "disallowed character Q names position 17",
			vin:           "1FTFW1ET5BFC1031Q",
			wantValid:     false,
			wantErrSubstr: "invalid character 'Q' at position 17",
		},
		{
			name:          "disallowed character I names position 2",
			vin:           "1IGBH41JXMN109186",
			wantValid:     false,
			wantErrSubstr: "invalid character 'I' at position 2",
		},
		{
			name:          "empty input",
			vin:           "",
			wantValid:     false,
			wantErrSubstr: "must be 17 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.Validate(tt.vin)
			if result.Valid != tt.wantValid {
				t.Errorf("Validate(%q) valid = %v, want %v (error: %s)", tt.vin, result.Valid, tt.wantValid, result.Error)
			}
			if result.Confidence != tt.wantConfidence {
				t.Errorf("Validate(%q) confidence = %d, want %d", tt.vin, result.Confidence, tt.wantConfidence)
			}
			if tt.wantErrSubstr != "" && !strings.Contains(result.Error, tt.wantErrSubstr) {
				t.Errorf("Validate(%q) error = %q, want substring %q", tt.vin, result.Error, tt.wantErrSubstr)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	validator := NewValidator()

	result := validator.Validate("1HGBH41JXMN109186")
	if result.Metadata.ModelYear != 1991 {
		t.Errorf("ModelYear = %d, want 1991", result.Metadata.ModelYear)
	}
	if result.Metadata.RegionName != "United States" {
		t.Errorf("RegionName = %q, want %q", result.Metadata.RegionName, "United States")
	}
	if result.Metadata.ManufacturerCode != "1HG" {
		t.Errorf("ManufacturerCode = %q, want %q", result.Metadata.ManufacturerCode, "1HG")
	}
}

func TestValidateFormatErrorSkipsOtherChecks(t *testing.T) {
	validator := NewValidator()

	result := validator.Validate("1FTFW1ET5BFC1031Q")
	if result.Confidence != 0 {
		t.Errorf("confidence after format error = %d, want 0", result.Confidence)
	}
	if result.Metadata.ModelYear != 0 || result.Metadata.RegionName != "" {
		t.Errorf("metadata should be empty after format error, got %+v", result.Metadata)
	}
}

func TestVerifyCheckDigit(t *testing.T) {
	tests := []struct {
		vin     string
		wantErr bool
	}{
		{"1HGBH41JXMN109186", false}, // weighted sum 340, remainder 10 maps to X
		{"0HGBH41J2MN109186", false}, // weighted sum 332, remainder 2
		{"1HGBH4110MN109186", true},
	}

	for _, tt := range tests {
		err := verifyCheckDigit(tt.vin)
		if (err != nil) != tt.wantErr {
			t.Errorf("verifyCheckDigit(%q) error = %v, wantErr %v", tt.vin, err, tt.wantErr)
		}
	}
}

func TestDecodeModelYear(t *testing.T) {
	tests := []struct {
		name        string
		vin         string
		currentYear int
		want        int
		wantErr     bool
	}{
		{"digit in position 7 selects first cycle", "1HGBH41JXMN109186", 2026, 1991, false},
		{"letter in position 7 selects second cycle", "1FTFW1ETXBFC10312", 2026, 2011, false},
		{"second cycle clamped back when in the future", "1FTFW1ETXWFC10312", 2026, 1998, false},
		{"code A with digit position 7 is 1980", "1HGBH4110AN109186", 2026, 1980, false},
		{"U is not a year code", "1HGBH41JXUN109186", 2026, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeModelYear(tt.vin, tt.currentYear)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeModelYear() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("decodeModelYear() = %d, want %d", got, tt.want)
			}
		})
	}
}

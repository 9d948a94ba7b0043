// Package vin provides syntactic and semantic validation of 17-character
// vehicle identification numbers, plus a structural partial decode that
// derives the model year and manufacturer from the identifier alone.
package vin

import (
	"fmt"
	"strings"
	"time"
)

// Length is the fixed length of a modern VIN.
const Length = 17

const (
	checkDigitPos = 8 // zero-based position 9
	yearCodePos   = 9 // zero-based position 10
	disambigPos   = 6 // zero-based position 7, letter here means second cycle
)

// Metadata carries the fields derived from fixed VIN positions during
// validation.
type Metadata struct {
	ModelYear        int    `json:"model_year,omitempty"`
	RegionName       string `json:"region_name,omitempty"`
	ManufacturerCode string `json:"manufacturer_code,omitempty"`
}

// ValidationResult reports the outcome of the four independent checks.
// Confidence is the passed-check fraction expressed as a percentage; Error
// holds the first failing check's message in the fixed priority order
// format, checksum, year, region.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Error      string   `json:"error,omitempty"`
	Confidence int      `json:"confidence"`
	Metadata   Metadata `json:"metadata"`
}

// Validator runs the syntactic and semantic VIN checks.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a new VIN validator.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// Normalize upper-cases a raw identifier and strips surrounding whitespace.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate runs all four checks on the identifier without short-circuiting,
// so the confidence score reflects partial correctness. A format failure
// makes the other checks meaningless; in that case they are counted as
// failed and the result carries only the format error.
func (v *Validator) Validate(raw string) ValidationResult {
	id := Normalize(raw)

	result := ValidationResult{}

	if err := checkFormat(id); err != nil {
		result.Error = err.Error()
		return result
	}

	passed := 1 // format
	var firstError string

	// The year is decoded before the checksum verdict is applied: VINs whose
	// model year predates 1981 are exempt from check-digit enforcement.
	year, yearErr := decodeModelYear(id, v.now().Year())
	checksumErr := verifyCheckDigit(id)
	if checksumErr != nil && year != 0 && year < 1981 {
		checksumErr = nil
	}

	if checksumErr == nil {
		passed++
	} else if firstError == "" {
		firstError = checksumErr.Error()
	}

	if yearErr == nil {
		passed++
		result.Metadata.ModelYear = year
	} else if firstError == "" {
		firstError = yearErr.Error()
	}

	region, regionErr := regionName(id)
	if regionErr == nil {
		passed++
		result.Metadata.RegionName = region
	} else if firstError == "" {
		firstError = regionErr.Error()
	}

	result.Metadata.ManufacturerCode = id[:3]
	result.Confidence = passed * 100 / 4
	result.Error = firstError

	// An unknown region is a soft failure: it lowers confidence but does not
	// invalidate an identifier that passed the hard checks.
	result.Valid = checksumErr == nil && yearErr == nil

	return result
}

// checkFormat verifies length and alphabet, naming the offending character
// and its one-based position.
func checkFormat(id string) error {
	if len(id) != Length {
		return fmt.Errorf("VIN must be %d characters, got %d", Length, len(id))
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c == 'I' || c == 'O' || c == 'Q' {
			return fmt.Errorf("invalid character '%c' at position %d: I, O and Q are not allowed in a VIN", c, i+1)
		}
		if _, ok := transliteration[c]; !ok {
			return fmt.Errorf("invalid character '%c' at position %d", c, i+1)
		}
	}
	return nil
}

// verifyCheckDigit computes the ISO 3779 weighted sum mod 11 and compares it
// with position 9. Remainder 10 maps to the character 'X'.
func verifyCheckDigit(id string) error {
	sum := 0
	for i := 0; i < Length; i++ {
		sum += transliteration[id[i]] * checkDigitWeights[i]
	}

	remainder := sum % 11
	expected := byte('0' + remainder)
	if remainder == 10 {
		expected = 'X'
	}

	if id[checkDigitPos] != expected {
		return fmt.Errorf("check digit mismatch at position 9: expected '%c', found '%c'", expected, id[checkDigitPos])
	}
	return nil
}

// decodeModelYear resolves the position-10 year code. The code table cycles
// every 30 years; a letter in position 7 selects the post-2009 cycle. Years
// outside [1980, currentYear+1] are rejected.
func decodeModelYear(id string, currentYear int) (int, error) {
	code := id[yearCodePos]
	base, ok := yearCodes[code]
	if !ok {
		return 0, fmt.Errorf("invalid model-year code '%c' at position 10", code)
	}

	year := base
	if id[disambigPos] >= 'A' {
		year += 30
	}
	if year > currentYear+1 {
		year -= 30
	}

	if year < 1980 || year > currentYear+1 {
		return 0, fmt.Errorf("implausible model year %d decoded from position 10", year)
	}
	return year, nil
}

// regionName resolves the manufacturing region from the first character.
func regionName(id string) (string, error) {
	region, ok := regionNames[id[0]]
	if !ok {
		return "", fmt.Errorf("unknown manufacturer region for prefix '%c'", id[0])
	}
	return region, nil
}

package vin

import (
	"fmt"
	"time"
)

// StructuralDecode derives the model year and manufacturer purely from the
// identifier string, with no network access. Fields that cannot be derived
// are left empty rather than guessed. It fails only for identifiers that do
// not pass the format check.
func StructuralDecode(raw string) (year int, make string, err error) {
	id := Normalize(raw)
	if err := checkFormat(id); err != nil {
		return 0, "", fmt.Errorf("structural decode requires a well-formed VIN: %w", err)
	}

	// Year decode failures are tolerated here: an unusable year code simply
	// leaves the field at zero.
	year, _ = decodeModelYear(id, time.Now().Year())
	return year, ManufacturerForWMI(id[:3]), nil
}

// ManufacturerForWMI resolves a World Manufacturer Identifier to a
// manufacturer name, preferring the full three-character entry and falling
// back to the two-character prefix. Returns an empty string when unknown.
func ManufacturerForWMI(wmi string) string {
	if len(wmi) < 3 {
		return ""
	}
	wmi = Normalize(wmi)[:3]
	if make, ok := manufacturersByWMI[wmi]; ok {
		return make
	}
	if make, ok := manufacturersByPrefix[wmi[:2]]; ok {
		return make
	}
	return ""
}

// Region returns the manufacturing region for an identifier's first
// character, or an empty string when unknown.
func Region(raw string) string {
	id := Normalize(raw)
	if id == "" {
		return ""
	}
	return regionNames[id[0]]
}

package main

import (
	"fmt"
	"strings"
)

var appversion = "0.5.0"

// Size units in MB.
const (
	mb = 1
	gb = 1 << 10
	tb = 1 << 20
)

// parseSizeWithUnits parses size strings like "500", "500M", "1G", "1.5GB" into MB.
// A bare number is taken as MB.
func parseSizeWithUnits(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size")
	}

	var size float64
	var unit string
	// A bare number stops after the first verb, so only n matters here.
	if n, _ := fmt.Sscanf(sizeStr, "%f%s", &size, &unit); n < 1 {
		return 0, fmt.Errorf("invalid size format: %s", sizeStr)
	}
	if size <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", sizeStr)
	}

	unit = strings.ToUpper(strings.TrimSpace(unit))
	unit = strings.TrimSuffix(unit, "B")
	var multiplier int64
	switch unit {
	case "", "M":
		multiplier = mb
	case "G":
		multiplier = gb
	case "T":
		multiplier = tb
	default:
		return 0, fmt.Errorf("unknown unit: %s (use M/MB, G/GB, T/TB)", unit)
	}

	total := int64(size * float64(multiplier))
	if total < 1 {
		return 0, fmt.Errorf("size below 1 MB: %s", sizeStr)
	}
	return total, nil
}

// Package utils provides common helper functions for string manipulation,
// data parsing, and HTTP plumbing used across the application.
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"villamedia/pkg/logger"
)

// sizeRegex matches a number followed optionally by a unit string.
var sizeRegex = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]*)$`)

// unitMultipliers uses binary prefixes: 1 KB = 1024 bytes.
var unitMultipliers = map[string]int64{
	"":   1,
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
	"PB": 1 << 50,
}

// ParseSize parses a human-readable size ("5MB", "5 mb", "512") into bytes.
func ParseSize(sizeStr string) (int64, error) {
	rawStr := strings.TrimSpace(strings.ToUpper(sizeStr))
	if rawStr == "" {
		return 0, fmt.Errorf("empty size")
	}

	matches := sizeRegex.FindStringSubmatch(rawStr)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid size format %q", sizeStr)
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid numeric value in %q", sizeStr)
	}

	multiplier, ok := unitMultipliers[matches[2]]
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q in %q", matches[2], sizeStr)
	}

	return value * multiplier, nil
}

// SizeToBytes is ParseSize with a fallback. Parse failures are logged and
// defaultValue is returned.
func SizeToBytes(sizeStr string, defaultValue int64) int64 {
	if strings.TrimSpace(sizeStr) == "" {
		return defaultValue
	}
	n, err := ParseSize(sizeStr)
	if err != nil {
		logger.LogWarn("Utils: %v, using default.", err)
		return defaultValue
	}
	return n
}

// ParseInt parses value and clamps it to [min, max].
// ParseInt("abc", 20, 1, 100) -> 20, ParseInt("500", 20, 1, 100) -> 100
func ParseInt(value string, def int, min int, max int) int {
	if value == "" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}

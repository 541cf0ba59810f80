package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func GetMinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}

	return b
}

func GetMaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}

// ParseTimeframe converts a compact timeframe label, e.g. "1m", "15m", "4h"
// or "1d", into a duration.
func ParseTimeframe(label string) (time.Duration, error) {
	label = strings.TrimSpace(strings.ToLower(label))
	if len(label) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", label)
	}

	unit := label[len(label)-1]
	multiplier, err := strconv.Atoi(label[:len(label)-1])
	if err != nil || multiplier <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", label)
	}

	switch unit {
	case 'm':
		return time.Duration(multiplier) * time.Minute, nil
	case 'h':
		return time.Duration(multiplier) * time.Hour, nil
	case 'd':
		return time.Duration(multiplier) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe unit %q", string(unit))
	}
}

// FormatTimeframe renders a duration as the compact label ParseTimeframe reads.
func FormatTimeframe(d time.Duration) string {
	day := 24 * time.Hour

	switch {
	case d >= day && d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const numberPrefix = "OC"

// OccurrenceNumberPrefix builds the month-scoped prefix, e.g. "OC202503" for
// March 2025. Sequences restart at 0001 each month.
func OccurrenceNumberPrefix(now time.Time) string {
	return fmt.Sprintf("%s%04d%02d", numberPrefix, now.Year(), int(now.Month()))
}

// NextOccurrenceNumber returns the number following latest within prefix.
// latest is the lexicographically greatest existing number for the month, or
// empty when the month has none yet.
func NextOccurrenceNumber(prefix, latest string) (string, error) {
	if latest == "" {
		return prefix + "0001", nil
	}
	if !strings.HasPrefix(latest, prefix) {
		return "", fmt.Errorf("number %q does not match prefix %q", latest, prefix)
	}
	seq, err := strconv.Atoi(latest[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("number %q has malformed sequence: %w", latest, err)
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// internal/time_parser.go
// ------------------------
// Helpers for reading durations out of configuration files. Values may be Go
// duration strings ("500ms", "6m0s") or bare numbers meaning seconds ("1.5").
package internal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration converts "500ms", "6m0s", "2" or "0.25" into a time.Duration.
// An empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// Package ratelimit caps the bandwidth of merge copies.
package ratelimit

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseBandwidth parses a human bandwidth such as "10MB", "512KiB/s" or
// "1.5 MiB". An empty string or "0" means unlimited.
func ParseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/s"), "ps")
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth %q: %w", s, err)
	}
	return int64(n), nil
}

// FormatBandwidth formats bytes per second for display
func FormatBandwidth(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}

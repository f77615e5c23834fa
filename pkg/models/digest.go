package models

import (
	"strings"
)

// HashAlgorithm names the function used to compute content digests
type HashAlgorithm string

const (
	// HashSHA256 is the default digest algorithm
	HashSHA256 HashAlgorithm = "sha256"
	// HashMD5 is faster but not collision resistant; matches legacy reports
	HashMD5 HashAlgorithm = "md5"
)

// IsSupported reports whether the algorithm can be used for indexing
func (a HashAlgorithm) IsSupported() bool {
	switch a {
	case HashSHA256, HashMD5:
		return true
	default:
		return false
	}
}

// ContentDigest is the lowercase hex digest of a file's full content.
// Two files with equal digests are treated as content-identical.
type ContentDigest string

// Short returns the first 12 characters, for display
func (d ContentDigest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// IsZero reports whether the digest is empty
func (d ContentDigest) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

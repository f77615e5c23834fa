package models

import (
	"time"
)

// FileEntry represents an indexed file on one side of a comparison
type FileEntry struct {
	// RelativePath is the path relative to the scanned root, forward-slash separated
	RelativePath string
	// Size in bytes
	Size int64
	// ModTime is the last modification time
	ModTime time.Time
	// Permissions are the file mode bits
	Permissions uint32
	// Digest identifies the file content
	Digest ContentDigest
	// Side indicates which tree the file was indexed from
	Side Side
}

// Side identifies one of the two compared trees
type Side string

const (
	// SideA is the first directory of a comparison
	SideA Side = "A"
	// SideB is the second directory of a comparison
	SideB Side = "B"
)

// Other returns the opposite side
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Category classifies an item processed by the merge orchestrator
type Category string

const (
	// CategoryUniqueA is content found only in A
	CategoryUniqueA Category = "unique-a"
	// CategoryUniqueB is content found only in B
	CategoryUniqueB Category = "unique-b"
	// CategoryConflict is a path present on both sides with different content
	CategoryConflict Category = "conflict"
	// CategoryIdentical is a path present on both sides with equal content
	CategoryIdentical Category = "identical"
	// CategoryRenamed is a path present on one side whose content exists
	// on the other side under a different name
	CategoryRenamed Category = "renamed"
)

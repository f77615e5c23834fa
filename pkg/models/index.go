package models

import (
	"fmt"
	"sort"
)

// ContentIndex maps content digests to relative paths (and back) for one
// scanned root. It is built once by an IndexBuilder and never mutated
// afterwards, so it can be shared read-only between goroutines.
type ContentIndex struct {
	root          string
	algorithm     HashAlgorithm
	digestToPaths map[ContentDigest][]string
	pathToDigest  map[string]ContentDigest
	entries       map[string]*FileEntry
	paths         []string
	digests       []ContentDigest
}

// Root returns the directory the index was built from
func (idx *ContentIndex) Root() string {
	return idx.root
}

// Algorithm returns the digest algorithm used to build the index
func (idx *ContentIndex) Algorithm() HashAlgorithm {
	return idx.algorithm
}

// Len returns the number of indexed files
func (idx *ContentIndex) Len() int {
	return len(idx.paths)
}

// Paths returns all indexed relative paths, sorted
func (idx *ContentIndex) Paths() []string {
	out := make([]string, len(idx.paths))
	copy(out, idx.paths)
	return out
}

// Digests returns all distinct digests, sorted
func (idx *ContentIndex) Digests() []ContentDigest {
	out := make([]ContentDigest, len(idx.digests))
	copy(out, idx.digests)
	return out
}

// Digest returns the digest recorded for a relative path
func (idx *ContentIndex) Digest(path string) (ContentDigest, bool) {
	d, ok := idx.pathToDigest[path]
	return d, ok
}

// PathsFor returns the sorted paths whose content has the given digest
func (idx *ContentIndex) PathsFor(digest ContentDigest) []string {
	paths := idx.digestToPaths[digest]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

// HasDigest reports whether any indexed file has the given digest
func (idx *ContentIndex) HasDigest(digest ContentDigest) bool {
	return len(idx.digestToPaths[digest]) > 0
}

// HasPath reports whether the relative path was indexed
func (idx *ContentIndex) HasPath(path string) bool {
	_, ok := idx.pathToDigest[path]
	return ok
}

// Entry returns the file entry for a relative path, or nil
func (idx *ContentIndex) Entry(path string) *FileEntry {
	return idx.entries[path]
}

// IndexBuilder accumulates entries during a scan. Freeze hands the result
// over as an immutable ContentIndex; the builder must not be used afterwards.
type IndexBuilder struct {
	root      string
	algorithm HashAlgorithm
	entries   map[string]*FileEntry
}

// NewIndexBuilder creates a builder for the given root
func NewIndexBuilder(root string, algorithm HashAlgorithm) *IndexBuilder {
	return &IndexBuilder{
		root:      root,
		algorithm: algorithm,
		entries:   make(map[string]*FileEntry),
	}
}

// Add records an entry. A relative path can only be added once.
func (b *IndexBuilder) Add(entry *FileEntry) error {
	if entry == nil {
		return &ValidationError{Field: "entry", Message: "entry is nil"}
	}
	if entry.RelativePath == "" {
		return &ValidationError{Field: "RelativePath", Message: "relative path is required"}
	}
	if entry.Digest.IsZero() {
		return &ValidationError{Field: "Digest", Message: fmt.Sprintf("digest is required for %s", entry.RelativePath)}
	}
	if _, exists := b.entries[entry.RelativePath]; exists {
		return &ValidationError{Field: "RelativePath", Message: fmt.Sprintf("duplicate path %s", entry.RelativePath)}
	}
	b.entries[entry.RelativePath] = entry
	return nil
}

// Freeze builds the immutable index
func (b *IndexBuilder) Freeze() *ContentIndex {
	idx := &ContentIndex{
		root:          b.root,
		algorithm:     b.algorithm,
		digestToPaths: make(map[ContentDigest][]string),
		pathToDigest:  make(map[string]ContentDigest, len(b.entries)),
		entries:       b.entries,
		paths:         make([]string, 0, len(b.entries)),
	}

	for path, entry := range b.entries {
		idx.paths = append(idx.paths, path)
		idx.pathToDigest[path] = entry.Digest
		idx.digestToPaths[entry.Digest] = append(idx.digestToPaths[entry.Digest], path)
	}
	sort.Strings(idx.paths)

	idx.digests = make([]ContentDigest, 0, len(idx.digestToPaths))
	for digest, paths := range idx.digestToPaths {
		sort.Strings(paths)
		idx.digests = append(idx.digests, digest)
	}
	sort.Slice(idx.digests, func(i, j int) bool { return idx.digests[i] < idx.digests[j] })

	b.entries = nil
	return idx
}

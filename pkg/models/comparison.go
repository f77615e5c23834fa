package models

import (
	"sort"
)

// ComparisonResult is the read-only outcome of comparing two content indexes.
//
// Uniqueness is a content question (keyed by digest), while conflicts and
// identical files are a per-path-name question. A file renamed on one side
// but otherwise unchanged is neither unique, conflicting nor identical; it is
// reported in Renamed instead.
type ComparisonResult struct {
	// UniqueToA holds digests present only in A, with their A paths
	UniqueToA map[ContentDigest][]string
	// UniqueToB holds digests present only in B, with their B paths
	UniqueToB map[ContentDigest][]string
	// Conflicts lists paths present on both sides with different digests
	Conflicts []string
	// Identical lists paths present on both sides with equal digests
	Identical []string
	// OnlyInA lists paths whose name does not exist in B
	OnlyInA []string
	// OnlyInB lists paths whose name does not exist in A
	OnlyInB []string
	// Renamed groups name-only paths whose content exists on both sides
	Renamed map[ContentDigest]RenamedGroup
	// FilesA and FilesB are the number of indexed files per side
	FilesA int
	FilesB int
}

// RenamedGroup lists the name-only paths sharing one digest
type RenamedGroup struct {
	PathsA []string
	PathsB []string
}

// UniquePaths returns the sorted paths holding content unique to a side
func (r *ComparisonResult) UniquePaths(side Side) []string {
	bucket := r.UniqueToA
	if side == SideB {
		bucket = r.UniqueToB
	}
	var paths []string
	for _, group := range bucket {
		paths = append(paths, group...)
	}
	sort.Strings(paths)
	return paths
}

// RenamedPaths returns the sorted renamed paths of a side
func (r *ComparisonResult) RenamedPaths(side Side) []string {
	var paths []string
	for _, group := range r.Renamed {
		if side == SideA {
			paths = append(paths, group.PathsA...)
		} else {
			paths = append(paths, group.PathsB...)
		}
	}
	sort.Strings(paths)
	return paths
}

// IsConflict reports whether the path is a same-name, different-content conflict
func (r *ComparisonResult) IsConflict(path string) bool {
	i := sort.SearchStrings(r.Conflicts, path)
	return i < len(r.Conflicts) && r.Conflicts[i] == path
}

// Summary returns the per-category file counts
func (r *ComparisonResult) Summary() ComparisonSummary {
	return ComparisonSummary{
		FilesA:    r.FilesA,
		FilesB:    r.FilesB,
		UniqueA:   len(r.UniquePaths(SideA)),
		UniqueB:   len(r.UniquePaths(SideB)),
		Conflicts: len(r.Conflicts),
		Identical: len(r.Identical),
		RenamedA:  len(r.RenamedPaths(SideA)),
		RenamedB:  len(r.RenamedPaths(SideB)),
	}
}

// ComparisonSummary holds the counts shown in reports
type ComparisonSummary struct {
	FilesA    int `json:"files_a"`
	FilesB    int `json:"files_b"`
	UniqueA   int `json:"unique_a"`
	UniqueB   int `json:"unique_b"`
	Conflicts int `json:"conflicts"`
	Identical int `json:"identical"`
	RenamedA  int `json:"renamed_a"`
	RenamedB  int `json:"renamed_b"`
}

// HasDifferences reports whether the trees differ in any way
func (s ComparisonSummary) HasDifferences() bool {
	return s.UniqueA+s.UniqueB+s.Conflicts+s.RenamedA+s.RenamedB > 0
}

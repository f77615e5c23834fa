package models

import (
	"errors"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
)

// MergeOutcome represents the results of a merge run
type MergeOutcome struct {
	// Operation details
	RunID    string
	PathA    string
	PathB    string
	DestPath string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats MergeStats

	// Written lists the relative paths materialized in the destination
	Written []string

	// Conflicts records the decision taken for every conflicting path
	Conflicts []Conflict

	// Errors encountered
	Errors []MergeError

	// Overall status
	Status MergeStatus
}

// MergeStats holds per-category and per-decision counts
type MergeStats struct {
	UniqueACopied    int
	UniqueASkipped   int
	UniqueBCopied    int
	UniqueBSkipped   int
	ConflictsTakenA  int
	ConflictsTakenB  int
	ConflictsSkipped int
	IdenticalCopied  int
	RenamedCopied    int
	RenamedSkipped   int
	FilesFailed      int
	BytesWritten     int64
}

// Copied returns the number of files written
func (s MergeStats) Copied() int {
	return s.UniqueACopied + s.UniqueBCopied + s.ConflictsTakenA + s.ConflictsTakenB +
		s.IdenticalCopied + s.RenamedCopied
}

// Skipped returns the number of items deliberately left out
func (s MergeStats) Skipped() int {
	return s.UniqueASkipped + s.UniqueBSkipped + s.ConflictsSkipped + s.RenamedSkipped
}

// MergeStatus represents the overall result
type MergeStatus string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess MergeStatus = "success"
	// StatusPartial indicates some operations failed
	StatusPartial MergeStatus = "partial"
	// StatusFailed indicates the merge failed
	StatusFailed MergeStatus = "failed"
	// StatusCancelled indicates the operator stopped the merge
	StatusCancelled MergeStatus = "cancelled"
)

// MergeError represents a per-file failure during a merge
type MergeError struct {
	FilePath  string
	Category  Category
	Side      Side
	Error     string
	Timestamp time.Time
}

// ExitCode returns the appropriate exit code for the merge status
func (s MergeStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// RecordWritten adds a path to the written set
func (o *MergeOutcome) RecordWritten(path string, bytes int64) {
	o.Written = append(o.Written, path)
	o.Stats.BytesWritten += bytes
}

// RecordError adds a per-file failure
func (o *MergeOutcome) RecordError(path string, category Category, side Side, err error) {
	o.Stats.FilesFailed++
	o.Errors = append(o.Errors, MergeError{
		FilePath:  path,
		Category:  category,
		Side:      side,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// Finish sorts the written paths and derives the final status.
// A cancelled outcome keeps its status.
func (o *MergeOutcome) Finish() {
	sort.Strings(o.Written)
	o.EndTime = time.Now()
	o.Duration = o.EndTime.Sub(o.StartTime)
	if o.Status == StatusCancelled {
		return
	}
	switch {
	case len(o.Errors) == 0:
		o.Status = StatusSuccess
	case len(o.Written) > 0:
		o.Status = StatusPartial
	default:
		o.Status = StatusFailed
	}
}

// Err aggregates the per-file failures, or returns nil
func (o *MergeOutcome) Err() error {
	var result *multierror.Error
	for _, e := range o.Errors {
		result = multierror.Append(result, errors.New(e.FilePath+": "+e.Error))
	}
	return result.ErrorOrNil()
}

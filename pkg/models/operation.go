package models

import (
	"time"
)

// MergeDecision is the choice made for one unique or conflicting item
type MergeDecision string

const (
	// DecisionCopy copies a unique file into the destination
	DecisionCopy MergeDecision = "copy"
	// DecisionTakeA keeps A's version of a conflicting file
	DecisionTakeA MergeDecision = "take-a"
	// DecisionTakeB keeps B's version of a conflicting file
	DecisionTakeB MergeDecision = "take-b"
	// DecisionSkip writes nothing for the item
	DecisionSkip MergeDecision = "skip"
)

// UniqueDecisions is the option set offered for unique and renamed files
var UniqueDecisions = []MergeDecision{DecisionCopy, DecisionSkip}

// ConflictDecisions is the option set offered for conflicts
var ConflictDecisions = []MergeDecision{DecisionTakeA, DecisionTakeB, DecisionSkip}

// ValidFor reports whether the decision belongs to the option set of a category
func (d MergeDecision) ValidFor(category Category) bool {
	options := UniqueDecisions
	if category == CategoryConflict {
		options = ConflictDecisions
	}
	for _, o := range options {
		if o == d {
			return true
		}
	}
	return false
}

// ConflictStrategy picks conflict decisions without asking
type ConflictStrategy string

const (
	// StrategyAsk consults the decision source for every conflict
	StrategyAsk ConflictStrategy = "ask"
	// StrategyTakeA always keeps A's version
	StrategyTakeA ConflictStrategy = "take-a"
	// StrategyTakeB always keeps B's version
	StrategyTakeB ConflictStrategy = "take-b"
	// StrategySkip never writes conflicting files
	StrategySkip ConflictStrategy = "skip-conflicts"
)

// MergeOperation describes one compare-then-merge cycle
type MergeOperation struct {
	ID               string
	PathA            string
	PathB            string
	DestPath         string
	Overwrite        bool
	Algorithm        HashAlgorithm
	ExcludePatterns  []string
	ConflictStrategy ConflictStrategy
	MaxWorkers       int
	BandwidthLimit   int64 // bytes per second, 0 = unlimited
	BufferSize       int
	CreatedAt        time.Time
}

// Validate checks if the operation configuration is valid
func (op *MergeOperation) Validate() error {
	if op.PathA == "" {
		return &ValidationError{Field: "PathA", Message: "first directory is required"}
	}
	if op.PathB == "" {
		return &ValidationError{Field: "PathB", Message: "second directory is required"}
	}
	if op.PathA == op.PathB {
		return &ValidationError{Field: "PathB", Message: "cannot compare a directory with itself"}
	}
	if !op.Algorithm.IsSupported() {
		return &ValidationError{Field: "Algorithm", Message: "unsupported hash algorithm: " + string(op.Algorithm)}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	switch op.ConflictStrategy {
	case "", StrategyAsk, StrategyTakeA, StrategyTakeB, StrategySkip:
	default:
		return &ValidationError{Field: "ConflictStrategy", Message: "unknown strategy: " + string(op.ConflictStrategy)}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

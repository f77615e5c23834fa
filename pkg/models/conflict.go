package models

import (
	"time"
)

// Conflict represents a path present on both sides with different content
type Conflict struct {
	// Path is the relative path of the conflicting file
	Path string
	// EntryA is the file as indexed in A
	EntryA *FileEntry
	// EntryB is the file as indexed in B
	EntryB *FileEntry
	// Decision is how the conflict was resolved (empty while unresolved)
	Decision MergeDecision `json:"decision,omitempty"`
	// Winner is the side whose content was written, if any
	Winner Side `json:"winner,omitempty"`
	// ResolvedAt is when the decision was applied
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// IsResolved returns true if a decision has been recorded
func (c *Conflict) IsResolved() bool {
	return c.ResolvedAt != nil
}

// Resolve records the decision for the conflict
func (c *Conflict) Resolve(decision MergeDecision) {
	c.Decision = decision
	switch decision {
	case DecisionTakeA:
		c.Winner = SideA
	case DecisionTakeB:
		c.Winner = SideB
	default:
		c.Winner = ""
	}
	now := time.Now()
	c.ResolvedAt = &now
}

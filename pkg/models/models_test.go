package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// ============== ContentIndex Tests ==============

func TestIndexBuilder(t *testing.T) {
	t.Run("FreezeBuildsBothMappings", func(t *testing.T) {
		b := NewIndexBuilder("/a", HashSHA256)
		entries := []*FileEntry{
			{RelativePath: "x.txt", Digest: "d1", Size: 1},
			{RelativePath: "dir/copy.txt", Digest: "d1", Size: 1},
			{RelativePath: "y.txt", Digest: "d2", Size: 2},
		}
		for _, e := range entries {
			if err := b.Add(e); err != nil {
				t.Fatalf("Add(%s) error = %v", e.RelativePath, err)
			}
		}

		idx := b.Freeze()

		if idx.Len() != 3 {
			t.Errorf("Len() = %d, want 3", idx.Len())
		}
		if idx.Root() != "/a" {
			t.Errorf("Root() = %s, want /a", idx.Root())
		}
		got := idx.PathsFor("d1")
		if len(got) != 2 || got[0] != "dir/copy.txt" || got[1] != "x.txt" {
			t.Errorf("PathsFor(d1) = %v, want [dir/copy.txt x.txt]", got)
		}
		if d, ok := idx.Digest("y.txt"); !ok || d != "d2" {
			t.Errorf("Digest(y.txt) = %s, %v; want d2, true", d, ok)
		}
		paths := idx.Paths()
		if strings.Join(paths, ",") != "dir/copy.txt,x.txt,y.txt" {
			t.Errorf("Paths() = %v, want sorted paths", paths)
		}
	})

	t.Run("EveryPathInExactlyOneBucket", func(t *testing.T) {
		b := NewIndexBuilder("/a", HashSHA256)
		b.Add(&FileEntry{RelativePath: "a", Digest: "1"})
		b.Add(&FileEntry{RelativePath: "b", Digest: "1"})
		b.Add(&FileEntry{RelativePath: "c", Digest: "2"})
		idx := b.Freeze()

		seen := make(map[string]int)
		for _, d := range idx.Digests() {
			for _, p := range idx.PathsFor(d) {
				seen[p]++
				if got, _ := idx.Digest(p); got != d {
					t.Errorf("path %s is in bucket %s but maps to %s", p, d, got)
				}
			}
		}
		for _, p := range idx.Paths() {
			if seen[p] != 1 {
				t.Errorf("path %s appears %d times in buckets, want 1", p, seen[p])
			}
		}
	})

	t.Run("DuplicatePathRejected", func(t *testing.T) {
		b := NewIndexBuilder("/a", HashSHA256)
		if err := b.Add(&FileEntry{RelativePath: "x", Digest: "1"}); err != nil {
			t.Fatalf("first Add() error = %v", err)
		}
		if err := b.Add(&FileEntry{RelativePath: "x", Digest: "2"}); err == nil {
			t.Error("Add() should fail for duplicate path")
		}
	})

	t.Run("MissingDigestRejected", func(t *testing.T) {
		b := NewIndexBuilder("/a", HashSHA256)
		err := b.Add(&FileEntry{RelativePath: "x"})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "Digest" {
			t.Errorf("Add() error = %v, want ValidationError on Digest", err)
		}
	})

	t.Run("AccessorsReturnCopies", func(t *testing.T) {
		b := NewIndexBuilder("/a", HashSHA256)
		b.Add(&FileEntry{RelativePath: "x", Digest: "1"})
		idx := b.Freeze()

		paths := idx.Paths()
		paths[0] = "mutated"
		if idx.Paths()[0] != "x" {
			t.Error("Paths() must not expose internal storage")
		}
		bucket := idx.PathsFor("1")
		bucket[0] = "mutated"
		if idx.PathsFor("1")[0] != "x" {
			t.Error("PathsFor() must not expose internal storage")
		}
	})
}

// ============== ComparisonResult Tests ==============

func TestComparisonResult(t *testing.T) {
	r := &ComparisonResult{
		UniqueToA: map[ContentDigest][]string{"d1": {"b.txt", "a.txt"}},
		UniqueToB: map[ContentDigest][]string{"d2": {"z.txt"}},
		Conflicts: []string{"config.json", "main.go"},
		Identical: []string{"same.txt"},
		Renamed: map[ContentDigest]RenamedGroup{
			"d3": {PathsA: []string{"old.txt"}, PathsB: []string{"new.txt"}},
		},
		FilesA: 5,
		FilesB: 4,
	}

	t.Run("UniquePathsSorted", func(t *testing.T) {
		got := r.UniquePaths(SideA)
		if len(got) != 2 || got[0] != "a.txt" || got[1] != "b.txt" {
			t.Errorf("UniquePaths(A) = %v, want [a.txt b.txt]", got)
		}
	})

	t.Run("IsConflict", func(t *testing.T) {
		if !r.IsConflict("main.go") {
			t.Error("IsConflict(main.go) should be true")
		}
		if r.IsConflict("same.txt") {
			t.Error("IsConflict(same.txt) should be false")
		}
	})

	t.Run("Summary", func(t *testing.T) {
		s := r.Summary()
		if s.UniqueA != 2 || s.UniqueB != 1 || s.Conflicts != 2 || s.Identical != 1 {
			t.Errorf("Summary() = %+v", s)
		}
		if s.RenamedA != 1 || s.RenamedB != 1 {
			t.Errorf("Summary() renamed = %d/%d, want 1/1", s.RenamedA, s.RenamedB)
		}
		if !s.HasDifferences() {
			t.Error("HasDifferences() should be true")
		}
	})

	t.Run("NoDifferences", func(t *testing.T) {
		empty := &ComparisonResult{Identical: []string{"x"}}
		if empty.Summary().HasDifferences() {
			t.Error("HasDifferences() should be false when only identical files exist")
		}
	})
}

// ============== Decision Tests ==============

func TestMergeDecisionValidFor(t *testing.T) {
	tests := []struct {
		decision MergeDecision
		category Category
		want     bool
	}{
		{DecisionCopy, CategoryUniqueA, true},
		{DecisionSkip, CategoryUniqueB, true},
		{DecisionTakeA, CategoryUniqueA, false},
		{DecisionCopy, CategoryRenamed, true},
		{DecisionTakeA, CategoryConflict, true},
		{DecisionTakeB, CategoryConflict, true},
		{DecisionSkip, CategoryConflict, true},
		{DecisionCopy, CategoryConflict, false},
		{MergeDecision("bogus"), CategoryConflict, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision)+"/"+string(tt.category), func(t *testing.T) {
			if got := tt.decision.ValidFor(tt.category); got != tt.want {
				t.Errorf("ValidFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConflictResolve(t *testing.T) {
	c := &Conflict{Path: "config.json"}
	if c.IsResolved() {
		t.Fatal("new conflict should not be resolved")
	}
	c.Resolve(DecisionTakeB)
	if !c.IsResolved() {
		t.Error("IsResolved() should be true after Resolve")
	}
	if c.Winner != SideB {
		t.Errorf("Winner = %s, want B", c.Winner)
	}
	c.Resolve(DecisionSkip)
	if c.Winner != "" {
		t.Errorf("Winner = %s, want empty after skip", c.Winner)
	}
}

func TestSideOther(t *testing.T) {
	if SideA.Other() != SideB || SideB.Other() != SideA {
		t.Error("Other() should swap sides")
	}
}

// ============== MergeOperation Tests ==============

func TestMergeOperationValidate(t *testing.T) {
	valid := func() *MergeOperation {
		return &MergeOperation{
			PathA:      "/a",
			PathB:      "/b",
			Algorithm:  HashSHA256,
			MaxWorkers: 4,
			BufferSize: 4096,
		}
	}

	t.Run("ValidOperation", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(op *MergeOperation)
		field  string
	}{
		{"EmptyPathA", func(op *MergeOperation) { op.PathA = "" }, "PathA"},
		{"EmptyPathB", func(op *MergeOperation) { op.PathB = "" }, "PathB"},
		{"SamePaths", func(op *MergeOperation) { op.PathB = op.PathA }, "PathB"},
		{"BadAlgorithm", func(op *MergeOperation) { op.Algorithm = "crc32" }, "Algorithm"},
		{"ZeroWorkers", func(op *MergeOperation) { op.MaxWorkers = 0 }, "MaxWorkers"},
		{"SmallBuffer", func(op *MergeOperation) { op.BufferSize = 512 }, "BufferSize"},
		{"BadStrategy", func(op *MergeOperation) { op.ConflictStrategy = "newest" }, "ConflictStrategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := valid()
			tt.mutate(op)
			err := op.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if ve, ok := err.(*ValidationError); ok {
				if ve.Field != tt.field {
					t.Errorf("ValidationError.Field = %s, want %s", ve.Field, tt.field)
				}
			} else {
				t.Errorf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "TestField",
		Message: "test message",
	}
	expected := "TestField: test message"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

// ============== MergeOutcome Tests ==============

func TestMergeOutcomeFinish(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		o := &MergeOutcome{StartTime: time.Now()}
		o.RecordWritten("b.txt", 10)
		o.RecordWritten("a.txt", 5)
		o.Finish()

		if o.Status != StatusSuccess {
			t.Errorf("Status = %s, want success", o.Status)
		}
		if o.Written[0] != "a.txt" {
			t.Errorf("Written not sorted: %v", o.Written)
		}
		if o.Stats.BytesWritten != 15 {
			t.Errorf("BytesWritten = %d, want 15", o.Stats.BytesWritten)
		}
		if o.Err() != nil {
			t.Errorf("Err() = %v, want nil", o.Err())
		}
	})

	t.Run("Partial", func(t *testing.T) {
		o := &MergeOutcome{StartTime: time.Now()}
		o.RecordWritten("a.txt", 1)
		o.RecordError("b.txt", CategoryUniqueA, SideA, errors.New("permission denied"))
		o.Finish()

		if o.Status != StatusPartial {
			t.Errorf("Status = %s, want partial", o.Status)
		}
		if o.Stats.FilesFailed != 1 {
			t.Errorf("FilesFailed = %d, want 1", o.Stats.FilesFailed)
		}
		if err := o.Err(); err == nil || !strings.Contains(err.Error(), "b.txt") {
			t.Errorf("Err() = %v, want aggregated error mentioning b.txt", err)
		}
	})

	t.Run("Failed", func(t *testing.T) {
		o := &MergeOutcome{StartTime: time.Now()}
		o.RecordError("b.txt", CategoryConflict, SideB, errors.New("disk full"))
		o.Finish()
		if o.Status != StatusFailed {
			t.Errorf("Status = %s, want failed", o.Status)
		}
	})

	t.Run("CancelledIsKept", func(t *testing.T) {
		o := &MergeOutcome{StartTime: time.Now(), Status: StatusCancelled}
		o.RecordWritten("a.txt", 1)
		o.Finish()
		if o.Status != StatusCancelled {
			t.Errorf("Status = %s, want cancelled", o.Status)
		}
	})
}

func TestMergeStatsTotals(t *testing.T) {
	s := MergeStats{
		UniqueACopied:    1,
		UniqueBCopied:    2,
		ConflictsTakenA:  1,
		ConflictsTakenB:  1,
		IdenticalCopied:  3,
		RenamedCopied:    1,
		UniqueASkipped:   1,
		ConflictsSkipped: 2,
	}
	if s.Copied() != 9 {
		t.Errorf("Copied() = %d, want 9", s.Copied())
	}
	if s.Skipped() != 3 {
		t.Errorf("Skipped() = %d, want 3", s.Skipped())
	}
}

func TestMergeStatusExitCode(t *testing.T) {
	tests := []struct {
		status MergeStatus
		want   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{MergeStatus("unknown"), 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestContentDigest(t *testing.T) {
	d := ContentDigest("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	if d.Short() != "e3b0c44298fc" {
		t.Errorf("Short() = %s", d.Short())
	}
	if ContentDigest("abc").Short() != "abc" {
		t.Error("Short() should return short digests unchanged")
	}
	if !ContentDigest("").IsZero() {
		t.Error("IsZero() should be true for empty digest")
	}
	if !HashMD5.IsSupported() || HashAlgorithm("crc").IsSupported() {
		t.Error("IsSupported() mismatch")
	}
}

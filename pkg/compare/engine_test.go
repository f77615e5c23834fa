package compare

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/scan"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// buildIndex creates an index where the digest of a file is derived from
// its content string
func buildIndex(t *testing.T, root string, files map[string]string) *models.ContentIndex {
	t.Helper()
	b := models.NewIndexBuilder(root, models.HashSHA256)
	for path, content := range files {
		if err := b.Add(&models.FileEntry{RelativePath: path, Digest: models.ContentDigest("d:" + content)}); err != nil {
			t.Fatalf("failed to add %s: %v", path, err)
		}
	}
	return b.Freeze()
}

// scanTree writes files to a temp dir and indexes it with real hashing
func scanTree(t *testing.T, files map[string]string) *models.ContentIndex {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	local, err := storage.NewLocal(root)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	ix, err := scan.NewIndexer(local, scan.Options{Workers: 2})
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	idx, _, err := ix.Scan(context.Background())
	if err != nil {
		t.Fatalf("failed to scan: %v", err)
	}
	return idx
}

func equalStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// TestCompareScenario tests the unique/identical classification
func TestCompareScenario(t *testing.T) {
	a := scanTree(t, map[string]string{"x.txt": "1", "y.txt": "2"})
	b := scanTree(t, map[string]string{"x.txt": "1", "z.txt": "3"})

	result := Compare(a, b)

	if !equalStrings(result.Identical, []string{"x.txt"}) {
		t.Errorf("Identical = %v, want [x.txt]", result.Identical)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Conflicts = %v, want empty", result.Conflicts)
	}
	if got := result.UniquePaths(models.SideA); !equalStrings(got, []string{"y.txt"}) {
		t.Errorf("UniquePaths(A) = %v, want [y.txt]", got)
	}
	if got := result.UniquePaths(models.SideB); !equalStrings(got, []string{"z.txt"}) {
		t.Errorf("UniquePaths(B) = %v, want [z.txt]", got)
	}

	dy, _ := a.Digest("y.txt")
	if paths := result.UniqueToA[dy]; !equalStrings(paths, []string{"y.txt"}) {
		t.Errorf("UniqueToA[digest(y.txt)] = %v, want [y.txt]", paths)
	}
}

// TestCompareConflict tests same-name, different-content detection
func TestCompareConflict(t *testing.T) {
	a := scanTree(t, map[string]string{"config.json": `{"debug": false}`})
	b := scanTree(t, map[string]string{"config.json": `{"debug": true}`})

	result := Compare(a, b)

	if !equalStrings(result.Conflicts, []string{"config.json"}) {
		t.Errorf("Conflicts = %v, want [config.json]", result.Conflicts)
	}
	if !result.IsConflict("config.json") {
		t.Error("IsConflict(config.json) = false, want true")
	}
	if len(result.Identical) != 0 {
		t.Errorf("Identical = %v, want empty", result.Identical)
	}
}

// TestCompareZeroByteFile tests that empty files are indexed and unique
func TestCompareZeroByteFile(t *testing.T) {
	a := scanTree(t, map[string]string{"empty.txt": "", "keep.txt": "k"})
	b := scanTree(t, map[string]string{"keep.txt": "k"})

	result := Compare(a, b)

	if got := result.UniquePaths(models.SideA); !equalStrings(got, []string{"empty.txt"}) {
		t.Errorf("UniquePaths(A) = %v, want [empty.txt]", got)
	}
	d, ok := a.Digest("empty.txt")
	if !ok || d.IsZero() {
		t.Fatal("zero-byte file was not indexed")
	}
	if _, ok := result.UniqueToA[d]; !ok {
		t.Error("zero-byte file digest missing from UniqueToA")
	}
}

// TestCompareIdempotence tests comparing a tree against itself
func TestCompareIdempotence(t *testing.T) {
	idx := buildIndex(t, "/a", map[string]string{
		"a.txt":     "1",
		"b/c.txt":   "2",
		"b/dup.txt": "2",
		"d.bin":     "3",
	})

	result := Compare(idx, idx)

	if len(result.UniqueToA) != 0 || len(result.UniqueToB) != 0 {
		t.Errorf("unique sets = %v / %v, want empty", result.UniqueToA, result.UniqueToB)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Conflicts = %v, want empty", result.Conflicts)
	}
	if !equalStrings(result.Identical, idx.Paths()) {
		t.Errorf("Identical = %v, want %v", result.Identical, idx.Paths())
	}
	if len(result.Renamed) != 0 {
		t.Errorf("Renamed = %v, want empty", result.Renamed)
	}
	if result.Summary().HasDifferences() {
		t.Error("Summary().HasDifferences() = true for identical trees")
	}
}

// TestCompareSymmetry tests that swapping arguments swaps sides
func TestCompareSymmetry(t *testing.T) {
	a := buildIndex(t, "/a", map[string]string{
		"same.txt":    "s",
		"conflict.go": "a-version",
		"only-a.txt":  "a",
		"moved.txt":   "m",
	})
	b := buildIndex(t, "/b", map[string]string{
		"same.txt":     "s",
		"conflict.go":  "b-version",
		"only-b.txt":   "b",
		"sub/moved.md": "m",
	})

	ab := Compare(a, b)
	ba := Compare(b, a)

	if !reflect.DeepEqual(ab.UniqueToA, ba.UniqueToB) || !reflect.DeepEqual(ab.UniqueToB, ba.UniqueToA) {
		t.Error("unique sets are not symmetric")
	}
	if !equalStrings(ab.Conflicts, ba.Conflicts) {
		t.Errorf("Conflicts differ: %v vs %v", ab.Conflicts, ba.Conflicts)
	}
	if !equalStrings(ab.Identical, ba.Identical) {
		t.Errorf("Identical differ: %v vs %v", ab.Identical, ba.Identical)
	}
	if !equalStrings(ab.RenamedPaths(models.SideA), ba.RenamedPaths(models.SideB)) {
		t.Error("renamed groups are not symmetric")
	}
}

// TestCompareRenamed tests that renamed-but-identical files are reported
// outside the four categories
func TestCompareRenamed(t *testing.T) {
	a := buildIndex(t, "/a", map[string]string{"old-name.txt": "content", "keep.txt": "k"})
	b := buildIndex(t, "/b", map[string]string{"new-name.txt": "content", "keep.txt": "k"})

	result := Compare(a, b)

	if len(result.UniqueToA) != 0 || len(result.UniqueToB) != 0 {
		t.Errorf("renamed file must not be unique: %v / %v", result.UniqueToA, result.UniqueToB)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Conflicts = %v, want empty", result.Conflicts)
	}

	group, ok := result.Renamed["d:content"]
	if !ok {
		t.Fatalf("Renamed = %v, want group for d:content", result.Renamed)
	}
	if !equalStrings(group.PathsA, []string{"old-name.txt"}) || !equalStrings(group.PathsB, []string{"new-name.txt"}) {
		t.Errorf("Renamed group = %+v", group)
	}

	summary := result.Summary()
	if summary.RenamedA != 1 || summary.RenamedB != 1 {
		t.Errorf("Summary() renamed = %d/%d, want 1/1", summary.RenamedA, summary.RenamedB)
	}
}

// TestCompareInvariants checks partition and uniqueness properties on a
// tree pair mixing every category
func TestCompareInvariants(t *testing.T) {
	a := buildIndex(t, "/a", map[string]string{
		"id.txt":      "same",
		"conf.txt":    "a1",
		"dup1.txt":    "dup",
		"dup2.txt":    "dup",
		"ua.txt":      "ua",
		"swap.txt":    "b2",
		"renamed.txt": "r",
	})
	b := buildIndex(t, "/b", map[string]string{
		"id.txt":     "same",
		"conf.txt":   "b1",
		"dup1.txt":   "dup",
		"ub.txt":     "ub",
		"swap.txt":   "a1",
		"other.txt":  "b2",
		"r/name.txt": "r",
	})

	result := Compare(a, b)

	// conflicts, identical, only-in-A and only-in-B partition the union of paths
	seen := make(map[string]int)
	for _, list := range [][]string{result.Conflicts, result.Identical, result.OnlyInA, result.OnlyInB} {
		for _, p := range list {
			seen[p]++
		}
	}
	union := append(a.Paths(), b.Paths()...)
	sort.Strings(union)
	for _, p := range union {
		if seen[p] != 1 {
			t.Errorf("path %s appears in %d categories, want 1", p, seen[p])
		}
	}

	// unique digests never occur on the other side
	for d := range result.UniqueToA {
		if b.HasDigest(d) {
			t.Errorf("UniqueToA digest %s exists in B", d)
		}
	}
	for d := range result.UniqueToB {
		if a.HasDigest(d) {
			t.Errorf("UniqueToB digest %s exists in A", d)
		}
	}

	if !equalStrings(result.Conflicts, []string{"conf.txt", "swap.txt"}) {
		t.Errorf("Conflicts = %v, want [conf.txt swap.txt]", result.Conflicts)
	}
	if !equalStrings(result.UniquePaths(models.SideA), []string{"ua.txt"}) {
		t.Errorf("UniquePaths(A) = %v, want [ua.txt]", result.UniquePaths(models.SideA))
	}
	if !equalStrings(result.RenamedPaths(models.SideA), []string{"dup2.txt", "renamed.txt"}) {
		t.Errorf("RenamedPaths(A) = %v, want [dup2.txt renamed.txt]", result.RenamedPaths(models.SideA))
	}
	if !equalStrings(result.RenamedPaths(models.SideB), []string{"other.txt", "r/name.txt"}) {
		t.Errorf("RenamedPaths(B) = %v, want [other.txt r/name.txt]", result.RenamedPaths(models.SideB))
	}
}

// TestCompareRoundTrip tests that identical files hash the same from both trees
func TestCompareRoundTrip(t *testing.T) {
	files := map[string]string{"a/b/c.txt": "nested", "root.txt": "top"}
	a := scanTree(t, files)
	b := scanTree(t, files)

	result := Compare(a, b)
	if len(result.Identical) != 2 {
		t.Fatalf("Identical = %v, want 2 paths", result.Identical)
	}
	for _, p := range result.Identical {
		da, _ := a.Digest(p)
		db, _ := b.Digest(p)
		if da != db {
			t.Errorf("digest mismatch for %s: %s vs %s", p, da, db)
		}
	}
}

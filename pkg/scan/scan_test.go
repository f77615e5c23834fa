package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// memTree builds an in-memory backend holding the given files
func memTree(t *testing.T, files map[string]string) *storage.Local {
	t.Helper()
	mem := storage.NewMemory("mem")
	for path, content := range files {
		if err := mem.Write(context.Background(), path, strings.NewReader(content), int64(len(content)), nil); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}
	return mem
}

func newIndexer(t *testing.T, backend storage.Backend, opts Options) *Indexer {
	t.Helper()
	ix, err := NewIndexer(backend, opts)
	if err != nil {
		t.Fatalf("NewIndexer() error = %v", err)
	}
	return ix
}

// TestExclusionSet tests exact, glob and hidden-directory matching
func TestExclusionSet(t *testing.T) {
	set, err := NewExclusionSet([]string{"node_modules/", "**/.git", "*.egg-info", "build"}, true)
	if err != nil {
		t.Fatalf("NewExclusionSet() error = %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"src/main.go", false},
		{"node_modules/lib/index.js", true},
		{"web/node_modules/x.js", true},
		{".git/config", true},
		{"pkg/foo.egg-info/PKG-INFO", true},
		{"build", true},
		{"builder/file.txt", false},
		{".hidden/file.txt", true},
		{"dir/.env", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := set.IsExcludedPath(tt.path); got != tt.want {
				t.Errorf("IsExcludedPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	t.Run("Patterns", func(t *testing.T) {
		if got := strings.Join(set.Patterns(), ","); got != "*.egg-info,.git,build,node_modules" {
			t.Errorf("Patterns() = %q, want normalized and sorted", got)
		}
	})

	t.Run("HiddenDirectory", func(t *testing.T) {
		if !set.IsExcludedDir([]string{"src", ".cache-local"}) {
			t.Error("IsExcludedDir() should exclude hidden directories")
		}
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		if _, err := NewExclusionSet([]string{"[abc"}, false); err == nil {
			t.Error("NewExclusionSet() should reject a malformed glob")
		}
		if _, err := NewExclusionSet([]string{"a/b"}, false); err == nil {
			t.Error("NewExclusionSet() should reject multi-component patterns")
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		def := DefaultExclusionSet()
		for _, name := range DefaultExcludedDirs {
			if !def.IsExcluded([]string{name, "file"}) {
				t.Errorf("default set does not exclude %s", name)
			}
		}
		if def.IsExcludedDir([]string{".config"}) {
			t.Error("default set should not exclude hidden directories")
		}
	})
}

// TestHasher tests digest algorithms and streaming
func TestHasher(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptySHA256", func(t *testing.T) {
		h, err := NewHasher(models.HashSHA256, 4096)
		if err != nil {
			t.Fatalf("NewHasher() error = %v", err)
		}
		digest, n, err := h.SumReader(ctx, strings.NewReader(""))
		if err != nil {
			t.Fatalf("SumReader() error = %v", err)
		}
		if digest != emptySHA256 || n != 0 {
			t.Errorf("SumReader(\"\") = %s, %d, want %s, 0", digest, n, emptySHA256)
		}
	})

	t.Run("MD5", func(t *testing.T) {
		h, err := NewHasher(models.HashMD5, 4096)
		if err != nil {
			t.Fatalf("NewHasher() error = %v", err)
		}
		digest, _, err := h.SumReader(ctx, strings.NewReader("hello"))
		if err != nil {
			t.Fatalf("SumReader() error = %v", err)
		}
		if digest != "5d41402abc4b2a76b9719d911017c592" {
			t.Errorf("SumReader(hello) = %s", digest)
		}
	})

	t.Run("LargerThanBuffer", func(t *testing.T) {
		h, _ := NewHasher(models.HashSHA256, 4096)
		content := strings.Repeat("0123456789", 5000)
		d1, n, err := h.SumReader(ctx, strings.NewReader(content))
		if err != nil {
			t.Fatalf("SumReader() error = %v", err)
		}
		if n != int64(len(content)) {
			t.Errorf("SumReader() read %d bytes, want %d", n, len(content))
		}
		d2, _, _ := h.SumReader(ctx, strings.NewReader(content))
		if d1 != d2 {
			t.Error("digest is not deterministic")
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := NewHasher("crc32", 4096); err == nil {
			t.Error("NewHasher() should reject unsupported algorithms")
		}
	})
}

// TestScan tests index construction over an in-memory tree
func TestScan(t *testing.T) {
	mem := memTree(t, map[string]string{
		"a.txt":                 "same",
		"dir/b.txt":             "same",
		"dir/c.txt":             "other",
		"empty.txt":             "",
		"node_modules/pkg/x.js": "ignored",
		"src/.git/HEAD":         "ignored",
		"src/main.go":           "package main",
	})

	ix := newIndexer(t, mem, Options{Side: models.SideA, Workers: 4})
	idx, count, err := ix.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if count != 5 || idx.Len() != 5 {
		t.Fatalf("Scan() count = %d, Len() = %d, want 5", count, idx.Len())
	}

	want := []string{"a.txt", "dir/b.txt", "dir/c.txt", "empty.txt", "src/main.go"}
	if got := idx.Paths(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Paths() = %v, want %v", got, want)
	}

	da, _ := idx.Digest("a.txt")
	db, _ := idx.Digest("dir/b.txt")
	if da != db {
		t.Error("equal content should produce equal digests")
	}
	if got := idx.PathsFor(da); len(got) != 2 {
		t.Errorf("PathsFor() = %v, want 2 paths", got)
	}

	if d, _ := idx.Digest("empty.txt"); d != emptySHA256 {
		t.Errorf("zero-byte file digest = %s, want %s", d, emptySHA256)
	}

	if e := idx.Entry("dir/c.txt"); e == nil || e.Side != models.SideA || e.Size != 5 {
		t.Errorf("Entry(dir/c.txt) = %+v", e)
	}
}

// TestScanWarnings tests that unreadable entries are skipped, not fatal
func TestScanWarnings(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	for path, content := range map[string]string{
		"ok.txt":        "ok",
		"secret.txt":    "secret",
		"locked/in.txt": "in",
		"open/file.txt": "file",
	} {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
	if err := os.Chmod(filepath.Join(root, "secret.txt"), 0000); err != nil {
		t.Fatalf("failed to chmod: %v", err)
	}
	if err := os.Chmod(filepath.Join(root, "locked"), 0000); err != nil {
		t.Fatalf("failed to chmod: %v", err)
	}
	defer os.Chmod(filepath.Join(root, "locked"), 0755)

	local, err := storage.NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	var mu sync.Mutex
	var warned []string
	ix := newIndexer(t, local, Options{
		Side:    models.SideB,
		Workers: 2,
		OnWarning: func(w Warning) {
			mu.Lock()
			defer mu.Unlock()
			warned = append(warned, w.Path)
		},
	})

	idx, count, err := ix.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Scan() count = %d, want 2 (paths %v)", count, idx.Paths())
	}
	if idx.HasPath("secret.txt") {
		t.Error("unreadable file should not be indexed")
	}

	joined := strings.Join(warned, ",")
	if !strings.Contains(joined, "secret.txt") || !strings.Contains(joined, "locked") {
		t.Errorf("warnings = %v, want secret.txt and locked", warned)
	}
}

// TestScanRootErrors tests structural failures
func TestScanRootErrors(t *testing.T) {
	root := t.TempDir()
	local, err := storage.NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ix := newIndexer(t, local, Options{})

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("failed to remove root: %v", err)
	}
	if _, _, err := ix.Scan(context.Background()); err == nil {
		t.Error("Scan() should fail when the root disappeared")
	}

	t.Run("Cancelled", func(t *testing.T) {
		mem := memTree(t, map[string]string{"a.txt": "a"})
		ix := newIndexer(t, mem, Options{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := ix.Scan(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Scan() error = %v, want context.Canceled", err)
		}
	})
}

// TestScanPair tests the concurrent scan of both sides
func TestScanPair(t *testing.T) {
	a := newIndexer(t, memTree(t, map[string]string{"x.txt": "1", "y.txt": "2"}), Options{Side: models.SideA})
	b := newIndexer(t, memTree(t, map[string]string{"x.txt": "1", "z.txt": "3"}), Options{Side: models.SideB})

	pair, err := ScanPair(context.Background(), a, b)
	if err != nil {
		t.Fatalf("ScanPair() error = %v", err)
	}
	if pair.FilesA != 2 || pair.FilesB != 2 {
		t.Errorf("ScanPair() files = %d/%d, want 2/2", pair.FilesA, pair.FilesB)
	}

	da, _ := pair.A.Digest("x.txt")
	db, _ := pair.B.Digest("x.txt")
	if da != db {
		t.Error("x.txt should hash identically on both sides")
	}
}

// TestCandidateDirectories tests the directory listing offered to operators
func TestCandidateDirectories(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"project-b", "project-a", "node_modules", ".git"} {
		if err := os.Mkdir(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	dirs, err := CandidateDirectories(root, nil)
	if err != nil {
		t.Fatalf("CandidateDirectories() error = %v", err)
	}
	if strings.Join(dirs, ",") != "project-a,project-b" {
		t.Errorf("CandidateDirectories() = %v, want [project-a project-b]", dirs)
	}
}

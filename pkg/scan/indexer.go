package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// ErrNotDirectory is returned when a scan root is not a directory
var ErrNotDirectory = errors.New("not a directory")

// Warning describes a file or directory skipped during a scan
type Warning struct {
	Side models.Side
	Path string
	Err  error
}

func (w Warning) String() string {
	if w.Side != "" {
		return fmt.Sprintf("[%s] %s: %v", w.Side, w.Path, w.Err)
	}
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// Progress receives hashing progress. Implementations must be safe for
// concurrent use when both sides are scanned in parallel.
type Progress interface {
	// AddTotal announces n more files to hash
	AddTotal(n int)
	// Increment reports one file hashed (or skipped)
	Increment()
}

// Options configures an Indexer
type Options struct {
	// Side labels warnings and entries
	Side models.Side
	// Algorithm is the digest algorithm (default sha256)
	Algorithm models.HashAlgorithm
	// Exclusions prunes traversal (default DefaultExclusionSet)
	Exclusions *ExclusionSet
	// Workers bounds the number of files hashed concurrently (default 1)
	Workers int
	// BufferSize is the streaming chunk size (default DefaultBufferSize)
	BufferSize int
	// OnWarning is called for every skipped file or directory. It may be
	// called from several goroutines when scans run in parallel.
	OnWarning func(Warning)
	// Progress is notified as files are hashed (optional)
	Progress Progress
	// Logger receives debug and warning records (default NullLogger)
	Logger logging.Logger
}

// Indexer builds the ContentIndex of one directory tree
type Indexer struct {
	backend storage.Backend
	opts    Options
	hasher  *Hasher
}

// candidate is a regular file discovered by the walk, waiting to be hashed
type candidate struct {
	rel  string
	info *storage.FileInfo
}

// hashResult is the per-slot output of a hashing task
type hashResult struct {
	digest models.ContentDigest
	err    error
}

// NewIndexer creates an indexer over a backend
func NewIndexer(backend storage.Backend, opts Options) (*Indexer, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = models.HashSHA256
	}
	if opts.Exclusions == nil {
		opts.Exclusions = DefaultExclusionSet()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNullLogger()
	}

	hasher, err := NewHasher(opts.Algorithm, opts.BufferSize)
	if err != nil {
		return nil, err
	}

	return &Indexer{
		backend: backend,
		opts:    opts,
		hasher:  hasher,
	}, nil
}

// Scan walks the tree and returns its content index and the number of
// files indexed. Unreadable files and directories are skipped with a
// warning; only a missing or invalid root aborts the scan.
func (ix *Indexer) Scan(ctx context.Context) (*models.ContentIndex, int, error) {
	root := ix.backend.Root()
	logger := ix.opts.Logger.WithFields(logging.Fields{"side": string(ix.opts.Side), "root": root})

	rootInfo, err := ix.backend.Stat(ctx, "")
	if err != nil {
		return nil, 0, fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !rootInfo.IsDir {
		return nil, 0, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	candidates, err := ix.collect(ctx, logger)
	if err != nil {
		return nil, 0, err
	}

	if ix.opts.Progress != nil {
		ix.opts.Progress.AddTotal(len(candidates))
	}

	results, err := ix.hashAll(ctx, candidates)
	if err != nil {
		return nil, 0, err
	}

	builder := models.NewIndexBuilder(root, ix.opts.Algorithm)
	count := 0
	for i, c := range candidates {
		if results[i].err != nil {
			ix.warn(ctx, logger, c.rel, results[i].err)
			continue
		}
		entry := &models.FileEntry{
			RelativePath: c.rel,
			Size:         c.info.Size,
			ModTime:      c.info.ModTime,
			Permissions:  c.info.Permissions,
			Digest:       results[i].digest,
			Side:         ix.opts.Side,
		}
		if err := builder.Add(entry); err != nil {
			ix.warn(ctx, logger, c.rel, err)
			continue
		}
		count++
	}

	logger.Info(ctx, "scan completed", logging.Fields{"files": count, "candidates": len(candidates)})
	return builder.Freeze(), count, nil
}

// collect walks the tree and returns the regular files to hash, sorted by
// relative path
func (ix *Indexer) collect(ctx context.Context, logger logging.Logger) ([]candidate, error) {
	var candidates []candidate
	excl := ix.opts.Exclusions

	err := ix.backend.Walk(ctx, func(rel string, info *storage.FileInfo, err error) error {
		if err != nil {
			if rel == "" {
				return fmt.Errorf("cannot read %s: %w", ix.backend.Root(), err)
			}
			// Unreadable entry or directory listing: skip, keep walking
			ix.warn(ctx, logger, rel, err)
			return nil
		}

		if rel == "" {
			return nil
		}

		segments := SplitPath(rel)
		if info.IsDir {
			if excl.IsExcludedDir(segments) {
				logger.Debug(ctx, "excluded directory", logging.Fields{"path": rel})
				return storage.ErrSkipDir
			}
			return nil
		}

		if !info.IsRegular {
			logger.Debug(ctx, "skipping non-regular file", logging.Fields{"path": rel})
			return nil
		}

		if excl.IsExcluded(segments) {
			return nil
		}

		candidates = append(candidates, candidate{rel: rel, info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].rel < candidates[j].rel })
	return candidates, nil
}

// hashAll hashes every candidate with at most Workers files in flight.
// Each task writes only its own slot, so no locking is needed.
func (ix *Indexer) hashAll(ctx context.Context, candidates []candidate) ([]hashResult, error) {
	results := make([]hashResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for i, c := range candidates {
		g.Go(func() error {
			digest, _, err := ix.hasher.Sum(gctx, ix.backend, c.rel)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[i] = hashResult{digest: digest, err: err}
			if ix.opts.Progress != nil {
				ix.opts.Progress.Increment()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (ix *Indexer) warn(ctx context.Context, logger logging.Logger, rel string, err error) {
	logger.Warn(ctx, "skipping unreadable entry", logging.Fields{"path": rel, "error": err.Error()})
	if ix.opts.OnWarning != nil {
		ix.opts.OnWarning(Warning{Side: ix.opts.Side, Path: rel, Err: err})
	}
}

// PairResult holds the indexes of both sides of a comparison
type PairResult struct {
	A      *models.ContentIndex
	B      *models.ContentIndex
	FilesA int
	FilesB int
}

// ScanPair scans both trees concurrently. Each scan owns its index until it
// completes; nothing is shared between the two.
func ScanPair(ctx context.Context, a, b *Indexer) (*PairResult, error) {
	result := &PairResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		idx, n, err := a.Scan(gctx)
		if err != nil {
			return fmt.Errorf("scan of first directory failed: %w", err)
		}
		result.A, result.FilesA = idx, n
		return nil
	})
	g.Go(func() error {
		idx, n, err := b.Scan(gctx)
		if err != nil {
			return fmt.Errorf("scan of second directory failed: %w", err)
		}
		result.B, result.FilesB = idx, n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// CandidateDirectories lists the sub-directories of dir that can be offered
// for comparison, excluding those matched by the set, sorted by name
func CandidateDirectories(dir string, excl *ExclusionSet) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if excl == nil {
		excl = DefaultExclusionSet()
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if excl.IsExcludedDir([]string{e.Name()}) {
			continue
		}
		dirs = append(dirs, e.Name())
	}
	sort.Strings(dirs)
	return dirs, nil
}

package scan

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// DefaultBufferSize is the chunk size used to stream file content
const DefaultBufferSize = 64 * 1024

// Hasher computes content digests by streaming files in fixed-size chunks
type Hasher struct {
	algorithm  models.HashAlgorithm
	bufferPool *sync.Pool
}

// NewHasher creates a hasher for the given algorithm
func NewHasher(algorithm models.HashAlgorithm, bufferSize int) (*Hasher, error) {
	if !algorithm.IsSupported() {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Hasher{
		algorithm: algorithm,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}, nil
}

// Algorithm returns the digest algorithm
func (h *Hasher) Algorithm() models.HashAlgorithm {
	return h.algorithm
}

func (h *Hasher) newHash() hash.Hash {
	if h.algorithm == models.HashMD5 {
		return md5.New()
	}
	return sha256.New()
}

// Sum computes the digest of a file held by a backend
func (h *Hasher) Sum(ctx context.Context, backend storage.Backend, path string) (models.ContentDigest, int64, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return "", 0, err
	}
	defer reader.Close()

	return h.SumReader(ctx, reader)
}

// SumReader computes the digest of everything read from r
func (h *Hasher) SumReader(ctx context.Context, r io.Reader) (models.ContentDigest, int64, error) {
	hasher := h.newHash()

	// Get buffer from pool
	bufPtr := h.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer h.bufferPool.Put(bufPtr)

	var totalRead int64
	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return "", totalRead, ctx.Err()
		default:
		}

		n, err := r.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			totalRead += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", totalRead, fmt.Errorf("failed to read file: %w", err)
		}
	}

	return models.ContentDigest(hex.EncodeToString(hasher.Sum(nil))), totalRead, nil
}

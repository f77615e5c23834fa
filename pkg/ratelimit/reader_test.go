package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReader(t *testing.T) {
	t.Run("NilLimiterPassThrough", func(t *testing.T) {
		base := strings.NewReader("test content")
		if NewReader(context.Background(), base, nil) != base {
			t.Error("NewReader() should return the source when limiter is nil")
		}
	})

	t.Run("SmallChunks", func(t *testing.T) {
		content := []byte("0123456789abcdef")
		reader := NewReader(context.Background(), bytes.NewReader(content), NewLimiter(1024*1024))

		var result []byte
		buf := make([]byte, 4)
		for {
			n, err := reader.Read(buf)
			result = append(result, buf[:n]...)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
		}
		if !bytes.Equal(result, content) {
			t.Errorf("Read() accumulated = %s, want %s", result, content)
		}
	})

	t.Run("ChunkCappedAtBurst", func(t *testing.T) {
		limiter := NewLimiter(1000)
		reader := NewReader(context.Background(), bytes.NewReader(make([]byte, 2*minBurst)), limiter)

		n, err := reader.Read(make([]byte, 2*minBurst))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if n != minBurst {
			t.Errorf("Read() = %d bytes, want one burst of %d", n, minBurst)
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader := NewReader(ctx, bytes.NewReader(make([]byte, 1024)), NewLimiter(1024*1024))
		if _, err := reader.Read(make([]byte, 100)); !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	})
}

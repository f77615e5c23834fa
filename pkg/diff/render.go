package diff

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sdejongh/dirmerge/pkg/storage"
)

const (
	// DefaultContext is the number of unchanged lines around each hunk
	DefaultContext = 3
	// DefaultPreviewLines is the number of lines shown by a preview
	DefaultPreviewLines = 10
	// DefaultMaxBytes bounds the size of a file loaded for display
	DefaultMaxBytes = 8 * 1024 * 1024
)

// Source is a file that can be displayed
type Source interface {
	// Name is shown in headers and messages
	Name() string
	// Open returns the raw content
	Open(ctx context.Context) (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// FileSource reads a file from the local filesystem
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return filepath.Base(s.path) }

func (s fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(s.path)
}

type backendSource struct {
	backend storage.Backend
	path    string
}

// BackendSource reads a relative path from a storage backend
func BackendSource(backend storage.Backend, path string) Source {
	return backendSource{backend: backend, path: path}
}

func (s backendSource) Name() string { return s.path }

func (s backendSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.backend.Read(ctx, s.path)
}

type namedSource struct {
	Source
	name string
}

// WithName overrides the display name of a source
func WithName(src Source, name string) Source {
	return namedSource{Source: src, name: name}
}

func (s namedSource) Name() string { return s.name }

// Kind tells how a Rendering must be displayed
type Kind string

const (
	// KindText holds displayable lines
	KindText Kind = "text"
	// KindBinary means the content cannot be displayed as text
	KindBinary Kind = "binary"
	// KindError means a file could not be read
	KindError Kind = "error"
)

// Op is the role of a rendered line
type Op string

const (
	OpHunk    Op = "@@"
	OpAdd     Op = "+"
	OpDelete  Op = "-"
	OpContext Op = " "
	// OpLine is a numbered preview line
	OpLine Op = "line"
	// OpMarker is the no-newline note printed after the last line of a text
	OpMarker Op = "\\"
)

// NoNewlineMarker follows the last line of a text that does not end with a newline
const NoNewlineMarker = `\ No newline at end of file`

// Line is one display line
type Line struct {
	Op     Op
	Number int
	Text   string
}

// String returns the line as it appears in a unified diff or preview
func (l Line) String() string {
	switch l.Op {
	case OpHunk, OpMarker:
		return l.Text
	case OpLine:
		return fmt.Sprintf("%3d: %s", l.Number, l.Text)
	default:
		return string(l.Op) + l.Text
	}
}

// Rendering is the displayable outcome of a diff or preview.
// Decode and read failures are carried as a Kind and Message rather than
// returned as errors, so callers can always show something and move on.
type Rendering struct {
	Kind      Kind
	Title     string
	Lines     []Line
	Message   string
	More      int
	EncodingA Encoding
	EncodingB Encoding
}

// HasChanges reports whether a diff contains added or removed lines
func (r *Rendering) HasChanges() bool {
	for _, l := range r.Lines {
		if l.Op == OpAdd || l.Op == OpDelete {
			return true
		}
	}
	return false
}

// Messages shown in place of content
const (
	MessageBinaryDiff    = "cannot display diff: binary file or unsupported encoding"
	MessageBinaryPreview = "cannot display preview: binary file"
	MessageNoDifferences = "no visible textual differences"
)

// Options configures a Renderer
type Options struct {
	// Context is the number of unchanged lines around each hunk
	Context int
	// MaxBytes bounds the size of a file loaded for display
	MaxBytes int64
	// Decoders overrides the default decoder priority list
	Decoders []Decoder
}

// Renderer produces unified diffs and previews
type Renderer struct {
	context  int
	maxBytes int64
	decoders []Decoder
}

// NewRenderer creates a renderer, filling unset options with defaults
func NewRenderer(opts Options) *Renderer {
	if opts.Context <= 0 {
		opts.Context = DefaultContext
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if len(opts.Decoders) == 0 {
		opts.Decoders = DefaultDecoders
	}
	return &Renderer{
		context:  opts.Context,
		maxBytes: opts.MaxBytes,
		decoders: opts.Decoders,
	}
}

// load reads and decodes a source. A non-nil Rendering is returned when the
// content cannot be shown.
func (r *Renderer) load(ctx context.Context, src Source, binaryMessage string) (string, Encoding, *Rendering) {
	if err := ctx.Err(); err != nil {
		return "", EncodingNone, &Rendering{Kind: KindError, Message: err.Error()}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return "", EncodingNone, &Rendering{Kind: KindError, Message: fmt.Sprintf("error reading %s: %v", src.Name(), err)}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, r.maxBytes+1))
	if err != nil {
		return "", EncodingNone, &Rendering{Kind: KindError, Message: fmt.Sprintf("error reading %s: %v", src.Name(), err)}
	}
	if int64(len(data)) > r.maxBytes {
		return "", EncodingNone, &Rendering{
			Kind:    KindBinary,
			Message: fmt.Sprintf("%s is larger than %s, not displayed", src.Name(), humanize.IBytes(uint64(r.maxBytes))),
		}
	}

	text, enc, ok := decodeWith(r.decoders, data)
	if !ok {
		return "", EncodingNone, &Rendering{Kind: KindBinary, Message: binaryMessage}
	}
	return text, enc, nil
}

// splitLines splits text into lines, each terminated by exactly one "\n".
// CRLF endings are normalized. missingEOL reports that the text did not end
// with a newline, in which case one was added to the last line.
func splitLines(text string) (lines []string, missingEOL bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil, false
	}
	lines = strings.SplitAfter(text, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last + "\n"
		missingEOL = true
	}
	return lines, missingEOL
}

// diffLines is splitLines for diffing: the marker rides on the last line, so
// a text with and one without a final newline differ on that line.
func diffLines(text string) []string {
	lines, missingEOL := splitLines(text)
	if missingEOL {
		lines[len(lines)-1] += NoNewlineMarker + "\n"
	}
	return lines
}

// RenderDiff produces a unified diff between two sources
func (r *Renderer) RenderDiff(ctx context.Context, a, b Source) *Rendering {
	title := fmt.Sprintf("%s ↔ %s", a.Name(), b.Name())

	textA, encA, failed := r.load(ctx, a, MessageBinaryDiff)
	if failed != nil {
		failed.Title = title
		return failed
	}
	textB, encB, failed := r.load(ctx, b, MessageBinaryDiff)
	if failed != nil {
		failed.Title = title
		return failed
	}

	ud := difflib.UnifiedDiff{
		A:        diffLines(textA),
		B:        diffLines(textB),
		FromFile: a.Name(),
		ToFile:   b.Name(),
		Context:  r.context,
	}
	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return &Rendering{Kind: KindError, Title: title, Message: fmt.Sprintf("error computing diff: %v", err)}
	}

	rendering := &Rendering{
		Kind:      KindText,
		Title:     title,
		Lines:     parseUnified(out),
		EncodingA: encA,
		EncodingB: encB,
	}
	if len(rendering.Lines) == 0 {
		rendering.Message = MessageNoDifferences
	}
	return rendering
}

// parseUnified classifies the lines of a unified diff, dropping the
// two file header lines
func parseUnified(out string) []Line {
	if out == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	var lines []Line
	for i, s := range raw {
		if i < 2 && (strings.HasPrefix(s, "---") || strings.HasPrefix(s, "+++")) {
			continue
		}
		switch {
		case strings.HasPrefix(s, "@@"):
			lines = append(lines, Line{Op: OpHunk, Text: s})
		case s == NoNewlineMarker:
			lines = append(lines, Line{Op: OpMarker, Text: s})
		case strings.HasPrefix(s, "+"):
			lines = append(lines, Line{Op: OpAdd, Text: s[1:]})
		case strings.HasPrefix(s, "-"):
			lines = append(lines, Line{Op: OpDelete, Text: s[1:]})
		case strings.HasPrefix(s, " "):
			lines = append(lines, Line{Op: OpContext, Text: s[1:]})
		default:
			lines = append(lines, Line{Op: OpContext, Text: s})
		}
	}
	return lines
}

// Preview returns the first maxLines lines of a source, numbered from 1.
// More is set to the number of lines left out.
func (r *Renderer) Preview(ctx context.Context, src Source, maxLines int) *Rendering {
	if maxLines <= 0 {
		maxLines = DefaultPreviewLines
	}

	text, enc, failed := r.load(ctx, src, MessageBinaryPreview)
	if failed != nil {
		failed.Title = src.Name()
		return failed
	}

	all, _ := splitLines(text)
	shown := all
	if len(shown) > maxLines {
		shown = shown[:maxLines]
	}

	rendering := &Rendering{
		Kind:      KindText,
		Title:     src.Name(),
		Lines:     make([]Line, 0, len(shown)),
		More:      len(all) - len(shown),
		EncodingA: enc,
	}
	for i, s := range shown {
		rendering.Lines = append(rendering.Lines, Line{Op: OpLine, Number: i + 1, Text: strings.TrimRight(s, "\r\n")})
	}
	return rendering
}

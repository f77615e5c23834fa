package output

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

// scanTemplate shows hashed/total files while both trees are indexed
const scanTemplate pb.ProgressBarTemplate = `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{etime . }}`

// ScanProgress displays a progress bar while directories are hashed.
// It is safe for concurrent use, so both sides of a pair scan can share it.
type ScanProgress struct {
	mu      sync.Mutex
	bar     *pb.ProgressBar
	started bool
	enabled bool
}

// NewScanProgress creates a scan progress bar writing to writer.
// The bar is disabled when writer is not a terminal.
func NewScanProgress(writer io.Writer, label string) *ScanProgress {
	if writer == nil {
		writer = os.Stderr
	}
	p := &ScanProgress{enabled: IsTerminal(writer)}
	if !p.enabled {
		return p
	}
	p.bar = scanTemplate.New(0)
	p.bar.SetWriter(writer)
	p.bar.Set("prefix", label+" ")
	return p
}

// IsTerminal reports whether writer is attached to a terminal
func IsTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// Enabled reports whether anything is drawn
func (p *ScanProgress) Enabled() bool {
	return p != nil && p.enabled
}

// AddTotal grows the number of files expected
func (p *ScanProgress) AddTotal(n int) {
	if !p.Enabled() || n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.SetTotal(p.bar.Total() + int64(n))
	if !p.started {
		p.bar.Start()
		p.started = true
	}
}

// Increment marks one file as hashed
func (p *ScanProgress) Increment() {
	if !p.Enabled() {
		return
	}
	p.bar.Increment()
}

// Finish stops the bar and leaves the final state on screen
func (p *ScanProgress) Finish() {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.bar.Finish()
		p.started = false
	}
}

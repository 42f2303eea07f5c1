package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Tally counts the outcome of a batch.
type Tally struct {
	Total  int
	Done   int
	Failed int
}

// Succeeded returns the number of items that completed without error.
func (t Tally) Succeeded() int {
	return t.Done - t.Failed
}

// Progress renders a one-line progress bar for batch operations such as
// image import. It is safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	writer  io.Writer
	label   string
	tally   Tally
	started time.Time
	now     func() time.Time
}

// NewProgress creates a progress bar prefixed with label. A nil writer
// discards all output.
func NewProgress(w io.Writer, label string) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{writer: w, label: label, now: time.Now}
}

// Start resets the counters for a batch of total items.
func (p *Progress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tally = Tally{Total: total}
	p.started = p.now()
	p.render("")
}

// Step records one finished item. A non-nil err counts it as failed.
func (p *Progress) Step(item string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tally.Done++
	if err != nil {
		p.tally.Failed++
	}
	p.render(filepath.Base(item))
}

// Finish ends the progress line and returns the final counts.
func (p *Progress) Finish() Tally {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tally.Total > 0 {
		fmt.Fprintln(p.writer)
	}
	return p.tally
}

func (p *Progress) render(item string) {
	if p.tally.Total == 0 {
		return
	}

	const barWidth = 30
	filled := barWidth * p.tally.Done / p.tally.Total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d", p.label, bar, p.tally.Done, p.tally.Total)
	if p.tally.Failed > 0 {
		line += fmt.Sprintf(" (%d failed)", p.tally.Failed)
	}
	if elapsed := p.now().Sub(p.started).Seconds(); elapsed > 0 && p.tally.Done > 0 {
		line += fmt.Sprintf(" %.1f/s", float64(p.tally.Done)/elapsed)
	}
	if item != "" {
		line += " " + item
	}
	fmt.Fprint(p.writer, line)
}

// Package progress provides a line-rewriting progress display for batch
// crawls in CLI mode.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Tracker reports how many domains of a batch have been crawled. Disabled
// trackers degrade to plain prints for Info and ignore everything else.
type Tracker struct {
	mu        sync.Mutex
	writer    io.Writer
	total     int
	crawled   int
	hazards   int
	startTime time.Time
	enabled   bool
	lastLine  string
}

func New(enabled bool, total int) *Tracker {
	return &Tracker{
		writer:    os.Stderr,
		total:     total,
		startTime: time.Now(),
		enabled:   enabled,
	}
}

// Crawled records one finished domain and how many hazardous names its
// crawl flagged.
func (p *Tracker) Crawled(hazards int) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.crawled++
	p.hazards += hazards
	p.clearLine()
	p.print()
}

// Done finishes the display and moves to a fresh line.
func (p *Tracker) Done() {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLine()
	p.print()
	fmt.Fprintln(p.writer)
	p.lastLine = ""
}

// Info prints a message without disturbing the progress line.
func (p *Tracker) Info(format string, args ...interface{}) {
	if !p.enabled {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLine()
	fmt.Fprintf(p.writer, format+"\n", args...)
	p.print()
}

func (p *Tracker) clearLine() {
	if p.lastLine != "" {
		fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", len(p.lastLine)))
	}
}

func (p *Tracker) print() {
	elapsed := time.Since(p.startTime)

	percent := float64(0)
	if p.total > 0 {
		percent = float64(p.crawled) / float64(p.total) * 100
	}

	barWidth := 20
	filled := int(percent / 100 * float64(barWidth))
	bar := strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled)

	p.lastLine = fmt.Sprintf("crawling [%s] %3.0f%% (%d/%d, %d hazardous) [%s]",
		bar, percent, p.crawled, p.total, p.hazards, formatDuration(elapsed))
	fmt.Fprint(p.writer, "\r"+p.lastLine)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

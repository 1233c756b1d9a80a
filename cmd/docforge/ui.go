package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/Lllllllleong/docforge/internal/workflow"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	labelColor   = color.New(color.FgCyan)
	faintColor   = color.New(color.Faint)
)

// progress shows the phase of every file in a batch on a single spinner line.
type progress struct {
	spin *spinner.Spinner

	mu     sync.Mutex
	phases map[string]workflow.Phase
}

func newProgress(w io.Writer) *progress {
	p := &progress{phases: map[string]workflow.Phase{}}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		s.Start()
		p.spin = s
	}
	return p
}

// observer returns the phase callback for one file.
func (p *progress) observer(name string) func(workflow.Phase) {
	return func(phase workflow.Phase) {
		p.mu.Lock()
		p.phases[name] = phase
		suffix := " " + p.summaryLocked()
		p.mu.Unlock()
		if p.spin != nil {
			p.spin.Lock()
			p.spin.Suffix = suffix
			p.spin.Unlock()
		}
	}
}

func (p *progress) summaryLocked() string {
	names := make([]string, 0, len(p.phases))
	for n := range p.phases {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", n, p.phases[n]))
	}
	return strings.Join(parts, ", ")
}

func (p *progress) Stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
}

func humanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

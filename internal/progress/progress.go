// Package progress provides a minimal, non-interactive progress reporter for
// the batch fan-outs (hashing, copying, patch generation) that the original
// tool drives with indicatif progress bars. Where the teacher drives a
// bubbletea dashboard for an interactive AI session, this build pipeline is
// a one-shot batch job, so progress is reported as periodic line writes to
// stderr instead of a redrawing terminal UI.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Reporter tracks completed/total counts for one fan-out phase and writes a
// line to its writer every 50 completions and on the last one (and once at
// Start/Done).
type Reporter struct {
	label string
	out   io.Writer
	every int

	mu    sync.Mutex
	total int
	done  int64
}

// New creates a Reporter that labels its output lines with label and writes
// to w. If w is nil, os.Stderr is used.
func New(label string, w io.Writer) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	return &Reporter{label: label, out: w, every: 50}
}

// Start announces the total item count for the phase.
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	atomic.StoreInt64(&r.done, 0)
	if total > 0 {
		fmt.Fprintf(r.out, "%s: 0/%d\n", r.label, total)
	}
}

// Increment records one completed item, occasionally writing a progress line.
func (r *Reporter) Increment() {
	done := atomic.AddInt64(&r.done, 1)
	r.mu.Lock()
	total := r.total
	r.mu.Unlock()
	if total == 0 {
		return
	}
	if int(done)%r.every == 0 || int(done) == total {
		fmt.Fprintf(r.out, "%s: %d/%d\n", r.label, done, total)
	}
}

// Done announces completion of the phase.
func (r *Reporter) Done() {
	r.mu.Lock()
	total := r.total
	r.mu.Unlock()
	if total > 0 {
		fmt.Fprintf(r.out, "%s: done (%d/%d)\n", r.label, total, total)
	}
}

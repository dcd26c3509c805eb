package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// StepProgress prints one line per committed pipeline step. Its Step
// method matches retention.Options.OnStep.
type StepProgress struct {
	mu      sync.Mutex
	writer  io.Writer
	started time.Time
}

// NewStepProgress creates a progress printer writing to w.
func NewStepProgress(w io.Writer) *StepProgress {
	return &StepProgress{writer: w, started: time.Now()}
}

// Step reports that step number index of total committed rows rows.
func (p *StepProgress) Step(index, total int, step string, rows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "[%d/%d] %-36s %10s rows  %s\n",
		index, total, step, humanize.Comma(rows), time.Since(p.started).Round(time.Millisecond))
}

package retention

import "time"

// StepResult is the outcome of one committed pipeline step.
type StepResult struct {
	Step string `json:"step"`
	Rows int64  `json:"rows"`
}

// Result summarizes a pipeline run. Steps are listed in execution order and
// only include steps that committed.
type Result struct {
	Pipeline string        `json:"pipeline"`
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Steps    []StepResult  `json:"steps"`
}

// Add records a committed step.
func (r *Result) Add(step string, rows int64) {
	r.Steps = append(r.Steps, StepResult{Step: step, Rows: rows})
}

// Rows returns the rows affected by the named step, or 0 if it did not run.
func (r *Result) Rows(step string) int64 {
	for _, s := range r.Steps {
		if s.Step == step {
			return s.Rows
		}
	}
	return 0
}

// Total returns the rows affected across all steps.
func (r *Result) Total() int64 {
	var total int64
	for _, s := range r.Steps {
		total += s.Rows
	}
	return total
}

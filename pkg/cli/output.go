package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"mercator-hq/retainer/pkg/retention"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is aligned, human readable output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", NewConfigError("output", fmt.Sprintf("unknown format %q (must be text or json)", s))
	}
}

// ScheduledJob describes the next run of a scheduled job.
type ScheduledJob struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	Next     *time.Time `json:"next,omitempty"`
}

// Status is the report of `retainer status`.
type Status struct {
	Backend       string           `json:"backend"`
	SchemaVersion int64            `json:"schema_version"`
	Tables        map[string]int64 `json:"tables"`
	Jobs          []ScheduledJob   `json:"jobs,omitempty"`
}

// WriteResult prints a pipeline result.
func WriteResult(w io.Writer, format OutputFormat, result *retention.Result) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	fmt.Fprintf(w, "%s run %s finished in %s\n", result.Pipeline, result.RunID, result.Duration.Round(time.Millisecond))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, step := range result.Steps {
		fmt.Fprintf(tw, "  %s\t%s\t\n", step.Step, humanize.Comma(step.Rows))
	}
	fmt.Fprintf(tw, "  total\t%s\t\n", humanize.Comma(result.Total()))
	return tw.Flush()
}

// WriteStatus prints table counts and the next scheduled runs. now is
// used to render relative times.
func WriteStatus(w io.Writer, format OutputFormat, status *Status, now time.Time) error {
	if format == FormatJSON {
		return writeJSON(w, status)
	}

	fmt.Fprintf(w, "backend: %s (schema v%d)\n\n", status.Backend, status.SchemaVersion)

	tables := make([]string, 0, len(status.Tables))
	for table := range status.Tables {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, table := range tables {
		fmt.Fprintf(tw, "%s\t%s\n", table, humanize.Comma(status.Tables[table]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(status.Jobs) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSCHEDULE\tNEXT RUN")
	for _, job := range status.Jobs {
		next := "disabled"
		if job.Next != nil {
			next = fmt.Sprintf("%s (%s)", job.Next.Format(time.RFC3339), humanize.RelTime(*job.Next, now, "ago", "from now"))
		}
		schedule := job.Schedule
		if schedule == "" {
			schedule = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", job.Name, schedule, next)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/retainer/pkg/retention"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("output", "unknown format")
	expected := "config error in output: unknown format"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("database locked")
	err := NewCommandError("archive", inner)

	expected := "command archive failed: database locked"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap() should expose the inner error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"config error", NewCommandError("status", NewConfigError("output", "bad")), ExitConfig},
		{"unknown realm", NewCommandError("restore", fmt.Errorf("lookup: %w", retention.ErrRealmNotFound)), ExitRealmNotFound},
		{
			"unknown realm inside step error",
			retention.NewStepError(retention.PipelineRestore, "check_realm", retention.ErrRealmNotFound),
			ExitRealmNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

package logging

import (
	"context"
	"testing"
)

func TestContextFields(t *testing.T) {
	ctx := context.Background()

	if GetRunID(ctx) != "" || GetPipeline(ctx) != "" || GetJob(ctx) != "" {
		t.Fatal("expected empty fields on a bare context")
	}
	if fields := extractContextFields(ctx); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}

	ctx = WithJob(ctx, "archive")
	ctx = WithPipeline(ctx, "archive")
	ctx = WithRunID(ctx, "b2c1")

	if got := GetRunID(ctx); got != "b2c1" {
		t.Errorf("expected run ID b2c1, got %q", got)
	}
	if got := GetPipeline(ctx); got != "archive" {
		t.Errorf("expected pipeline archive, got %q", got)
	}
	if got := GetJob(ctx); got != "archive" {
		t.Errorf("expected job archive, got %q", got)
	}

	fields := extractContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	want := []string{"job", "pipeline", "run_id"}
	for i, key := range want {
		if fields[i].Key != key {
			t.Errorf("field %d: expected key %q, got %q", i, key, fields[i].Key)
		}
	}
}

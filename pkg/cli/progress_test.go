package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestStepProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewStepProgress(&buf)

	p.Step(1, 3, "archive_messages", 1234567)
	p.Step(3, 3, "delete_attachments", 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[1/3] archive_messages") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[0], "1,234,567 rows") {
		t.Errorf("line 0 = %q, want a humanized row count", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[3/3] delete_attachments") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

package retention

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "storage error",
			err:     NewStorageError("sqlite", "archive_messages", cause),
			message: "storage error [backend=sqlite, operation=archive_messages]: disk full",
		},
		{
			name:    "step error",
			err:     NewStepError(PipelineArchive, "delete_messages", cause),
			message: `archive step "delete_messages" failed: disk full`,
		},
		{
			name:    "blob error",
			err:     NewBlobError("2/ab/cat.png", cause),
			message: "blob deletion failed [path_id=2/ab/cat.png]: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.message)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("expected error to unwrap to its cause")
			}
		})
	}
}

func TestStepErrorWrapsBlobError(t *testing.T) {
	err := error(NewStepError(PipelineJanitor, "delete_archive_attachments",
		NewBlobError("x", errors.New("permission denied"))))

	var blobErr *BlobError
	if !errors.As(err, &blobErr) {
		t.Fatal("expected BlobError in chain")
	}
	if blobErr.PathID != "x" {
		t.Errorf("expected path x, got %q", blobErr.PathID)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

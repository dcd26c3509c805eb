// Package blobstore deletes the stored files behind attachments. The
// retention janitor only ever needs deletion, so that is the whole
// contract.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Deleter removes the blob stored under a path id.
type Deleter interface {
	DeleteBlob(ctx context.Context, pathID string) error
}

// DeleterFunc adapts a function to the Deleter interface.
type DeleterFunc func(ctx context.Context, pathID string) error

// DeleteBlob calls f(ctx, pathID).
func (f DeleterFunc) DeleteBlob(ctx context.Context, pathID string) error {
	return f(ctx, pathID)
}

// ErrInvalidPath is returned for path ids that escape the store root.
var ErrInvalidPath = errors.New("invalid blob path")

// LocalStore keeps blobs as files below a root directory, one file per
// path id.
type LocalStore struct {
	root   string
	logger *slog.Logger
}

// NewLocalStore returns a store rooted at root. The directory must exist.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("blob root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blob root %s is not a directory", abs)
	}

	return &LocalStore{
		root:   abs,
		logger: slog.Default().With("component", "blobstore.local"),
	}, nil
}

// Root returns the absolute root directory.
func (s *LocalStore) Root() string { return s.root }

// Path resolves a path id to a file below the root.
func (s *LocalStore) Path(pathID string) (string, error) {
	if pathID == "" || filepath.IsAbs(pathID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, pathID)
	}

	path := filepath.Join(s.root, filepath.FromSlash(pathID))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q: directory traversal detected", ErrInvalidPath, pathID)
	}
	return path, nil
}

// DeleteBlob removes the file for pathID. A blob that is already gone
// counts as deleted, so a janitor run that failed after the blob was
// removed can be retried.
func (s *LocalStore) DeleteBlob(ctx context.Context, pathID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.Path(pathID)
	if err != nil {
		return err
	}

	// #nosec G304 - path is validated above to stay below the root
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("blob already deleted", "path_id", pathID)
			return nil
		}
		return err
	}

	s.logger.Debug("blob deleted", "path_id", pathID)
	return nil
}

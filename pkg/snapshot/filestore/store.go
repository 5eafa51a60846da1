// Package filestore keeps the snapshot in a file on the local filesystem.
// It suits single-host deployments where the monitor runs from cron.
package filestore

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"bountywatch/pkg/snapshot"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store reads and writes snapshot files below dir.
type Store struct {
	dir string
}

// Ensure Store conforms to the snapshot.Store interface at compile time.
var _ snapshot.Store = (*Store)(nil)

// New returns a Store rooted at dir. The directory is created on first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", serrors.With(serrors.ErrBadRequest, "snapshot key %q escapes the snapshot directory", key)
	}

	return filepath.Join(s.dir, key), nil
}

// Load reads the snapshot file for key.
func (s *Store) Load(_ context.Context, key string) (domain.Snapshot, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "snapshot %q not found", key)
		}

		return nil, fmt.Errorf("could not read snapshot: %w", err)
	}

	return snapshot.Decode(b)
}

// Save writes the snapshot to a temporary file and renames it over the
// previous one, so readers never observe a partial snapshot.
func (s *Store) Save(_ context.Context, key string, snap domain.Snapshot) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	b, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("could not create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("could not replace snapshot: %w", err)
	}

	return nil
}

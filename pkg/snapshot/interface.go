// Package snapshot persists the list of known assets between monitoring runs.
// Backends store the list as a single blob under a key (a file path, a cache
// key); callers only ever load it once and replace it once per run.
package snapshot

import (
	"bountywatch/pkg/domain"
	"context"
)

// Store loads and replaces the persisted snapshot.
//
//go:generate mockgen -package mocksnapshot -source=interface.go -destination=mock/mocksnapshot.go *
type Store interface {
	// Load returns the snapshot stored under key. It returns an error of kind
	// serrors.ErrNotFound when nothing has been stored yet; any other error
	// means the snapshot exists but could not be read.
	Load(ctx context.Context, key string) (domain.Snapshot, error)
	// Save replaces the snapshot stored under key, creating it if needed.
	Save(ctx context.Context, key string, snapshot domain.Snapshot) error
}

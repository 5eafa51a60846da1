// Package valkeystore keeps the snapshot under a single Valkey key.
package valkeystore

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"bountywatch/pkg/snapshot"
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// Store stores snapshots as JSON strings.
type Store struct {
	client valkey.Client
}

// Ensure Store conforms to the snapshot.Store interface at compile time.
var _ snapshot.Store = (*Store)(nil)

// Options configures the Valkey connection.
type Options struct {
	Addr     string
	Password string
}

// New connects to Valkey. The caller owns the returned store and must Close it.
func New(opts Options) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to valkey: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client valkey.Client) *Store {
	return &Store{client: client}
}

// Load executes GET on key. A nil reply means no snapshot was ever saved.
func (s *Store) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "snapshot %q not found", key)
		}

		return nil, fmt.Errorf("valkey GET for key %q failed: %w", key, err)
	}

	b, err := resp.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("could not read valkey reply for key %q: %w", key, err)
	}

	return snapshot.Decode(b)
}

// Save executes SET on key, replacing any previous snapshot.
func (s *Store) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	b, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	cmd := s.client.B().Set().Key(key).Value(valkey.BinaryString(b)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey SET for key %q failed: %w", key, err)
	}

	return nil
}

// Close releases the underlying connections.
func (s *Store) Close() {
	s.client.Close()
}

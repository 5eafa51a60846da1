// Package feed defines where bounty programs come from. A Source yields the
// programs of one platform; Decoders turn the raw feed documents into
// domain.Program values.
package feed

import (
	"bountywatch/pkg/domain"
	"context"
)

// Source fetches the current program list of a single platform.
//
//go:generate mockgen -package mockfeed -source=interface.go -destination=mock/mockfeed.go *
type Source interface {
	// Platform returns the platform label attached to every asset of this source.
	Platform() domain.Platform
	// Programs fetches and decodes the feed. Decode failures carry serrors.ErrDecode.
	Programs(ctx context.Context) ([]domain.Program, error)
}

// Package notify defines the outbound alert channel used to report newly
// discovered assets to an operator.
package notify

import (
	"context"
)

// Sink delivers a single preformatted text message.
//
//go:generate mockgen -package mocknotify -source=interface.go -destination=mock/mocknotify.go *
type Sink interface {
	// Send delivers message and returns once the remote side accepted it.
	Send(ctx context.Context, message string) error
}

// Package logsink provides a notify.Sink that writes alerts to the context
// logger. It stands in for a real channel when no credentials are configured.
package logsink

import (
	"bountywatch/pkg/logger"
	"bountywatch/pkg/notify"
	"context"

	"go.uber.org/zap"
)

// Sink logs every message at info level.
type Sink struct{}

// Ensure Sink conforms to the notify.Sink interface at compile time.
var _ notify.Sink = Sink{}

// Send never fails.
func (Sink) Send(ctx context.Context, message string) error {
	logger.Info(ctx, "notification", zap.String("message", message))

	return nil
}

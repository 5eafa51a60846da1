package monitor

import (
	"bountywatch/pkg/domain"
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

const messageTemplate = `🆕 New Asset Found

🔍 Asset: %s
🏢 Program: %s
🌐 Platform: %s
📋 Type: %s
💸 Bounty Eligible: Yes

Found at %s UTC`

// Formatter renders the alert text for a new asset.
type Formatter struct {
	now func() time.Time
}

// NewFormatter returns a Formatter stamping messages with now. A nil now
// uses time.Now.
func NewFormatter(now func() time.Time) Formatter {
	if now == nil {
		now = time.Now
	}

	return Formatter{now: now}
}

// Format fills the message template. The timestamp is the formatter's clock
// in UTC, truncated to the second.
func (f Formatter) Format(asset domain.Asset) string {
	now := f.now
	if now == nil {
		now = time.Now
	}

	return fmt.Sprintf(messageTemplate,
		asset.Asset,
		asset.Program,
		asset.Platform,
		asset.Type,
		now().UTC().Format(timestampLayout))
}

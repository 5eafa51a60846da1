package monitor

import (
	"bountywatch/pkg/targets"
	"context"
)

// Result summarises a successful run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`
	// New is the number of assets that were not in the previous snapshot.
	New int `json:"new"`
	// Total is the number of assets in the snapshot written by the run.
	Total int `json:"total"`
	// Targets are candidate scan URLs derived from the new assets.
	Targets []targets.Target `json:"targets"`
}

//go:generate mockgen -package mockmonitor -source=interface.go -destination=mock/mockmonitor.go *
type Monitor interface {
	Run(ctx context.Context) (Result, error)
}

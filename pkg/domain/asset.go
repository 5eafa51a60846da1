package domain

// Asset is a normalized, bounty-eligible URL or wildcard target. Two assets
// with the same Asset value are the same target for diffing, whatever their
// program, platform or type.
type Asset struct {
	// Asset is the target identifier.
	Asset string `json:"asset"`
	// Program is the name of the program that lists the target.
	Program string `json:"program"`
	// Platform is the platform the program belongs to.
	Platform Platform `json:"platform"`
	// Type is the asset type exactly as the feed spelled it.
	Type string `json:"type"`
	// Bounty is always true for assets that made it through normalization.
	Bounty bool `json:"bounty"`
}

// Snapshot is the ordered list of all known assets, persisted between runs.
type Snapshot []Asset

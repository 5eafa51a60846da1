package domain

// Platform identifies the bug-bounty platform a program was published on.
type Platform string

const (
	// PlatformHackerOne labels assets coming from the HackerOne feed.
	PlatformHackerOne Platform = "HackerOne"
	// PlatformBugcrowd labels assets coming from the Bugcrowd feed.
	PlatformBugcrowd Platform = "Bugcrowd"
)

// ProgramAsset is a single scope entry of a program as the feed publishes it.
type ProgramAsset struct {
	// Identifier is the target itself, e.g. "api.example.com" or "*.example.com".
	Identifier string `json:"asset_identifier"`
	// Type is the feed's asset type in its original case ("URL", "WILDCARD", "ANDROID", ...).
	Type string `json:"asset_type"`
}

// Program is a bounty program read from a platform feed.
type Program struct {
	Name string `json:"name"`
	// Bounty reports whether the program pays bounties; only such programs
	// contribute assets.
	Bounty bool           `json:"bounty"`
	Assets []ProgramAsset `json:"assets"`
}
